package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrNotImplemented  ErrorCode = "not_implemented"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig      ErrorCode = "invalid_configuration"
	ErrBindFlags          ErrorCode = "bind_flags_failed"
	ErrReadConfig         ErrorCode = "read_config_failed"
	ErrInvalidLogLevel    ErrorCode = "invalid_log_level"
	ErrInvalidInterval    ErrorCode = "invalid_poll_interval"
	ErrInvalidQualityMode ErrorCode = "invalid_quality_mode"

	// Thermal provider errors
	ErrProviderUnavailable ErrorCode = "provider_unavailable"
	ErrHeadroomUnsupported ErrorCode = "headroom_unsupported"

	// Hint session errors
	ErrSessionCreateFailed ErrorCode = "session_create_failed"
	ErrPlatformCallFailed  ErrorCode = "platform_call_failed"

	// Lifecycle errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:            "Internal error occurred",
	ErrInvalidArgument:     "Invalid argument provided",
	ErrNotImplemented:      "Operation not implemented",
	ErrUnavailable:         "Service unavailable",
	ErrAlreadyRunning:      "Another instance is already running",
	ErrInvalidConfig:       "Invalid configuration",
	ErrBindFlags:           "Failed to bind flags",
	ErrReadConfig:          "Failed to read configuration",
	ErrInvalidLogLevel:     "Invalid log level",
	ErrInvalidInterval:     "Invalid poll interval value",
	ErrInvalidQualityMode:  "Invalid quality adaptation mode",
	ErrProviderUnavailable: "No thermal provider available",
	ErrHeadroomUnsupported: "Thermal headroom is not supported on this device",
	ErrSessionCreateFailed: "Failed to create performance hint session",
	ErrPlatformCallFailed:  "Platform call failed",
	ErrInitFailed:          "Initialization failed",
	ErrShutdownFailed:      "Shutdown failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
