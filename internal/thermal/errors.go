package thermal

import "codeberg.org/mutker/thermalctl/internal/errors"

const (
	// Selection Errors
	ErrNoProvider = errors.ErrorCode("thermal_no_provider")

	// Sampling Errors
	ErrZoneReadFailed      = errors.ErrorCode("thermal_zone_read_failed")
	ErrHeadroomUnsupported = errors.ErrorCode("thermal_headroom_unsupported")

	// Vendor SDK Errors
	ErrNVMLInitFailed = errors.ErrorCode("thermal_nvml_init_failed")
	ErrNVMLReadFailed = errors.ErrorCode("thermal_nvml_read_failed")
)
