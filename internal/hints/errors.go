package hints

import "codeberg.org/mutker/thermalctl/internal/errors"

const (
	// Session Lifecycle Errors
	ErrSessionCreateFailed = errors.ErrorCode("hints_session_create_failed")
	ErrBackendUnavailable  = errors.ErrorCode("hints_backend_unavailable")

	// Platform Call Errors
	ErrReportFailed = errors.ErrorCode("hints_report_failed")
	ErrUpdateFailed = errors.ErrorCode("hints_update_failed")
)
