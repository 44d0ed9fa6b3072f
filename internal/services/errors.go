package services

import "errors"

// Typed failures surfaced synchronously at the service boundary.
// Worker-side failures never reach a caller directly; they end up as the
// task's failed state and are observed by polling.
var (
	ErrInvalidReportKind = errors.New("invalid report type")
	ErrTaskNotFound      = errors.New("report task not found")
	ErrReportNotReady    = errors.New("report not ready")
	ErrForbidden         = errors.New("not allowed to access this report")
)
