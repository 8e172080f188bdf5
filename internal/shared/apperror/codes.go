package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput = "INVALID_INPUT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInvalidState = "INVALID_STATE"

	// Recognition outcomes surfaced to the operator terminal
	CodeNoMatch       = "NO_MATCH"
	CodeLowConfidence = "LOW_CONFIDENCE"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeCameraUnavailable  = "CAMERA_UNAVAILABLE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)
