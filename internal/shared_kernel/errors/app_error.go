package apperrors

type Type string

const (
	TypeValidation Type = "validation"
	TypeNotFound   Type = "not_found"
	TypeConflict   Type = "conflict"
	TypeInternal   Type = "internal"

	// Settlement provider taxonomy.
	TypeQuotaExceeded       Type = "quota_exceeded"
	TypeUpstreamAuthFailure Type = "upstream_auth_failure"
	TypeUpstreamRejected    Type = "upstream_rejected"
	TypeUpstreamUnavailable Type = "upstream_unavailable"
	TypeTransient           Type = "transient"
	TypeUnmappedStatus      Type = "unmapped_status"
)

type AppError struct {
	Type    Type           `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

// IsType reports whether the error carries the given type. Nil errors match nothing.
func (e *AppError) IsType(errorType Type) bool {
	return e != nil && e.Type == errorType
}

// Retryable reports whether a later attempt may succeed without operator action.
func (e *AppError) Retryable() bool {
	if e == nil {
		return false
	}
	switch e.Type {
	case TypeTransient, TypeUpstreamUnavailable, TypeQuotaExceeded:
		return true
	default:
		return false
	}
}

func newAppError(errorType Type, code, message string, details map[string]any) *AppError {
	return &AppError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: details,
	}
}

func NewInternal(code, message string, details map[string]any) *AppError {
	return newAppError(TypeInternal, code, message, details)
}

func NewValidation(code, message string, details map[string]any) *AppError {
	return newAppError(TypeValidation, code, message, details)
}

func NewNotFound(code, message string, details map[string]any) *AppError {
	return newAppError(TypeNotFound, code, message, details)
}

func NewConflict(code, message string, details map[string]any) *AppError {
	return newAppError(TypeConflict, code, message, details)
}

func NewQuotaExceeded(code, message string, details map[string]any) *AppError {
	return newAppError(TypeQuotaExceeded, code, message, details)
}

func NewUpstreamAuthFailure(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUpstreamAuthFailure, code, message, details)
}

func NewUpstreamRejected(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUpstreamRejected, code, message, details)
}

func NewUpstreamUnavailable(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUpstreamUnavailable, code, message, details)
}

func NewTransient(code, message string, details map[string]any) *AppError {
	return newAppError(TypeTransient, code, message, details)
}

func NewUnmappedStatus(code, message string, details map[string]any) *AppError {
	return newAppError(TypeUnmappedStatus, code, message, details)
}
