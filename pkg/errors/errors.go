package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Field      string    `json:"field,omitempty"`
	ConflictID string    `json:"conflict_id,omitempty"`
	Err        error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest, ErrValidation, ErrInvalidOrExpiredToken:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrDuplicateEntity, ErrCredentialProvisioning:
		return http.StatusConflict
	case ErrNotificationDispatch:
		return http.StatusBadGateway
	case ErrTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
	ErrValidation
	ErrDuplicateEntity
	ErrInvalidOrExpiredToken
	ErrCredentialProvisioning
	ErrNotificationDispatch
	ErrStorage
	ErrTooManyRequests
)

// InvalidOrExpiredTokenMessage is shared by the not-found and expired paths.
const InvalidOrExpiredTokenMessage = "this invitation link is invalid or has expired"

// As returns the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

// Validation reports a missing or malformed field.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Duplicate reports that an equivalent entity already exists. conflictID is
// empty when the conflict is within the submitted form itself.
func Duplicate(message, conflictID string) *AppError {
	return &AppError{
		Code:       ErrDuplicateEntity,
		Message:    message,
		ConflictID: conflictID,
	}
}

func InvalidOrExpiredToken() *AppError {
	return &AppError{
		Code:    ErrInvalidOrExpiredToken,
		Message: InvalidOrExpiredTokenMessage,
	}
}

func CredentialProvisioningFailed(err error) *AppError {
	return &AppError{
		Code:    ErrCredentialProvisioning,
		Message: "unable to create account credentials",
		Err:     err,
	}
}

func NotificationDispatchFailed(template string, err error) *AppError {
	return &AppError{
		Code:    ErrNotificationDispatch,
		Message: fmt.Sprintf("failed to send %s email", template),
		Err:     err,
	}
}

// Storage wraps a document or blob store failure for the named operation.
func Storage(op string, err error) *AppError {
	return &AppError{
		Code:    ErrStorage,
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

func TooManyRequests() *AppError {
	return &AppError{
		Code:    ErrTooManyRequests,
		Message: "rate limit exceeded",
	}
}
