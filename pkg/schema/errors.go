package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeForbidden  = "FORBIDDEN"
	ErrCodeCiphertext = "INVALID_CIPHERTEXT"
	ErrCodeCrypto     = "CRYPTO_ERROR"
	ErrCodeStore      = "STORE_ERROR"
	ErrCodeCache      = "CACHE_ERROR"
)

// SealboxError is the structured error type for all sealbox operations.
type SealboxError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *SealboxError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SealboxError) Unwrap() error {
	return e.Cause
}

// NewError creates a new SealboxError.
func NewError(code, message string) *SealboxError {
	return &SealboxError{Code: code, Message: message}
}

// NewErrorf creates a new SealboxError with a formatted message.
func NewErrorf(code, format string, args ...any) *SealboxError {
	return &SealboxError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying cause.
func (e *SealboxError) WithCause(err error) *SealboxError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *SealboxError) WithDetails(details map[string]any) *SealboxError {
	e.Details = details
	return e
}

// CodeOf returns the sealbox error code of err, or "" if err is not a SealboxError.
func CodeOf(err error) string {
	if se, ok := err.(*SealboxError); ok {
		return se.Code
	}
	return ""
}

// IsCode reports whether err is a SealboxError with the given code.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code
}
