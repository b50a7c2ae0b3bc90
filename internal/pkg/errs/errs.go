package errs

import (
	"errors"
	"fmt"
	"net/http"

	"socialfeed/internal/pkg/logx"
)

// CustomError is the error type surfaced to clients. It carries a business code, a
// user-facing message, the HTTP status to answer with and, for wrapped backend
// failures, the original cause.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing description. For wrapped provider errors it is the
	// provider's own text, untranslated.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Unwrap exposes Cause to errors.Is and errors.As.
func (e CustomError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CustomError with the same code.
func (e CustomError) Is(target error) bool {
	var t *CustomError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewError builds a CustomError from the template registered for code. Unknown codes
// fall back to ErrUnknown. When code is ErrUnknown and details[0] is an error, that
// error is logged and kept as the cause.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		logx.Error(
			fmt.Errorf("unknown error code %d", code),
			"Unknown error code requested",
			"requested_code", code,
		)
		templateErr = errorMap[ErrUnknown]
	}

	customErr := templateErr
	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
			customErr.Cause = originalErr
		}
	}

	return &customErr
}

// Wrap classifies cause under code. The cause's own text becomes the user-facing
// message so provider errors reach the user verbatim.
func Wrap(code int, cause error) *CustomError {
	customErr := NewError(code)
	if cause == nil {
		return customErr
	}

	var inner *CustomError
	if errors.As(cause, &inner) && inner.Code == code {
		return inner
	}

	customErr.Cause = cause
	if msg := cause.Error(); msg != "" {
		customErr.Message = msg
	}
	return customErr
}

// From converts any error into a CustomError. Errors outside the taxonomy become ErrUnknown.
func From(err error) *CustomError {
	if err == nil {
		return nil
	}

	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	return NewError(ErrUnknown, err)
}

// HasCode reports whether err is, or wraps, a CustomError with the given code.
func HasCode(err error, code int) bool {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr.Code == code
	}
	return false
}
