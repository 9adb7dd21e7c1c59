// Package errors carries a machine-readable [Code] alongside every failure
// that crosses a package boundary, so the CLI can print a short message and
// the HTTP server can pick a status without string matching.
//
// Codes group by prefix. INVALID_* is bad input and maps to 400. The
// *_LOAD_FAILED codes are asset failures that the owning layer absorbs
// into a degraded render. CAPTURE_FAILED and STORAGE_ERROR are pipeline
// stage failures; NETWORK_ERROR, TIMEOUT and RATE_LIMITED come from
// outbound HTTP.
//
//	if _, err := fit.ComputeCover(w, h, cw, ch, 0, 0); errors.Is(err, errors.ErrCodeInvalidGeometry) {
//	    return
//	}
//	return errors.Wrap(errors.ErrCodeStorage, err, "upload %s", path)
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Code is a stable identifier that survives JSON and log output.
type Code string

const (
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidGeometry Code = "INVALID_GEOMETRY"
	ErrCodeInvalidTemplate Code = "INVALID_TEMPLATE"
	ErrCodeInvalidPlatform Code = "INVALID_PLATFORM"
	ErrCodeInvalidColor    Code = "INVALID_COLOR"
	ErrCodeInvalidFormat   Code = "INVALID_FORMAT"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidURL      Code = "INVALID_URL"

	// absorbed by the layer that owns the asset
	ErrCodeImageLoad Code = "IMAGE_LOAD_FAILED"
	ErrCodeFontLoad  Code = "FONT_LOAD_FAILED"

	ErrCodeCapture Code = "CAPTURE_FAILED"
	ErrCodeStorage Code = "STORAGE_ERROR"

	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error pairs a Code with a message meant for users. Cause, when set, is
// kept for errors.Is/As and logs but is not shown by [UserMessage].
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return Wrap(code, nil, format, args...)
}

// Wrap creates an Error with code that wraps cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// GetCode returns the code of the outermost *Error in err's chain, or "".
func GetCode(err error) Code {
	if e, ok := as(err); ok {
		return e.Code
	}
	return ""
}

// Coded reports whether err already carries a code. Layers that wrap
// foreign errors use it to avoid re-coding errors from lower layers.
func Coded(err error) bool {
	return GetCode(err) != ""
}

// UserMessage returns the message to show a user: the *Error message
// without code or cause, or err.Error() for foreign errors.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if e, ok := as(err); ok {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error code onto the HTTP status the API responds with.
func HTTPStatus(err error) int {
	switch code := GetCode(err); {
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case code == ErrCodeNotFound:
		return http.StatusNotFound
	case code == ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case code == ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case code == ErrCodeNetwork:
		return http.StatusBadGateway
	case code == ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func as(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
