package booking

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced to callers.
const (
	CodeInvalidInput     = "invalid_input"
	CodeNotFound         = "not_found"
	CodeSlotUnavailable  = "slot_unavailable"
	CodeConflict         = "conflict"
	CodeAlreadyCancelled = "already_cancelled"
	CodeExternalService  = "external_service_error"
	CodeStorage          = "storage_error"
)

// BookingError is a categorized booking failure. Two BookingErrors match
// under errors.Is when their codes are equal.
type BookingError struct {
	Code    string
	Message string
	Err     error
}

func (e *BookingError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BookingError) Unwrap() error { return e.Err }

func (e *BookingError) Is(target error) bool {
	t, ok := target.(*BookingError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput     = &BookingError{Code: CodeInvalidInput}
	ErrNotFound         = &BookingError{Code: CodeNotFound}
	ErrSlotUnavailable  = &BookingError{Code: CodeSlotUnavailable}
	ErrConflict         = &BookingError{Code: CodeConflict}
	ErrAlreadyCancelled = &BookingError{Code: CodeAlreadyCancelled}
	ErrExternalService  = &BookingError{Code: CodeExternalService}
	ErrStorage          = &BookingError{Code: CodeStorage}
)

func newError(code, msg string, cause error) error {
	return &BookingError{Code: code, Message: msg, Err: cause}
}

// HTTPStatus maps an error from this package to a response status.
func HTTPStatus(err error) int {
	var be *BookingError
	if !errors.As(err, &be) {
		return http.StatusInternalServerError
	}
	switch be.Code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSlotUnavailable, CodeConflict, CodeAlreadyCancelled:
		return http.StatusConflict
	case CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
