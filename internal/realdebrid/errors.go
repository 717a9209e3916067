package realdebrid

import (
	"errors"
	"fmt"
)

var ErrEmptyKey = errors.New("api key is empty")

type ErrorType int

const (
	ErrorTypeNetwork ErrorType = iota
	ErrorTypeHTTP
	ErrorTypeDecode
)

// APIError describes a failed call to the remote service. Remote error codes
// are not interpreted; the body is carried verbatim.
type APIError struct {
	Type      ErrorType
	Operation string
	Status    int
	Body      string
	Err       error
}

func (e *APIError) Error() string {
	switch e.Type {
	case ErrorTypeHTTP:
		if e.Body != "" {
			return fmt.Sprintf("Failed to %s: %d - %s", e.Operation, e.Status, e.Body)
		}
		return fmt.Sprintf("Failed to %s: %d", e.Operation, e.Status)
	case ErrorTypeDecode:
		return fmt.Sprintf("Failed to parse %s response: %v", e.Operation, e.Err)
	default:
		return fmt.Sprintf("Failed to %s: %v", e.Operation, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newNetworkError(op string, err error) *APIError {
	return &APIError{Type: ErrorTypeNetwork, Operation: op, Err: err}
}

func newStatusError(op string, status int, body string) *APIError {
	return &APIError{Type: ErrorTypeHTTP, Operation: op, Status: status, Body: body}
}

func newDecodeError(op string, err error) *APIError {
	return &APIError{Type: ErrorTypeDecode, Operation: op, Err: err}
}
