package gateway

import (
	"errors"
	"fmt"
)

// The booking service fails in two distinguishable ways: the request
// reached the server and was rejected (surface the server's message),
// or it never got there (surface a connectivity message). Callers pick
// correction vs retry UX based on which one they got.

// RejectedError: server reachable, request refused.
type RejectedError struct {
	Status  int
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("booking service rejected request (status=%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("booking service rejected request (status=%d)", e.Status)
}

// UnreachableError: no response from the server at all.
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("booking service unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

const (
	genericRejectedMessage    = "the booking request could not be completed, please try again"
	genericUnreachableMessage = "could not reach the booking service, please check your connection and try again"
)

// UserMessage turns a gateway failure into the single string shown to
// the customer: the server's own message verbatim when it sent one, a
// generic fallback otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var rej *RejectedError
	if errors.As(err, &rej) {
		if rej.Message != "" {
			return rej.Message
		}
		return genericRejectedMessage
	}
	var unr *UnreachableError
	if errors.As(err, &unr) {
		return genericUnreachableMessage
	}
	return err.Error()
}

// IsUnreachable reports whether the failure never reached the server.
func IsUnreachable(err error) bool {
	var unr *UnreachableError
	return errors.As(err, &unr)
}
