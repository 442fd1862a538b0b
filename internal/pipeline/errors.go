package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyUtterance is returned by Send for blank input. It never reaches a
// collaborator and leaves the transcript untouched.
var ErrEmptyUtterance = errors.New("empty utterance")

// TransportError means the collaborator could not be reached.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError means the collaborator was reached but declined the
// request with a reason.
type ApplicationError struct {
	Op     string
	Status int
	Reason string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// ErrorKind is the category of a failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTransport
	KindApplication
	KindValidation
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// ClassifyError maps err onto the failure taxonomy.
func ClassifyError(err error) ErrorKind {
	var te *TransportError
	var ae *ApplicationError
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrEmptyUtterance):
		return KindValidation
	case errors.As(err, &te):
		return KindTransport
	case errors.As(err, &ae):
		return KindApplication
	default:
		return KindUnknown
	}
}

// UserMessage renders err the way it is shown to the user, prefixed with
// "Error: ".
func UserMessage(err error) string {
	var ae *ApplicationError
	switch ClassifyError(err) {
	case KindTransport:
		return "Error: Network error, backend unreachable"
	case KindApplication:
		errors.As(err, &ae)
		return "Error: " + ae.Reason
	default:
		return "Error: " + err.Error()
	}
}
