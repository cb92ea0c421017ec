package netaccess

import (
	"errors"
	"fmt"
)

// ErrAmbiguousContent is returned when the portal answered with HTTP 200 but the body lacks every confirmation keyword
var ErrAmbiguousContent = errors.New("the portal response contains no confirmation of success")

// ErrBodyTooLarge is returned when a (decoded) response body exceeds 1 MiB
var ErrBodyTooLarge = errors.New("response exceeds 1 MiB")

// TransportError represents a network or connection failure during a single portal request
type TransportError struct {
	Method   string
	Path     string
	Wrapping error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %s", err.Method, err.Path, err.Wrapping.Error())
}

func (err *TransportError) Unwrap() error {
	return err.Wrapping
}

// StatusError represents a non-200 response at one of the workflow's checkpoints
type StatusError struct {
	Method string
	Path   string
	Status int
}

func (err *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected HTTP status %d", err.Method, err.Path, err.Status)
}
