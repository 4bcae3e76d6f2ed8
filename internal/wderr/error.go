package wderr

import (
	"errors"
	"fmt"
)

// The error kinds of Watchdog. Check them with errors.Is.
var (
	// ErrTimeout means the health probe did not answer within the deadline.
	ErrTimeout = errors.New("probe timed out")

	// ErrTransport means a connection level failure before a response arrived.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse means the health endpoint answered with something
	// that is not a valid health payload.
	ErrMalformedResponse = errors.New("malformed health response")

	// ErrChannel means a notification channel failed to deliver an alert.
	ErrChannel = errors.New("channel delivery failed")

	// ErrIO means a read/write of a local file failed.
	ErrIO = errors.New("failed to read/write file")

	// ErrInvalidConfig means the configuration could not be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error is the error type of Watchdog.
//
// Please use errors.Is or errors.Unwrap if you want to know what kind of error is it.
type Error struct {
	kind    error
	from    error
	message string
}

// New creates a new Error.
func New(kind error, from error, format string, args ...interface{}) Error {
	msg := fmt.Sprintf(format, args...)
	if from != nil {
		if msg != "" {
			msg += ": "
		}
		msg += from.Error()
	}

	return Error{
		kind:    kind,
		from:    from,
		message: msg,
	}
}

// Error implements error interface.
func (e Error) Error() string {
	return e.message
}

// Unwrap implement for errors.Unwrap.
func (e Error) Unwrap() error {
	return e.from
}

// Is implement for errors.Is.
func (e Error) Is(err error) bool {
	return e.kind == err
}
