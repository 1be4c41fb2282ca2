package device

import (
	"errors"
	"fmt"
)

// fallbackErrorMsg is used when the device reports failure without a message.
const fallbackErrorMsg = "unknown error"

// TransportError indicates the device could not be reached or returned a
// non-OK HTTP response: connection failures, timeouts, and unexpected
// status codes all surface here.
type TransportError struct {
	Err error
	Op  string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RemoteError indicates the device answered with a well-formed response
// whose success flag is false. Message is the device-supplied error text,
// or a fallback when the device omits it.
type RemoteError struct {
	Op      string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: device error: %s", e.Op, e.Message)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRemote reports whether err is (or wraps) a RemoteError.
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
