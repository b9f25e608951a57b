package serverevents

import (
	"errors"

	"github.com/tmaxmax/serverevents/transport"
)

var (
	// ErrInvalidEndpoint is returned by New when no Session can be created for the URL:
	// it cannot be parsed, its scheme is neither https nor http, or its authority
	// is malformed. The causes are deliberately not distinguished.
	ErrInvalidEndpoint = errors.New("serverevents: invalid endpoint")
	// ErrSessionConsumed is returned when a Session is used after it was already
	// started, or when a Stream sequence is iterated more than once.
	ErrSessionConsumed = errors.New("serverevents: session already consumed")
)

// StreamError is delivered for every connection failure that occurs while streaming.
// It does not expose the underlying transport error.
type StreamError struct {
	msg       string
	temporary bool
}

func newStreamError(err error) *StreamError {
	e := &StreamError{msg: err.Error()}

	var te *transport.Error
	if errors.As(err, &te) {
		e.temporary = te.Temporary() || te.Timeout()
	}

	return e
}

func (e *StreamError) Error() string {
	return "serverevents: connection error for server events: " + e.msg
}

// Temporary returns whether the connection will be reattempted after this error.
func (e *StreamError) Temporary() bool {
	return e.temporary
}
