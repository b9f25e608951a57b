package serverevents

import "github.com/tmaxmax/serverevents/transport"

const (
	keepAliveType = "keep-alive"
	nullData      = "null"
)

// Normalize translates a single item of a transport stream into an event for the
// consumer. ok is false if the item must be dropped: comments, connection notices,
// and keep-alive events when keepAliveFriendly is false.
//
// A non-nil err is returned as a *StreamError. Data that is exactly "null" yields
// an event without data; any other data is kept verbatim.
func Normalize(frame transport.Frame, err error, keepAliveFriendly bool) (ev Event, streamErr error, ok bool) {
	if err != nil {
		return Event{}, newStreamError(err), true
	}

	e, isEvent := frame.(transport.Event)
	if !isEvent {
		return Event{}, nil, false
	}
	if e.Type == keepAliveType && !keepAliveFriendly {
		return Event{}, nil, false
	}
	if e.Data == nullData {
		return Event{Type: e.Type}, nil, true
	}
	return Event{Type: e.Type, Data: e.Data, HasData: true}, nil, true
}
