package transport

// A Frame is a unit delivered by a Client's stream. It is one of Event,
// Comment or Connected.
type Frame interface {
	frame()
}

// DefaultEventType is the type of events received without an event field.
const DefaultEventType = "message"

// Event is a dispatched server-sent event.
type Event struct {
	// The event's type. It is DefaultEventType if the server sent no event field.
	Type string
	// The event's data. Multiple data fields are joined by a newline.
	Data string
	// The last non-empty ID of all the events received. This may not be
	// the ID of this event!
	LastEventID string
}

// Comment is a line of the stream that starts with a colon.
// Servers commonly send them to keep idle connections open.
type Comment struct {
	Text string
}

// Connected is delivered every time a connection to the server is
// established and its response is validated.
type Connected struct {
	// The response's status code.
	Status int
}

func (Event) frame()     {}
func (Comment) frame()   {}
func (Connected) frame() {}
