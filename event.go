package serverevents

// The Event struct represents a server-sent event delivered to the consumer.
type Event struct {
	// The event's type. Events sent without a type have the type "message".
	Type string
	// The event's payload. It is only meaningful if HasData is true.
	Data string
	// False if the server sent the "null" sentinel as the event's data.
	HasData bool
}

// Value returns the event's data and whether it has any.
func (e Event) Value() (string, bool) {
	return e.Data, e.HasData
}

// String returns the event's data, or "null" if it has none.
func (e Event) String() string {
	if !e.HasData {
		return nullData
	}
	return e.Data
}
