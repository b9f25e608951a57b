package parser

// FieldName is the name of a field in an event stream.
type FieldName string

// A Field represents an unprocessed field of a single event. The Name is the field's identifier, which is used to
// process the fields afterwards.
type Field struct {
	Name  FieldName
	Value string
}

// IsEventEnd returns true if the field marks the end of an event.
func (f *Field) IsEventEnd() bool {
	return f.Name == ""
}

const (
	FieldNameData  = FieldName("data")
	FieldNameEvent = FieldName("event")
	FieldNameRetry = FieldName("retry")
	FieldNameID    = FieldName("id")
	// FieldNameComment is reported for lines that start with a colon.
	// Its value is the text after the colon.
	FieldNameComment = FieldName(":")

	maxFieldNameLength = 5
)

func getFieldName(b string) (FieldName, bool) {
	switch FieldName(b) {
	case FieldNameData:
		return FieldNameData, true
	case FieldNameEvent:
		return FieldNameEvent, true
	case FieldNameRetry:
		return FieldNameRetry, true
	case FieldNameID:
		return FieldNameID, true
	default:
		return "", false
	}
}
