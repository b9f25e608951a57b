package parser

// isNewlineChar returns whether the given character is '\n' or '\r'.
func isNewlineChar(b byte) bool {
	return b == '\n' || b == '\r'
}

// NewlineIndex returns the index of the first occurrence of a newline sequence (\n, \r, or \r\n).
// It also returns the sequence's length. If no sequence is found, index is equal to len(s)
// and length is 0.
func NewlineIndex[T string | []byte](s T) (index, length int) {
	for l := len(s); index < l; index++ {
		b := s[index]

		if isNewlineChar(b) {
			length++
			if b == '\r' && index < l-1 && s[index+1] == '\n' {
				length++
			}

			break
		}
	}

	return
}

// NextChunk retrieves the next line of the given string, without its line terminator,
// along with the data remaining after it. hasNewline reports whether the line was
// terminated. If the returned chunk is the last one, remaining will be empty.
//
// Newlines are defined in the event stream standard:
// https://html.spec.whatwg.org/multipage/server-sent-events.html#parsing-an-event-stream
func NextChunk(s string) (chunk, remaining string, hasNewline bool) {
	index, endlineLen := NewlineIndex(s)
	return s[:index], s[index+endlineLen:], endlineLen != 0
}
