// Package parser implements the line-level parsing of an event stream:
// https://html.spec.whatwg.org/multipage/server-sent-events.html#parsing-an-event-stream
package parser

import (
	"bufio"
	"io"
	"strings"
)

const bom = "\xEF\xBB\xBF"

// newSplitFunc creates a split function for a bufio.Scanner that splits a sequence of
// bytes into SSE events. Each event ends with two consecutive newline sequences,
// where a newline sequence is defined as either "\n", "\r", or "\r\n".
//
// The trailing blank line is kept in the token, so a FieldParser reports the event end.
func newSplitFunc() bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if len(data) == 0 {
			return 0, nil, nil
		}

		var start int
		for {
			index, endlineLen := NewlineIndex(data[advance:])
			advance += index + endlineLen
			if index == 0 {
				// If it was a blank line, skip it.
				start += endlineLen
			}
			// We've reached the end of data or a second newline follows and the line isn't blank.
			// The latter means we have an event.
			if advance == len(data) || (isNewlineChar(data[advance]) && index > 0) {
				break
			}
		}

		if l := len(data); advance == l && !atEOF {
			// We have reached the end of the buffer but have not yet seen two consecutive
			// newline sequences, so we request more data.
			return 0, nil, nil
		} else if advance < l {
			// We have found a newline. Consume the end-of-line sequence.
			advance++
			// Consume one more character if end-of-line is "\r\n".
			if advance < l && data[advance-1] == '\r' && data[advance] == '\n' {
				advance++
			}
		}

		return advance, data[start:advance], nil
	}
}

// Parser extracts fields from a reader. Reading is buffered using a bufio.Scanner.
// The Parser also removes the UTF-8 BOM if it exists.
type Parser struct {
	inputScanner *bufio.Scanner
	fieldScanner *FieldParser
	started      bool
}

// Next parses a single field from the reader. It returns false when there are no more fields to parse.
func (r *Parser) Next(f *Field) bool {
	for !r.fieldScanner.Next(f) {
		if r.fieldScanner.Err() != nil || !r.inputScanner.Scan() {
			return false
		}

		// Text allocates once per event, so returned fields own their values.
		text := r.inputScanner.Text()
		if !r.started {
			text = strings.TrimPrefix(text, bom)
			r.started = true
		}

		r.fieldScanner.Reset(text)
	}

	return true
}

// Err returns the last read error.
func (r *Parser) Err() error {
	if err := r.inputScanner.Err(); err != nil {
		return err
	}
	return r.fieldScanner.Err()
}

// New returns a Parser that extracts fields from a reader.
func New(r io.Reader) *Parser {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), bufio.MaxScanTokenSize*16)
	sc.Split(newSplitFunc())

	return &Parser{inputScanner: sc, fieldScanner: NewFieldParser("")}
}
