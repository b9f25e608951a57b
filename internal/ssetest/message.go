// Package ssetest writes event streams for tests that need a server.
package ssetest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/tmaxmax/serverevents/internal/parser"
)

type line struct {
	text      string
	isComment bool
}

// Message is a single event as the server writes it.
type Message struct {
	lines []line
	retry string
	name  string
	id    string
	hasID bool
}

func (m *Message) appendText(isComment bool, texts ...string) {
	for _, t := range texts {
		for t != "" {
			var l string
			l, t, _ = parser.NextChunk(t)
			m.lines = append(m.lines, line{text: l, isComment: isComment})
		}
	}
}

// AppendData creates a data field for every line of the given strings.
// Clients join the lines back with LF, whatever newline sequence they were split on.
func (m *Message) AppendData(texts ...string) *Message {
	m.appendText(false, texts...)
	return m
}

// Comment creates a comment field for every line of the given strings.
func (m *Message) Comment(comments ...string) *Message {
	m.appendText(true, comments...)
	return m
}

// SetRetry tells the client to use the given reconnection time.
func (m *Message) SetRetry(d time.Duration) *Message {
	m.retry = strconv.FormatInt(d.Milliseconds(), 10)
	return m
}

// SetName sets the event's type. Only the first line of name is kept.
func (m *Message) SetName(name string) *Message {
	m.name, _, _ = parser.NextChunk(name)
	return m
}

// SetID sets the event's ID. An empty ID resets the client's last event ID.
func (m *Message) SetID(id string) *Message {
	m.id, m.hasID = id, true
	return m
}

// WriteTo writes the message followed by the blank line that ends it.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder

	if m.hasID {
		sb.WriteString("id: " + m.id + "\n")
	}
	if m.name != "" {
		sb.WriteString("event: " + m.name + "\n")
	}
	if m.retry != "" {
		sb.WriteString("retry: " + m.retry + "\n")
	}
	for _, l := range m.lines {
		if l.isComment {
			sb.WriteString(": ")
		} else {
			sb.WriteString("data: ")
		}
		sb.WriteString(l.text)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// String returns the message as it is written on the wire.
func (m *Message) String() string {
	var sb strings.Builder
	_, _ = m.WriteTo(&sb)
	return sb.String()
}

// Handler responds with an event stream made of the given messages and then closes it.
func Handler(messages ...*Message) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, m := range messages {
			if _, err := m.WriteTo(w); err != nil {
				return
			}
		}
	})
}

// NewServer starts a server that uses Handler for every request. It is closed when the test ends.
func NewServer(tb testing.TB, messages ...*Message) *httptest.Server {
	tb.Helper()

	ts := httptest.NewServer(Handler(messages...))
	tb.Cleanup(ts.Close)

	return ts
}
