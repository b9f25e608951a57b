package transport

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
)

// The ResponseValidator type defines the type of the function
// that checks whether server responses are valid, before starting
// to read events from them.
//
// Returning an error type that implements the Temporary method will
// tell the client to reattempt the connection. This can be useful if
// you're being rate limited (response code 429), for example.
type ResponseValidator func(*http.Response) error

func contentType(header string) string {
	cts := strings.FieldsFunc(header, func(r rune) bool {
		return unicode.IsSpace(r) || r == ';' || r == ','
	})
	if len(cts) == 0 {
		return ""
	}
	return strings.ToLower(cts[0])
}

// DefaultValidator is the default response validation function. It checks the
// content type to be text/event-stream and the response status code to be 200 OK.
// A 429, 502, 503 or 504 status is reported as a temporary error.
//
// See https://html.spec.whatwg.org/multipage/server-sent-events.html#sse-processing-model.
var DefaultValidator ResponseValidator = func(r *http.Response) error {
	if r.StatusCode != http.StatusOK {
		err := fmt.Errorf("expected status code %d %s, received %d %s", http.StatusOK, http.StatusText(http.StatusOK), r.StatusCode, http.StatusText(r.StatusCode))
		switch r.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return &TemporaryError{Err: err}
		}
		return err
	}
	cts := r.Header.Get("Content-Type")
	ct := contentType(cts)
	if expected := "text/event-stream"; ct != expected {
		return fmt.Errorf("expected content type to have %q, received %q", expected, cts)
	}
	return nil
}

// NoopValidator is a response validator function that treats all responses as valid.
var NoopValidator ResponseValidator = func(_ *http.Response) error {
	return nil
}
