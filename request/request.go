// Package request performs the JSON requests that usually accompany an event
// stream, such as fetching the initial state of a resource, and reports their
// failures as typed errors.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"
)

// Kind classifies a request failure.
type Kind int

const (
	KindNotJSON Kind = iota + 1
	KindNotUTF8
	KindNetwork
	KindSerialize
	KindNotFoundOrNullBody
)

// Error is the type of all errors returned by this package. Use errors.Is with
// the Err* values to check the kind of failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindNotJSON:
		return "invalid JSON"
	case KindNotUTF8:
		return "UTF-8 error"
	case KindNetwork:
		return "network error: " + e.Message
	case KindSerialize:
		return "serialize error: " + e.Message
	case KindNotFoundOrNullBody:
		return "body is null or record is not found"
	default:
		return fmt.Sprintf("request error (kind %d): %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	return errors.As(target, &t) && t.Kind == e.Kind
}

var (
	ErrNotJSON            = &Error{Kind: KindNotJSON}
	ErrNotUTF8            = &Error{Kind: KindNotUTF8}
	ErrNetwork            = &Error{Kind: KindNetwork}
	ErrSerialize          = &Error{Kind: KindSerialize}
	ErrNotFoundOrNullBody = &Error{Kind: KindNotFoundOrNullBody}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

// GetJSON fetches url and decodes its JSON body into out.
func GetJSON(ctx context.Context, hc *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return newError(KindNetwork, err)
	}
	return do(hc, req, out)
}

// PostJSON sends in as the JSON body of a POST request to url and decodes the
// response's JSON body into out. If out is nil, the response body is ignored.
func PostJSON(ctx context.Context, hc *http.Client, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return newError(KindSerialize, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return newError(KindNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return do(hc, req, out)
}

func do(hc *http.Client, req *http.Request, out any) error {
	if hc == nil {
		hc = http.DefaultClient
	}
	req.Header.Set("Accept", "application/json")

	res, err := hc.Do(req)
	if err != nil {
		return newError(KindNetwork, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return &Error{Kind: KindNotFoundOrNullBody}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("unexpected status %s", res.Status)}
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return newError(KindNetwork, err)
	}
	if out == nil {
		return nil
	}

	return decode(data, out)
}

func decode(data []byte, out any) error {
	if !utf8.Valid(data) {
		return &Error{Kind: KindNotUTF8}
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return &Error{Kind: KindNotFoundOrNullBody}
	}

	if err := json.Unmarshal(data, out); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return &Error{Kind: KindNotJSON, Err: err}
		}
		return newError(KindSerialize, err)
	}
	return nil
}
