package transport

import (
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tmaxmax/serverevents/internal/parser"
)

// A Client streams frames from a single endpoint. Create one using a Builder.
// It is safe for concurrent use; every call to Stream opens its own connection.
type Client struct {
	url              *url.URL
	httpClient       *http.Client
	header           http.Header
	onRetry          backoff.Notify
	validator        ResponseValidator
	maxRetries       int
	reconnectionTime time.Duration
	lastEventID      string
	logger           *zap.Logger
	metrics          *Metrics
	secure           bool
}

// Secure reports whether the client was created with Builder.Build.
func (c *Client) Secure() bool {
	return c.secure
}

// Stream returns the sequence of frames received from the server. The connection is
// made when iteration starts and is closed when iteration stops, so the sequence
// can be abandoned at any point using break.
//
// Connection errors are delivered as items with a nil Frame. After a temporary
// error the connection is reattempted, for the number of times the Client is
// configured with, using an exponential backoff that starts from either the
// configured reconnection time or the retry value received from the server.
// The sequence ends when the server closes the connection, when an error is
// permanent or retries are exhausted, or when ctx is done. All errors are of type *Error.
func (c *Client) Stream(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		s := &stream{client: c, yield: yield, lastEventID: c.lastEventID}
		s.run(ctx)
	}
}

func (c *Client) newBackoff(ctx context.Context) (b backoff.BackOff, setRetry func(time.Duration)) {
	base := backoff.NewExponentialBackOff()
	base.InitialInterval = c.reconnectionTime
	base.MaxElapsedTime = 0
	b = backoff.WithContext(base, ctx)
	if c.maxRetries >= 0 {
		b = backoff.WithMaxRetries(b, uint64(c.maxRetries))
	}
	return b, func(d time.Duration) {
		base.InitialInterval = d
		b.Reset()
	}
}

// errStopped signals that the consumer stopped iterating.
var errStopped = errors.New("stream stopped by consumer")

type stream struct {
	client      *Client
	yield       func(Frame, error) bool
	lastEventID string
	stopped     bool
}

func (s *stream) emit(f Frame, err error) bool {
	if s.stopped {
		return false
	}
	if f != nil {
		s.client.metrics.frame(f)
	}
	if !s.yield(f, err) {
		s.stopped = true
	}
	return !s.stopped
}

func (s *stream) run(ctx context.Context) {
	c := s.client
	log := c.logger.With(zap.String("url", c.url.Redacted()), zap.Bool("secure", c.secure))

	if c.secure && c.url.Scheme != "https" {
		e := &Error{Reason: "unable to create request", Err: ErrInsecureURL}
		c.metrics.failure(e)
		s.emit(nil, e)
		return
	}

	b, setRetry := c.newBackoff(ctx)

	op := func() error {
		if s.stopped {
			return backoff.Permanent(errStopped)
		}

		c.metrics.attempt()
		log.Debug("connecting", zap.Bool("hasLastEventID", s.lastEventID != ""))

		req, err := s.newRequest(ctx)
		if err != nil {
			return s.fail(ctx, &Error{Req: req, Reason: "unable to create request", Err: err})
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			return s.fail(ctx, &Error{Req: req, Reason: "unable to execute request", Err: err})
		}
		defer res.Body.Close()

		if err := c.validator(res); err != nil {
			return s.fail(ctx, &Error{Req: req, Reason: "response validation failed", Err: err})
		}

		b.Reset()
		log.Debug("connected", zap.Int("status", res.StatusCode))

		if !s.emit(Connected{Status: res.StatusCode}, nil) {
			return backoff.Permanent(errStopped)
		}

		err = s.read(res.Body, setRetry)
		if s.stopped {
			return backoff.Permanent(errStopped)
		}
		if isSuccess(err) {
			return nil
		}
		return s.fail(ctx, &Error{Req: req, Reason: "reading response body failed", Err: err})
	}

	notify := func(err error, d time.Duration) {
		c.metrics.retry()
		log.Info("reconnecting", zap.Error(err), zap.Duration("delay", d))
		if c.onRetry != nil {
			c.onRetry(err, d)
		}
	}

	err := backoff.RetryNotify(op, b, notify)
	switch {
	case err == nil, errors.Is(err, errStopped):
		log.Debug("stream ended")
	case ctx.Err() != nil:
		log.Debug("stream canceled", zap.Error(err))
	default:
		log.Warn("stream gave up", zap.Error(err))
	}
}

// fail reports a connection error to the consumer and classifies it for the backoff.
func (s *stream) fail(ctx context.Context, e *Error) error {
	if ctx.Err() != nil {
		return backoff.Permanent(ctx.Err())
	}

	s.client.metrics.failure(e)
	if !s.emit(nil, e) {
		return backoff.Permanent(errStopped)
	}
	return e.toPermanent()
}

func (s *stream) newRequest(ctx context.Context) (*http.Request, error) {
	c := s.client

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url.String(), http.NoBody)
	if err != nil {
		return nil, err
	}
	for k, v := range c.header {
		req.Header[k] = append([]string(nil), v...)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if s.lastEventID != "" {
		req.Header.Set("Last-Event-ID", s.lastEventID)
	}

	return req, nil
}

func (s *stream) dispatch(typ string, data string) bool {
	if typ == "" {
		typ = DefaultEventType
	}
	return s.emit(Event{Type: typ, Data: data, LastEventID: s.lastEventID}, nil)
}

func (s *stream) read(r io.Reader, setRetry func(time.Duration)) error {
	p := parser.New(r)

	var (
		data    strings.Builder
		typ     string
		hasData bool
	)

	for f := (parser.Field{}); p.Next(&f); {
		switch f.Name {
		case parser.FieldNameData:
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(f.Value)
			hasData = true
		case parser.FieldNameEvent:
			typ = f.Value
		case parser.FieldNameID:
			// empty IDs are valid, only IDs that contain the null byte must be ignored:
			// https://html.spec.whatwg.org/multipage/server-sent-events.html#event-stream-interpretation
			if strings.IndexByte(f.Value, 0) != -1 {
				break
			}
			s.lastEventID = f.Value
		case parser.FieldNameRetry:
			n, err := strconv.ParseInt(f.Value, 10, 64)
			if err != nil {
				break
			}
			if n > 0 {
				setRetry(time.Duration(n) * time.Millisecond)
			}
		case parser.FieldNameComment:
			if !s.emit(Comment{Text: f.Value}, nil) {
				return errStopped
			}
		default:
			// Events without data fields are not dispatched.
			if hasData && !s.dispatch(typ, data.String()) {
				return errStopped
			}
			data.Reset()
			typ, hasData = "", false
		}
	}

	err := p.Err()
	if hasData && err == nil && !s.dispatch(typ, data.String()) {
		return errStopped
	}
	return err
}

func isSuccess(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, parser.ErrUnexpectedEOF)
}
