package serverevents

import (
	"context"
	"iter"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tmaxmax/serverevents/transport"
)

// A Session is a single-use handle for an event stream. It is created for
// an endpoint by New and is started by either Listen or Stream. Once started,
// a Session cannot be started again; create a new one to reconnect.
type Session struct {
	builder  *transport.Builder
	scheme   Scheme
	logger   *zap.Logger
	consumed atomic.Bool
}

// An Option configures the connection a Session makes.
type Option func(*config)

type config struct {
	logger    *zap.Logger
	configure []func(*transport.Builder)
}

func transportOption(fn func(*transport.Builder)) Option {
	return func(c *config) {
		c.configure = append(c.configure, fn)
	}
}

// WithLogger sets the logger used by the session and its transport.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient sets the HTTP client used to connect. For https endpoints the client's
// transport is cloned and restricted to TLS 1.2 or newer.
func WithHTTPClient(hc *http.Client) Option {
	return transportOption(func(b *transport.Builder) { b.HTTPClient = hc })
}

// WithHeader adds headers to every connection attempt.
func WithHeader(h http.Header) Option {
	return transportOption(func(b *transport.Builder) { b.Header = h })
}

// WithMaxRetries sets how many times a failed connection is reattempted.
// A negative value retries forever.
func WithMaxRetries(n int) Option {
	return transportOption(func(b *transport.Builder) { b.MaxRetries = n })
}

// WithReconnectionTime sets the initial delay before a reconnection.
func WithReconnectionTime(d time.Duration) Option {
	return transportOption(func(b *transport.Builder) { b.ReconnectionTime = d })
}

// WithLastEventID resumes the stream after the event with the given ID.
func WithLastEventID(id string) Option {
	return transportOption(func(b *transport.Builder) { b.LastEventID = id })
}

// WithResponseValidator replaces transport.DefaultValidator.
func WithResponseValidator(v transport.ResponseValidator) Option {
	return transportOption(func(b *transport.Builder) { b.ResponseValidator = v })
}

// WithOnRetry sets a callback that is executed whenever a reconnection is scheduled.
func WithOnRetry(fn backoff.Notify) Option {
	return transportOption(func(b *transport.Builder) { b.OnRetry = fn })
}

// WithMetrics enables the transport's Prometheus metrics.
func WithMetrics(m *transport.Metrics) Option {
	return transportOption(func(b *transport.Builder) { b.Metrics = m })
}

// New creates a Session for the given URL. The URL's scheme must be either
// https, for which the connection is made over TLS, or http.
//
// If the URL cannot be parsed, has any other scheme, or has a malformed
// authority, New returns ErrInvalidEndpoint. No connection is made until
// the Session is started.
func New(rawURL string, opts ...Option) (*Session, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	scheme, err := resolveScheme(rawURL)
	if err != nil {
		cfg.logger.Debug("endpoint rejected", zap.Error(err))
		return nil, ErrInvalidEndpoint
	}

	b, err := transport.ForURL(rawURL)
	if err != nil {
		cfg.logger.Debug("endpoint rejected", zap.Error(err))
		return nil, ErrInvalidEndpoint
	}

	for _, fn := range cfg.configure {
		fn(b)
	}
	b.Logger = cfg.logger

	return &Session{
		builder: b,
		scheme:  scheme,
		logger:  cfg.logger.With(zap.String("url", b.URL().Redacted()), zap.Stringer("scheme", scheme)),
	}, nil
}

// Scheme returns the transport variant the session connects with.
func (s *Session) Scheme() Scheme {
	return s.scheme
}

func (s *Session) client() *transport.Client {
	switch s.scheme {
	case SchemeSecure:
		return s.builder.Build()
	case SchemePlaintext:
		return s.builder.BuildInsecure()
	default:
		panic("serverevents: session has no scheme")
	}
}

func (s *Session) events(ctx context.Context, keepAliveFriendly bool) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		s.logger.Debug("stream started", zap.Bool("keepAliveFriendly", keepAliveFriendly))
		defer s.logger.Debug("stream finished")

		for frame, err := range s.client().Stream(ctx) {
			ev, err, ok := Normalize(frame, err, keepAliveFriendly)
			if ok && !yield(ev, err) {
				return
			}
		}
	}
}

// Listen starts the session and calls onEvent for every event and onError for every
// connection error, in the order they are received. It returns once the stream ends:
// when the server closes the connection, when the transport gives up reconnecting,
// or when ctx is done. The callbacks are called from the goroutine that called Listen.
//
// Listen returns ErrSessionConsumed if the session was already started and ctx's
// error if the stream ended because ctx is done.
func (s *Session) Listen(ctx context.Context, onEvent func(Event), onError func(error), keepAliveFriendly bool) error {
	if !s.consumed.CompareAndSwap(false, true) {
		return ErrSessionConsumed
	}

	for ev, err := range s.events(ctx, keepAliveFriendly) {
		if err != nil {
			if onError != nil {
				onError(err)
			}
			continue
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}

	return ctx.Err()
}

// Stream starts the session and returns its events as a lazy sequence. The
// connection is made when iteration begins and each step blocks until the next
// event or error arrives. The sequence may never end; stopping the iteration
// closes the connection.
//
// Connection errors are delivered as *StreamError values and do not end the
// sequence by themselves. The sequence can be iterated only once: subsequent
// iterations, and sequences returned by calling Stream again, yield a single
// ErrSessionConsumed.
func (s *Session) Stream(ctx context.Context, keepAliveFriendly bool) iter.Seq2[Event, error] {
	if !s.consumed.CompareAndSwap(false, true) {
		return consumed
	}

	var started atomic.Bool
	events := s.events(ctx, keepAliveFriendly)

	return func(yield func(Event, error) bool) {
		if !started.CompareAndSwap(false, true) {
			yield(Event{}, ErrSessionConsumed)
			return
		}
		events(yield)
	}
}

func consumed(yield func(Event, error) bool) {
	yield(Event{}, ErrSessionConsumed)
}
