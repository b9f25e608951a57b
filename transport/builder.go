package transport

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// A Builder configures the clients created for a single endpoint.
// Unset fields are replaced with the values in DefaultBuilder when a client is built.
type Builder struct {
	url *url.URL

	// The HTTP client to be used. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Additional headers sent with every connection attempt.
	Header http.Header
	// A callback that's executed whenever a reconnection attempt is scheduled.
	OnRetry backoff.Notify
	// A function to check if the response from the server is valid.
	// Defaults to DefaultValidator.
	//
	// If the error type returned has a Temporary or a Timeout method,
	// they will be used to determine whether to reattempt the connection.
	// Otherwise, the error will be considered permanent and no reconnections
	// will be attempted.
	ResponseValidator ResponseValidator
	// The maximum number of reconnections to attempt when an error occurs.
	// If MaxRetries is negative (-1), infinite reconnection attempts will be done.
	// Defaults to 0 (no retries).
	//
	// This counter is reset if a reconnection attempt is successful.
	MaxRetries int
	// The initial reconnection delay. Subsequent reconnections use a longer
	// time. This can be overridden by retry values sent by the server.
	// Defaults to 5 seconds.
	ReconnectionTime time.Duration
	// The ID sent in the Last-Event-ID header of the first request.
	LastEventID string
	// Defaults to a no-op logger.
	Logger *zap.Logger
	// Optional. Collection is disabled if nil.
	Metrics *Metrics
}

// DefaultBuilder holds the values used for the fields a Builder leaves unset.
var DefaultBuilder = Builder{
	HTTPClient:        http.DefaultClient,
	ReconnectionTime:  time.Second * 5,
	ResponseValidator: DefaultValidator,
}

// ForURL creates a Builder for the given endpoint. It fails if the URL cannot
// be parsed or if its authority is malformed.
func ForURL(rawURL string) (*Builder, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidAuthority, rawURL)
	}
	if p := u.Port(); p != "" {
		if n, err := strconv.ParseUint(p, 10, 16); err != nil || n == 0 {
			return nil, fmt.Errorf("%w: bad port %q", ErrInvalidAuthority, p)
		}
	}

	return &Builder{url: u}, nil
}

// URL returns a copy of the endpoint the builder was created for.
func (b *Builder) URL() *url.URL {
	u := *b.url
	return &u
}

// Build creates a client that only connects over TLS. It refuses plaintext URLs
// and redirects that downgrade the connection to plaintext.
func (b *Builder) Build() *Client {
	c := b.newClient()
	c.secure = true
	c.httpClient = secureHTTPClient(c.httpClient)
	return c
}

// BuildInsecure creates a client that connects to the endpoint as given,
// without enforcing TLS.
func (b *Builder) BuildInsecure() *Client {
	return b.newClient()
}

func (b *Builder) newClient() *Client {
	m := *b // the config cannot be modified from outside after building
	mergeDefaults(&m)

	header := make(http.Header, len(m.Header))
	for k, v := range m.Header {
		header[k] = append([]string(nil), v...)
	}

	return &Client{
		url:              m.URL(),
		httpClient:       m.HTTPClient,
		header:           header,
		onRetry:          m.OnRetry,
		validator:        m.ResponseValidator,
		maxRetries:       m.MaxRetries,
		reconnectionTime: m.ReconnectionTime,
		lastEventID:      m.LastEventID,
		logger:           m.Logger,
		metrics:          m.Metrics,
	}
}

func mergeDefaults(b *Builder) {
	if b.HTTPClient == nil {
		b.HTTPClient = DefaultBuilder.HTTPClient
	}
	if b.MaxRetries == 0 {
		b.MaxRetries = DefaultBuilder.MaxRetries
	}
	if b.ReconnectionTime <= 0 {
		b.ReconnectionTime = DefaultBuilder.ReconnectionTime
	}
	if b.ResponseValidator == nil {
		b.ResponseValidator = DefaultBuilder.ResponseValidator
	}
	if b.Logger == nil {
		b.Logger = zap.NewNop()
	}
}

func secureHTTPClient(base *http.Client) *http.Client {
	hc := *base

	switch rt := hc.Transport.(type) {
	case nil:
		hc.Transport = withMinTLS(http.DefaultTransport.(*http.Transport).Clone())
	case *http.Transport:
		hc.Transport = withMinTLS(rt.Clone())
	}

	checkRedirect := base.CheckRedirect
	hc.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if req.URL.Scheme != "https" {
			return ErrInsecureURL
		}
		if checkRedirect != nil {
			return checkRedirect(req, via)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}

	return &hc
}

func withMinTLS(t *http.Transport) *http.Transport {
	if t.TLSClientConfig == nil {
		t.TLSClientConfig = &tls.Config{} //nolint:gosec // MinVersion is set below.
	}
	if t.TLSClientConfig.MinVersion < tls.VersionTLS12 {
		t.TLSClientConfig.MinVersion = tls.VersionTLS12
	}
	return t
}
