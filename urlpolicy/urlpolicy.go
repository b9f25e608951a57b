// Package urlpolicy checks that endpoint URLs are either secure or local.
package urlpolicy

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

var (
	// ErrNoPath is returned for URLs that have no hierarchical path, such as mailto:user@example.com.
	ErrNoPath = errors.New("URL path is missing")
	// ErrNotSecure is returned for URLs whose scheme is not https and whose host is not localhost.
	ErrNotSecure = errors.New("the URL protocol should be https")
)

// ParseError is returned when the URL cannot be parsed.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error while parsing the URL: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Check parses rawURL and accepts it if its scheme is https or if it points to the
// local machine (localhost, 127.0.0.1 or ::1), whatever its scheme.
func Check(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if u.Opaque != "" {
		return nil, ErrNoPath
	}
	if u.Scheme != "https" && !IsLocalhost(u) {
		return nil, ErrNotSecure
	}
	return u, nil
}

// IsLocalhost reports whether the URL's host is the domain localhost or
// a loopback address in its canonical form.
func IsLocalhost(u *url.URL) bool {
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}

	ip := net.ParseIP(host)
	return ip != nil && (ip.Equal(net.IPv4(127, 0, 0, 1)) || ip.Equal(net.IPv6loopback))
}
