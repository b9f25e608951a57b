package serverevents

import (
	"fmt"
	"net/url"
)

// Scheme is the transport variant a Session connects with.
type Scheme int

const (
	// SchemeSecure connects over TLS. It is used for https URLs.
	SchemeSecure Scheme = iota + 1
	// SchemePlaintext connects without TLS. It is used for http URLs.
	SchemePlaintext
)

func (s Scheme) String() string {
	switch s {
	case SchemeSecure:
		return "secure"
	case SchemePlaintext:
		return "plaintext"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

func resolveScheme(rawURL string) (Scheme, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, err
	}

	switch u.Scheme {
	case "https":
		return SchemeSecure, nil
	case "http":
		return SchemePlaintext, nil
	default:
		return 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}
