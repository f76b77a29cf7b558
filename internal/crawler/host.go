package crawler

import (
	"fmt"
	"net/url"
)

var _ HostResolver = (*URLHostResolver)(nil)

// HostResolver resolves the host of an url. The host is used as the key of the per-host download throttle.
type HostResolver interface {
	Host(rawURL string) (string, error)
}

// HostResolverFunc is an adapter to use a function as a HostResolver.
type HostResolverFunc func(rawURL string) (string, error)

// Host resolves the host of an url.
func (f HostResolverFunc) Host(rawURL string) (string, error) {
	return f(rawURL)
}

// URLHostResolver resolves hosts by parsing absolute http and https urls.
type URLHostResolver struct{}

// Host returns the host (with port, if any) of an absolute http or https url.
func (URLHostResolver) Host(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMalformedURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q in %q", ErrMalformedURL, u.Scheme, rawURL)
	}

	if u.Host == "" {
		return "", fmt.Errorf("%w: missing hostname in %q", ErrMalformedURL, rawURL)
	}

	return u.Host, nil
}
