package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects limits how many redirects a single request may follow.
const maxRedirects = 10

// NewHTTPClient creates an HTTP client for archival fetches. When
// proxyAddress is non-empty all connections are dialed through the
// SOCKS5 proxy at that address, which must be of the form "host:port".
func NewHTTPClient(timeout time.Duration, proxyAddress string) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,
	}

	if proxyAddress != "" {
		if !isValidProxyAddress(proxyAddress) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidProxyAddress, proxyAddress)
		}
		dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// WithSiteHeaders returns a copy of client whose transport injects the
// given cookie header and custom headers into every outgoing request.
// Explicit request headers are never overwritten.
func WithSiteHeaders(client *http.Client, cookie string, headers map[string]string) *http.Client {
	if cookie == "" && len(headers) == 0 {
		return client
	}
	clone := *client
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	clone.Transport = &headerInjectingTransport{
		base:    base,
		cookie:  cookie,
		headers: headers,
	}
	return &clone
}

// headerInjectingTransport decorates a transport with per-site headers
// configured for the target host.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip clones the request and applies the configured headers before
// delegating to the base transport. The clone keeps the transport safe
// for concurrent use.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.cookie != "" {
		clone.Header.Add("Cookie", t.cookie)
	}
	for key, value := range t.headers {
		if clone.Header.Get(key) == "" {
			clone.Header.Set(key, value)
		}
	}
	return t.base.RoundTrip(clone)
}

// isValidProxyAddress reports whether addr looks like "host:port" with a
// numeric port.
func isValidProxyAddress(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" || port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
