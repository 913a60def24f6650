package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultMaxBytes caps response bodies at 4 MiB unless configured.
	DefaultMaxBytes int64 = 4 * 1024 * 1024
	// DefaultTimeout bounds the whole GET, measured from request start.
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrSizeLimit — the response body exceeds the configured maximum.
	ErrSizeLimit = errors.New("response body exceeds size limit")
	// ErrTimeout — the deadline elapsed before the response completed.
	ErrTimeout = errors.New("fetch deadline exceeded")
)

// NetworkError wraps transport-level failures: DNS, connect, TLS,
// protocol errors and unexpected statuses.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// Config bounds a single fetch. Zero values fall back to the defaults.
// A Config is constructed once per service instance and never mutated.
type Config struct {
	MaxBytes int64
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxBytes <= 0 {
		c.MaxBytes = DefaultMaxBytes
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Doer issues a single HTTP request. *http.Client satisfies it; tests
// substitute fakes.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads one remote resource into memory.
type Fetcher interface {
	Fetch(ctx context.Context, u *url.URL) ([]byte, error)
}

// HTTPFetcher implements Fetcher over an HTTP client, enforcing the
// size and deadline bounds from its Config.
type HTTPFetcher struct {
	client Doer
	cfg    Config
}

// New builds an HTTPFetcher with a hardened client suitable for
// untrusted upstream content.
func New(cfg Config) *HTTPFetcher {
	return NewWithClient(cfg, &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 15 * time.Second,
			IdleConnTimeout:       90 * time.Second,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   5,
		},
	})
}

// NewWithClient builds an HTTPFetcher around the given client.
func NewWithClient(cfg Config, client Doer) *HTTPFetcher {
	return &HTTPFetcher{client: client, cfg: cfg.withDefaults()}
}

// Fetch issues one GET to u and returns the body bytes. The deadline is
// cfg.Timeout from request start; the body may not exceed cfg.MaxBytes.
// A response without a body yields an empty slice, which is a success.
// The underlying connection is released on every exit path.
func (f *HTTPFetcher) Fetch(ctx context.Context, u *url.URL) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &NetworkError{Err: fmt.Errorf("unexpected status: %s", resp.Status)}
	}

	// When the server declares the length, reject oversized payloads
	// before reading a single byte.
	if resp.ContentLength > f.cfg.MaxBytes {
		return nil, ErrSizeLimit
	}

	// Read one byte past the limit to tell "exactly at the limit" from
	// "over the limit".
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBytes+1))
	if err != nil {
		return nil, classify(err)
	}
	if int64(len(data)) > f.cfg.MaxBytes {
		return nil, ErrSizeLimit
	}

	return data, nil
}

// classify maps a transport error to the fetch error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return &NetworkError{Err: err}
}
