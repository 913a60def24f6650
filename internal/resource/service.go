package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tinydroplets/imagefetch/internal/domain"
	"github.com/tinydroplets/imagefetch/internal/fetch"
)

var (
	// ErrMalformedInput — the identifier is not an absolute URL.
	ErrMalformedInput = errors.New("malformed resource identifier")
	// ErrNotAllowed — the host is not matched by the whitelist.
	ErrNotAllowed = errors.New("host is not whitelisted")
)

const maxIdentifierLen = 2048

// Snapshot yields the whitelist to validate against. Each request reads
// one consistent snapshot; swaps between requests are invisible to them.
type Snapshot interface {
	Get() *domain.Whitelist
}

// Service resolves an identifier to the raw bytes of a remote resource:
// parse, validate the host, then fetch. Validation always completes
// before any network call is issued — a rejected request never opens a
// socket, so the identifier cannot be used as a network probe.
type Service struct {
	whitelist Snapshot
	fetcher   fetch.Fetcher
}

func NewService(whitelist Snapshot, fetcher fetch.Fetcher) *Service {
	return &Service{whitelist: whitelist, fetcher: fetcher}
}

// Get downloads the resource named by identifier. Errors are inspectable
// with errors.Is / errors.As: ErrMalformedInput, ErrNotAllowed,
// fetch.ErrTimeout, fetch.ErrSizeLimit, *fetch.NetworkError. No retries
// happen here; that is the caller's call.
func (s *Service) Get(ctx context.Context, identifier string) ([]byte, error) {
	raw := strings.TrimSpace(identifier)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrMalformedInput)
	}
	if len(raw) > maxIdentifierLen {
		return nil, fmt.Errorf("%w: identifier longer than %d bytes", ErrMalformedInput, maxIdentifierLen)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: identifier must be an absolute url", ErrMalformedInput)
	}

	ok, err := domain.IsAllowed(u.Host, s.whitelist.Get())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAllowed, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAllowed, u.Hostname())
	}

	return s.fetcher.Fetch(ctx, u)
}
