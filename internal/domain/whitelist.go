package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidHost is returned when a candidate host cannot be parsed.
var ErrInvalidHost = errors.New("invalid host")

// Scheme prepended to relative patterns before host extraction.
const defaultScheme = "http"

// CompileEntry turns a raw pattern into a compiled Entry. A pattern with a
// scheme is Absolute and its host is taken directly; anything else is
// Relative — leading '.' and '/' runes are stripped and a default scheme is
// prepended before parsing.
func CompileEntry(pattern string) (Entry, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return Entry{}, fmt.Errorf("empty pattern")
	}

	kind := Relative
	rebased := p
	if strings.Contains(p, "://") {
		kind = Absolute
	} else {
		rebased = strings.TrimLeft(p, "./")
		if rebased == "" {
			return Entry{}, fmt.Errorf("pattern %q has no host", pattern)
		}
		rebased = defaultScheme + "://" + rebased
	}

	u, err := url.Parse(rebased)
	if err != nil {
		return Entry{}, fmt.Errorf("parse pattern %q: %w", pattern, err)
	}
	if u.Host == "" {
		return Entry{}, fmt.Errorf("pattern %q has no host", pattern)
	}

	host, err := NormalizeHost(u.Host)
	if err != nil {
		return Entry{}, fmt.Errorf("pattern %q: %w", pattern, err)
	}

	return Entry{Kind: kind, Pattern: p, Host: host}, nil
}

// IsAllowed reports whether the candidate host is matched by the whitelist.
// The candidate matches an entry when its normalized form starts with or
// ends with the entry host. The first match wins; no match means rejected,
// so a nil or empty whitelist rejects everything.
//
// NOTE: the suffix check is not anchored at a label boundary, so the entry
// "example.com" also admits hosts like "notexample.com". Deployed
// whitelists depend on this permissive match; do not tighten it without a
// config migration.
func IsAllowed(candidate string, wl *Whitelist) (bool, error) {
	host, err := NormalizeHost(candidate)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHost, err)
	}

	if wl == nil {
		return false, nil
	}

	for _, e := range wl.Entries {
		if strings.HasPrefix(host, e.Host) || strings.HasSuffix(host, e.Host) {
			return true, nil
		}
	}

	return false, nil
}
