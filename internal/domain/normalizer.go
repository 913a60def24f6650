package domain

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// NormalizeHost brings a raw host (optionally with port, userinfo or
// IPv6 brackets) to a canonical lowercase form so that whitelist entries
// and candidate hosts compare case-insensitively.
func NormalizeHost(raw string) (string, error) {
	hostport := strings.TrimSpace(raw)
	if hostport == "" {
		return "", fmt.Errorf("empty host")
	}

	// Strip userinfo if present: user:pass@host.
	if at := strings.LastIndexByte(hostport, '@'); at != -1 {
		hostport = hostport[at+1:]
	}

	host := hostport

	// Best-effort host:port split. Works for both IPv4 and IPv6 with brackets.
	if strings.Contains(hostport, ":") {
		if h, _, err := net.SplitHostPort(hostport); err == nil {
			host = h
		}
	}

	host = strings.TrimSpace(host)

	// Drop trailing dot: "example.com." → "example.com".
	host = strings.TrimSuffix(host, ".")

	// IPv6 literals come wrapped in brackets: "[2001:db8::1]".
	if len(host) > 2 && host[0] == '[' && host[len(host)-1] == ']' {
		host = host[1 : len(host)-1]
	}

	if host == "" {
		return "", fmt.Errorf("empty host")
	}

	// If it's an IP, let the stdlib normalize it.
	if ip := net.ParseIP(host); ip != nil {
		return ip.String(), nil
	}

	// ASCII-only host: lowercase in place and skip IDNA.
	if isASCII(host) {
		b := []byte(host)
		for i := 0; i < len(b); i++ {
			c := b[i]
			if c >= 'A' && c <= 'Z' {
				b[i] = c + 32
			}
		}
		return string(b), nil
	}

	// Non-ASCII: delegate to IDNA and then lowercase.
	asciiHost, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("idna: %w", err)
	}
	return strings.ToLower(asciiHost), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
