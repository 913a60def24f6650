package domain

// EntryKind tells how a whitelist pattern is interpreted before its host
// is extracted.
type EntryKind int

const (
	// Absolute — the pattern carries its own scheme, e.g. "http://example.com".
	Absolute EntryKind = iota
	// Relative — a bare or dotted/slashed fragment, e.g. ".example.com" or
	// "/cdn.example.com"; a default scheme is prepended before parsing.
	Relative
)

// Entry — one compiled whitelist pattern. The host is extracted and
// normalized once at compile time so match time is pure string compares.
type Entry struct {
	Kind    EntryKind
	Pattern string // pattern as configured, kept for logging
	Host    string // normalized host extracted from the pattern
}

// Whitelist — an immutable ordered set of compiled entries. It is never
// mutated after construction; concurrent readers need no locking.
// An empty whitelist rejects every host.
type Whitelist struct {
	Entries []Entry
}

// NewWhitelist wraps compiled entries into a whitelist.
func NewWhitelist(entries []Entry) *Whitelist {
	return &Whitelist{Entries: entries}
}
