package whitelist

import (
	"sync/atomic"

	"github.com/tinydroplets/imagefetch/internal/domain"
)

// Holder keeps the current whitelist snapshot. Readers always see a
// complete immutable value; reloads swap the pointer atomically.
type Holder struct {
	value  atomic.Pointer[domain.Whitelist]
	loaded atomic.Bool
}

// NewHolder starts with an empty whitelist, which rejects every host
// until the first successful load.
func NewHolder() *Holder {
	h := &Holder{}
	h.value.Store(domain.NewWhitelist(nil))
	return h
}

func (h *Holder) Get() *domain.Whitelist {
	return h.value.Load()
}

func (h *Holder) Set(wl *domain.Whitelist) {
	h.value.Store(wl)
	h.loaded.Store(true)
}

// Loaded reports whether at least one Set happened. Used by readiness
// probes so the service does not report ready while still rejecting
// everything by default.
func (h *Holder) Loaded() bool {
	return h.loaded.Load()
}
