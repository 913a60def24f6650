package whitelist

import (
	"sync"
	"testing"

	"github.com/tinydroplets/imagefetch/internal/domain"
)

func TestHolder_GetSet(t *testing.T) {
	h := NewHolder()

	initial := h.Get()
	if initial == nil {
		t.Fatal("expected non-nil Whitelist from NewHolder")
	}
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty initial whitelist, got %d entries", len(initial.Entries))
	}
	if h.Loaded() {
		t.Fatal("holder must not report loaded before the first Set")
	}

	wl := Compile([]string{"example.com"})
	h.Set(wl)

	got := h.Get()
	if len(got.Entries) != 1 || got.Entries[0].Host != "example.com" {
		t.Fatalf("expected whitelist with example.com, got %+v", got.Entries)
	}
	if !h.Loaded() {
		t.Fatal("holder must report loaded after Set")
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	h := NewHolder()
	var wg sync.WaitGroup

	// writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			h.Set(Compile([]string{"example.com"}))
		}
	}()

	// readers
	for r := 0; r < 10; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				wl := h.Get()
				if _, err := domain.IsAllowed("sub.example.com", wl); err != nil {
					t.Errorf("IsAllowed error: %v", err)
					return
				}
			}
		}()
	}

	wg.Wait()
}
