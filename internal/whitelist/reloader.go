package whitelist

import (
	"context"
	"log"
	"math"
	"math/rand"
	"time"
)

// ReloadConfig controls the periodic refresh of the whitelist.
type ReloadConfig struct {
	Interval       time.Duration // base refresh interval
	InitialBackoff time.Duration // first retry delay after a failure
	MaxBackoff     time.Duration // retry delay cap
}

// Reload periodically re-reads the whitelist through src and swaps it
// into the holder, until the context stops. The caller is expected to
// have done one successful Load before serving; this loop only keeps the
// snapshot fresh.
func Reload(ctx context.Context, cfg ReloadConfig, src Source, holder *Holder) error {
	if cfg.Interval <= 0 {
		return nil // reload disabled
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 10 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 10 * time.Minute
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	var consecutiveFailures int

	for {
		select {
		case <-ctx.Done():
			log.Printf("whitelist: reloader stopped: %v", ctx.Err())
			return ctx.Err()

		case <-ticker.C:
			if err := reloadOnce(ctx, src, holder); err != nil {
				consecutiveFailures++
				backoff := calcBackoff(cfg.InitialBackoff, cfg.MaxBackoff, consecutiveFailures)

				log.Printf("whitelist: reload failed (attempt #%d), backoff=%s: %v",
					consecutiveFailures, backoff, err)

				timer := time.NewTimer(backoff)
				select {
				case <-ctx.Done():
					timer.Stop()
					log.Printf("whitelist: reloader stopped during backoff: %v", ctx.Err())
					return ctx.Err()
				case <-timer.C:
				}
				continue
			}

			if consecutiveFailures > 0 {
				log.Printf("whitelist: reload recovered after %d failures", consecutiveFailures)
			}
			consecutiveFailures = 0
		}
	}
}

func calcBackoff(initial, max time.Duration, failures int) time.Duration {
	pow := math.Pow(2, float64(failures-1))
	backoff := time.Duration(float64(initial) * pow)
	if backoff > max {
		backoff = max
	}

	// Jitter avoids synchronized retries across instances.
	jitterFrac := 0.2
	jitter := time.Duration(rand.Float64()*2*jitterFrac*float64(backoff)) -
		time.Duration(jitterFrac*float64(backoff))

	return backoff + jitter
}

func reloadOnce(ctx context.Context, src Source, holder *Holder) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	wl, err := src.Load(ctx)
	if err != nil {
		return err
	}

	old := holder.Get()
	holder.Set(wl)
	if len(wl.Entries) != len(old.Entries) {
		log.Printf("whitelist: reloaded: %d entries (was %d)", len(wl.Entries), len(old.Entries))
	}
	return nil
}
