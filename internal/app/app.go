package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinydroplets/imagefetch/internal/config"
	"github.com/tinydroplets/imagefetch/internal/fetch"
	"github.com/tinydroplets/imagefetch/internal/resource"
	httptransport "github.com/tinydroplets/imagefetch/internal/transport/http"
	"github.com/tinydroplets/imagefetch/internal/whitelist"
)

func Run(ctx context.Context, cfg config.Config) error {
	holder := whitelist.NewHolder()

	var src whitelist.Source
	if len(cfg.Whitelist) > 0 {
		src = whitelist.NewStaticSource(cfg.Whitelist)
	} else {
		src = whitelist.NewFileSource(cfg.ConfigFile)
	}

	// The first load is synchronous and fatal: starting with an
	// unreadable whitelist would silently reject every request.
	wl, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load whitelist: %w", err)
	}
	holder.Set(wl)
	log.Printf("app: whitelist loaded: %d entries", len(wl.Entries))

	fetcher := fetch.New(fetch.Config{MaxBytes: cfg.MaxBytes, Timeout: cfg.Timeout})
	svc := resource.NewService(holder, fetcher)
	srv := httptransport.NewServer(svc, holder)

	g, ctx := errgroup.WithContext(ctx)

	// Env-pinned whitelists never change; only file-backed ones reload.
	if cfg.ReloadInterval > 0 && len(cfg.Whitelist) == 0 {
		reloadCfg := whitelist.ReloadConfig{
			Interval:       cfg.ReloadInterval,
			InitialBackoff: 10 * time.Second,
			MaxBackoff:     10 * time.Minute,
		}
		g.Go(func() error {
			return whitelist.Reload(ctx, reloadCfg, src, holder)
		})
	}

	g.Go(func() error {
		return httptransport.Run(ctx, cfg.HTTPAddr, srv.Handler())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("app: stopped with error: %v", err)
		return err
	}

	log.Printf("app: stopped gracefully")
	return nil
}
