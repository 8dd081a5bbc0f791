package main

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"kemdeholo/internal/adapters/observability"
	"kemdeholo/internal/adapters/siteapi"
	"kemdeholo/internal/shared"
	"kemdeholo/internal/site"
)

const visitTimeout = 30 * time.Second

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, "sitecheck")

	log.Info().
		Str("base", cfg.SiteBaseURL).
		Int("workers", cfg.Workers).
		Strs("pages", cfg.SitecheckPages).
		Msg("sitecheck starting")

	client, err := siteapi.New(cfg.SiteBaseURL, cfg.ClientRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize site client")
	}

	var failed atomic.Int32
	for _, name := range []string{site.HeaderFragment, site.FooterFragment} {
		if _, err := client.Fragment(ctx, name); err != nil {
			log.Error().Err(err).Str("fragment", name).Msg("fragment unavailable")
			failed.Add(1)
		}
	}

	sem := semaphore.NewWeighted(int64(max(cfg.Workers, 1)))
	var wg sync.WaitGroup

	for _, path := range cfg.SitecheckPages {
		path := path
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			vctx, cancel := context.WithTimeout(ctx, visitTimeout)
			defer cancel()
			l := log.With().Str("page", path).Logger()
			rep, err := visit(vctx, client, path, cfg.Location, l)
			if err != nil {
				failed.Add(1)
				l.Warn().Err(err).Strs("errors", rep.Errors).Msg("visit failed")
				return
			}
			ev := l.Info()
			if !rep.Header || len(rep.Errors) > 0 {
				failed.Add(1)
				ev = l.Warn()
			}
			ev.Bool("header", rep.Header).
				Bool("scrolled", rep.Scrolled).
				Bool("back_to_top", rep.BackToTop).
				Int("counters", rep.Counters).
				Strs("errors", rep.Errors).
				Msg("visit done")
		}()
	}

	wg.Wait()
	if n := failed.Load(); n > 0 {
		log.Error().Int32("failures", n).Msg("sitecheck failed")
		os.Exit(1)
	}
	log.Info().Msg("sitecheck completed")
}
