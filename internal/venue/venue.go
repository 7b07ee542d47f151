package venue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"foresight/internal/market"
	"foresight/internal/metrics"
)

// FetchError reports a failed catalog fetch for one venue. Recovered locally
// by substituting an empty catalog; the pipeline never observes a partial
// venue outage as fatal.
type FetchError struct {
	Platform market.Platform
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s catalog: %v", e.Platform, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher returns the canonical markets currently listed on one venue.
type Fetcher interface {
	Platform() market.Platform
	Fetch(ctx context.Context, limit int) ([]market.Market, error)
}

// Service fans catalog fetches out across venues and merges the results.
type Service struct {
	fetchers []Fetcher
	cache    *Cache
	rec      *metrics.Recorder
}

func NewService(cache *Cache, rec *metrics.Recorder, fetchers ...Fetcher) *Service {
	return &Service{fetchers: fetchers, cache: cache, rec: rec}
}

// FetchAll fetches catalogs from every venue matching the platform filter
// ("kalshi", "polymarket", or "both"/"" for all). A failing venue contributes
// an empty catalog and a recorded FetchError; sibling venues are unaffected.
func (s *Service) FetchAll(ctx context.Context, platform string, limit int) ([]market.Market, []error) {
	var (
		mu      sync.Mutex
		markets []market.Market
		errs    []error
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range s.fetchers {
		if platform != "" && platform != "both" && string(f.Platform()) != platform {
			continue
		}
		f := f
		g.Go(func() error {
			fetched, err := f.Fetch(ctx, limit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, &FetchError{Platform: f.Platform(), Err: err})
				s.rec.RecordVenueFetchError(string(f.Platform()))
				slog.Warn("venue fetch failed, continuing with partial data",
					"platform", f.Platform(), "error", err)
				return nil
			}
			markets = append(markets, fetched...)
			return nil
		})
	}
	_ = g.Wait() // Per-venue errors are accumulated, never returned.

	if s.cache != nil {
		s.cache.SetAll(markets)
	}

	slog.Info("venue catalogs fetched",
		"platform", platform, "markets", len(markets), "failed_venues", len(errs))
	return markets, errs
}

// Cached returns the most recent non-expired catalog, or nil when stale.
func (s *Service) Cached() []market.Market {
	if s.cache == nil {
		return nil
	}
	return s.cache.All()
}
