package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"valomaison/internal/domain"
)

// RefreshService recomputes per-area statistics from fresh transactions and
// stores them for the pre-aggregated provider. Fetching through the shared
// cache also warms it for request handling.
type RefreshService struct {
	txs   *CachedTransactions
	geo   domain.Geocoder
	store domain.AreaStatsWriter
	now   func() time.Time
}

func NewRefreshService(txs *CachedTransactions, g domain.Geocoder, store domain.AreaStatsWriter) *RefreshService {
	return &RefreshService{txs: txs, geo: g, store: store, now: time.Now}
}

type RefreshSummary struct {
	Processed int64
	Updated   int64
	Errors    int64
}

// RefreshArea fetches areaCode again, bypassing any cached copy, and upserts
// its statistics. Areas without usable sales are left untouched.
func (s *RefreshService) RefreshArea(ctx context.Context, areaCode string) (bool, error) {
	if err := s.txs.Invalidate(ctx, areaCode); err != nil {
		log.Warn().Err(err).Str("area", areaCode).Msg("cache invalidation failed")
	}
	txs, err := s.txs.Transactions(ctx, areaCode)
	if err != nil {
		return false, fmt.Errorf("fetch %s: %w", areaCode, err)
	}

	if s.geo != nil {
		c, ok, gerr := s.geo.Locate(ctx, areaCode)
		switch {
		case gerr != nil:
			log.Warn().Err(gerr).Str("area", areaCode).Msg("locate failed, keeping stored coordinates")
		case ok:
			if err := s.store.UpsertArea(ctx, areaCode, &c); err != nil {
				return false, fmt.Errorf("upsert area %s: %w", areaCode, err)
			}
		default:
			if err := s.store.UpsertArea(ctx, areaCode, nil); err != nil {
				return false, fmt.Errorf("upsert area %s: %w", areaCode, err)
			}
		}
	}

	stats := StatsByType(txs)
	if stats.Global.Count == 0 {
		return false, nil
	}
	sum := domain.AreaSummary{AreaCode: areaCode, Stats: stats, UpdatedAt: s.now().UTC()}
	if err := s.store.UpsertAreaStats(ctx, sum); err != nil {
		return false, fmt.Errorf("upsert stats %s: %w", areaCode, err)
	}
	return true, nil
}

// RefreshAll refreshes every area with at most workers in flight. Per-area
// failures are logged and counted, never fatal.
func (s *RefreshService) RefreshAll(ctx context.Context, areaCodes []string, workers int) (RefreshSummary, error) {
	if workers <= 0 {
		workers = 1
	}
	var sum RefreshSummary
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup

	for _, code := range areaCodes {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return sum, err
		}
		wg.Add(1)
		go func(areaCode string) {
			defer wg.Done()
			defer sem.Release(1)

			atomic.AddInt64(&sum.Processed, 1)
			updated, err := s.RefreshArea(ctx, areaCode)
			switch {
			case err != nil:
				atomic.AddInt64(&sum.Errors, 1)
				log.Warn().Str("area", areaCode).Err(err).Msg("refresh failed")
			case updated:
				atomic.AddInt64(&sum.Updated, 1)
				log.Debug().Str("area", areaCode).Msg("refresh ok")
			default:
				log.Debug().Str("area", areaCode).Msg("no usable sales")
			}
		}(code)
	}

	wg.Wait()
	return sum, nil
}
