package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"valomaison/internal/domain"
)

// ---- fakes ----

type memCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemCache() *memCache { return &memCache{store: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	b, ok := c.store[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.store[key] = b
	c.mu.Unlock()
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.store, key)
	c.mu.Unlock()
	return nil
}

func (c *memCache) Close() error { return nil }

// putRaw stores bytes as-is, bypassing encoding.
func (c *memCache) putRaw(key, raw string) {
	c.mu.Lock()
	c.store[key] = []byte(raw)
	c.mu.Unlock()
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}

type fakeTxSource struct {
	mu    sync.Mutex
	txs   map[string][]domain.Transaction
	errs  map[string]error
	calls map[string]int
}

func newTxSource() *fakeTxSource {
	return &fakeTxSource{txs: map[string][]domain.Transaction{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (f *fakeTxSource) Transactions(ctx context.Context, code string) ([]domain.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[code]++
	if err := f.errs[code]; err != nil {
		return nil, err
	}
	return f.txs[code], nil
}

func (f *fakeTxSource) callsFor(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[code]
}

type fakeStatsSource struct {
	areas map[string]domain.AreaSummary
	errs  map[string]error
}

func (f *fakeStatsSource) AreaSummary(ctx context.Context, code string) (domain.AreaSummary, bool, error) {
	if err := f.errs[code]; err != nil {
		return domain.AreaSummary{}, false, err
	}
	s, ok := f.areas[code]
	return s, ok, nil
}

// fakeGeo answers Nearby from a fixed table keyed by radius.
type fakeGeo struct {
	mu        sync.Mutex
	centres   map[string]domain.Coords
	byRadius  map[int][]domain.AreaPoint
	nearbyErr error
	locates   int
	nearbys   int
}

func (g *fakeGeo) Locate(ctx context.Context, code string) (domain.Coords, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locates++
	c, ok := g.centres[code]
	return c, ok, nil
}

func (g *fakeGeo) Nearby(ctx context.Context, center domain.Coords, radiusKm int) ([]domain.AreaPoint, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nearbys++
	if g.nearbyErr != nil {
		return nil, g.nearbyErr
	}
	return g.byRadius[radiusKm], nil
}

func (g *fakeGeo) nearbyCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.nearbys
}

type fakeWriter struct {
	mu    sync.Mutex
	stats map[string]domain.AreaSummary
	areas map[string]*domain.Coords
}

func newWriter() *fakeWriter {
	return &fakeWriter{stats: map[string]domain.AreaSummary{}, areas: map[string]*domain.Coords{}}
}

func (w *fakeWriter) UpsertAreaStats(ctx context.Context, s domain.AreaSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats[s.AreaCode] = s
	return nil
}

func (w *fakeWriter) UpsertArea(ctx context.Context, code string, c *domain.Coords) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.areas[code] = c
	return nil
}

var errUpstream = fmt.Errorf("%w: dvf: remote 503", domain.ErrDataUnavailable)

var errBoom = errors.New("boom")

// ---- builders ----

// sales returns n usable sales of kind in code, all at pricePerArea.
func sales(code string, kind domain.PropertyType, n int, pricePerArea float64) []domain.Transaction {
	out := make([]domain.Transaction, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Transaction{
			AreaCode:  code,
			Date:      time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
			TypeLabel: string(kind),
			BuiltArea: 50,
			Price:     pricePerArea * 50,
		})
	}
	return out
}

func pt(code string, lat, lon float64) domain.AreaPoint {
	return domain.AreaPoint{AreaCode: code, Coords: &domain.Coords{Lat: lat, Lon: lon}}
}

func iptr(v int) *int         { return &v }
func fptr(v float64) *float64 { return &v }
