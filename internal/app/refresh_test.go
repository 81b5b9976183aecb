package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valomaison/internal/app"
	"valomaison/internal/domain"
)

func TestCachedTransactions_ReadThrough(t *testing.T) {
	src := newTxSource()
	src.txs["13001"] = sales("13001", domain.Apartment, 3, 4200)
	cache := newMemCache()
	ct := app.NewCachedTransactions(src, cache, time.Hour)
	ctx := context.Background()

	first, err := ct.Transactions(ctx, "13001")
	require.NoError(t, err)
	second, err := ct.Transactions(ctx, "13001")
	require.NoError(t, err)
	assert.Len(t, second, 3)
	assert.Equal(t, first[0].Price, second[0].Price)
	assert.Equal(t, 1, src.callsFor("13001"))

	require.NoError(t, ct.Invalidate(ctx, "13001"))
	_, err = ct.Transactions(ctx, "13001")
	require.NoError(t, err)
	assert.Equal(t, 2, src.callsFor("13001"))
}

func TestCachedTransactions_FailuresAreNotCached(t *testing.T) {
	src := newTxSource()
	src.errs["13001"] = errUpstream
	cache := newMemCache()
	ct := app.NewCachedTransactions(src, cache, time.Hour)

	_, err := ct.Transactions(context.Background(), "13001")
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
	assert.False(t, cache.has("dvf:13001"))
}

func TestRefreshAll_UpsertsAreasWithSales(t *testing.T) {
	src := newTxSource()
	src.txs["33000"] = append(sales("33000", domain.Apartment, 5, 4800), sales("33000", domain.House, 2, 4000)...)
	src.txs["33100"] = sales("33100", domain.House, 3, 3900)
	src.errs["33400"] = errBoom
	// 33700 has no sales

	g := bordeauxGeo()
	w := newWriter()
	svc := app.NewRefreshService(app.NewCachedTransactions(src, newMemCache(), time.Hour), g, w)

	sum, err := svc.RefreshAll(context.Background(), []string{"33000", "33100", "33400", "33700"}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Processed)
	assert.Equal(t, int64(2), sum.Updated)
	assert.Equal(t, int64(1), sum.Errors)

	require.Contains(t, w.stats, "33000")
	got := w.stats["33000"].Stats
	assert.Equal(t, 5, got.Apartment.Count)
	assert.Equal(t, 2, got.House.Count)
	assert.Equal(t, 7, got.Global.Count)
	assert.False(t, w.stats["33000"].UpdatedAt.IsZero())
	assert.NotContains(t, w.stats, "33700")

	require.Contains(t, w.areas, "33000")
	assert.InDelta(t, 44.8378, w.areas["33000"].Lat, 1e-9)
	// located but unknown: recorded without coordinates
	require.Contains(t, w.areas, "33100")
	assert.Nil(t, w.areas["33100"])
}

func TestRefreshArea_BypassesCachedCopy(t *testing.T) {
	src := newTxSource()
	src.txs["33000"] = sales("33000", domain.Apartment, 2, 4000)
	ct := app.NewCachedTransactions(src, newMemCache(), time.Hour)
	ctx := context.Background()
	_, err := ct.Transactions(ctx, "33000")
	require.NoError(t, err)

	src.mu.Lock()
	src.txs["33000"] = sales("33000", domain.Apartment, 4, 4000)
	src.mu.Unlock()

	w := newWriter()
	ok, err := app.NewRefreshService(ct, nil, w).RefreshArea(ctx, "33000")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 4, w.stats["33000"].Stats.Global.Count)
	assert.Empty(t, w.areas, "no geocoder, no area upsert")
}
