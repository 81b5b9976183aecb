package redisad_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	redisad "valomaison/internal/adapters/redis"
	"valomaison/internal/domain"
)

func newCache(t *testing.T) (*redisad.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestCache_SetGetDel(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var got []domain.Transaction
	ok, err := c.Get(ctx, "dvf:75001", &got)
	require.NoError(t, err)
	assert.False(t, ok, "expected miss on empty cache")

	in := []domain.Transaction{{AreaCode: "75001", TypeLabel: "Appartement", BuiltArea: 40, Price: 400000}}
	require.NoError(t, c.Set(ctx, "dvf:75001", in, 60))

	ok, err = c.Get(ctx, "dvf:75001", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in[0].Price, got[0].Price)
	assert.Equal(t, in[0].TypeLabel, got[0].TypeLabel)

	require.NoError(t, c.Del(ctx, "dvf:75001"))
	ok, err = c.Get(ctx, "dvf:75001", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_TTLExpires(t *testing.T) {
	c, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "geo:nearby:23000:15", []string{"23000", "23160"}, 10))
	mr.FastForward(11 * time.Second)

	var got []string
	ok, err := c.Get(ctx, "geo:nearby:23000:15", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_ConcurrentOverwrite(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "geo:nearby:69001:30", []string{"69001", "69002"}, 0)
		}()
	}
	wg.Wait()

	var got []string
	ok, err := c.Get(ctx, "geo:nearby:69001:30", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"69001", "69002"}, got)
}
