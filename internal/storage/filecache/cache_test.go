package filecache_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valomaison/internal/storage/filecache"
)

func TestCache_FlushAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "dvf_cache.json")
	ctx := context.Background()

	c, err := filecache.Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "geo:nearby:33000:15", []string{"33000", "33100"}, 0))
	require.NoError(t, c.Close())

	reopened, err := filecache.Open(path)
	require.NoError(t, err)
	var got []string
	ok, err := reopened.Get(ctx, "geo:nearby:33000:15", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"33000", "33100"}, got)
}

func TestCache_DelIsPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	ctx := context.Background()

	c, err := filecache.Open(path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", 1, 0))
	require.NoError(t, c.Flush())
	require.NoError(t, c.Del(ctx, "k"))
	require.NoError(t, c.Flush())

	reopened, err := filecache.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, reopened.Len())
}

func TestCache_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	c, err := filecache.Open(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ConcurrentReadWrite(t *testing.T) {
	c, err := filecache.Open(filepath.Join(t.TempDir(), "c.json"))
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = c.Set(ctx, "dvf:13001", []int{1, 2, 3}, 0)
		}()
		go func() {
			defer wg.Done()
			var v []int
			_, _ = c.Get(ctx, "dvf:13001", &v)
		}()
	}
	wg.Wait()

	var v []int
	ok, err := c.Get(ctx, "dvf:13001", &v)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3}, v)
}
