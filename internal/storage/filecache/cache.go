// Package filecache is a Cache kept in memory and persisted as one JSON file.
// It is meant for single-process deployments without Redis.
package filecache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"valomaison/internal/adapters/observability"
)

type entry struct {
	Value   json.RawMessage `json:"v"`
	Expires time.Time       `json:"exp,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && now.After(e.Expires)
}

type Cache struct {
	path string
	now  func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	dirty   bool
}

// Open loads path if it exists. A missing file starts an empty cache; a
// corrupt one is logged and ignored.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	c := &Cache{path: path, now: time.Now, entries: map[string]entry{}}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return c, nil
	case err != nil:
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache file unreadable, starting empty")
		c.entries = map[string]entry{}
		return c, nil
	}
	return c, nil
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.expired(c.now()) {
		observability.ObserveCache("file", "miss")
		return false, nil
	}
	observability.ObserveCache("file", "hit")
	return true, json.Unmarshal(e.Value, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{Value: b}
	if ttlSec > 0 {
		e.Expires = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.dirty = true
	c.mu.Unlock()
	observability.ObserveCache("file", "set")
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.dirty = true
	}
	c.mu.Unlock()
	observability.ObserveCache("file", "del")
	return nil
}

// Flush writes the cache to disk if it changed since the last flush. Expired
// entries are dropped. The file is replaced atomically.
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}
	now := c.now()
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	c.dirty = false
	return nil
}

// FlushEvery flushes on each tick until ctx is done.
func (c *Cache) FlushEvery(ctx context.Context, d time.Duration) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.Flush(); err != nil {
				log.Error().Err(err).Msg("cache flush failed")
			}
		}
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Close() error { return c.Flush() }
