package cache

import (
	"bytes"
	"context"
	"errors"
	"math"
	"time"

	"github.com/coocood/freecache"
)

// Memory is an in-process Cache backed by freecache. Entries are evicted
// when the configured size is exhausted.
type Memory struct {
	cache *freecache.Cache
}

// NewMemory creates a cache of sizeMB megabytes (freecache enforces a 512KB minimum).
func NewMemory(sizeMB int) *Memory {
	return &Memory{cache: freecache.NewCache(sizeMB * 1024 * 1024)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	v, err := m.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrMiss
	}
	return v, err
}

// Set stores value; ttl is rounded up to whole seconds and 0 means no expiry.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	secs := int(math.Ceil(ttl.Seconds()))
	return m.cache.Set([]byte(key), value, secs)
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.cache.Del([]byte(k))
	}
	return nil
}

// DelPrefix walks every entry.
func (m *Memory) DelPrefix(_ context.Context, prefix string) error {
	var matched [][]byte
	it := m.cache.NewIterator()
	for e := it.Next(); e != nil; e = it.Next() {
		if bytes.HasPrefix(e.Key, []byte(prefix)) {
			matched = append(matched, e.Key)
		}
	}
	for _, k := range matched {
		m.cache.Del(k)
	}
	return nil
}

func (m *Memory) Close() error {
	m.cache.Clear()
	return nil
}
