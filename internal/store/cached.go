package store

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/voyagen/mythvault/internal/cache"
	"github.com/voyagen/mythvault/internal/metrics"
	"github.com/voyagen/mythvault/internal/models"
)

// KeyPrefix namespaces every key the cached store writes.
const KeyPrefix = "mythvault:"

// DefaultCacheTTL is used when NewCachedStore is given a non-positive TTL.
const DefaultCacheTTL = 2 * time.Minute

// CachedStore wraps a Store with a lookup cache for the slow-changing
// reference data: backends, channels, tuners, recording groups, titles and
// settings. Schedules, jobs and guide data always go to the inner store.
// Cache failures are logged and never fail a read.
type CachedStore struct {
	inner   Store
	cache   cache.Cache
	ttl     time.Duration
	log     zerolog.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore creates a CachedStore that wraps inner.
func NewCachedStore(inner Store, c cache.Cache, ttl time.Duration, logger zerolog.Logger, m *metrics.Metrics) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{inner: inner, cache: c, ttl: ttl, log: logger, metrics: m}
}

// settingValue caches a setting including its absence.
type settingValue struct {
	Value *string `json:"value"`
}

// cached serves key from the cache, loading and storing it on a miss.
// Concurrent misses for one key share a single load, which does not inherit
// the cancellation of whichever caller started it. An entry that cannot be
// decoded is evicted.
func cached[T any](ctx context.Context, c *CachedStore, entity, key string, load func(context.Context) (T, error)) (T, error) {
	v, err := cache.Get[T](ctx, c.cache, key)
	if err == nil {
		c.metrics.CacheHit(entity)
		return v, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		if err := c.cache.Del(ctx, key); err != nil {
			c.log.Debug().Err(err).Str("key", key).Msg("cache evict failed")
		}
	}
	c.metrics.CacheMiss(entity)

	res, err, _ := c.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := cache.Set(ctx, c.cache, key, v, c.ttl); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (c *CachedStore) ListBackends(ctx context.Context) ([]models.Backend, error) {
	return cached(ctx, c, "backends", KeyPrefix+"backends", c.inner.ListBackends)
}

func (c *CachedStore) MasterBackend(ctx context.Context) (*models.Backend, error) {
	backends, err := c.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return masterOf(backends)
}

func (c *CachedStore) ListSlaveBackends(ctx context.Context) ([]models.Backend, error) {
	backends, err := c.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return slavesOf(backends), nil
}

func (c *CachedStore) ResolveBackend(ctx context.Context, token string) (*models.Backend, error) {
	backends, err := c.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	return resolveIn(backends, token), nil
}

func (c *CachedStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	return cached(ctx, c, "channels", KeyPrefix+"channels", c.inner.ListChannels)
}

func (c *CachedStore) ListTuners(ctx context.Context) ([]models.Tuner, error) {
	return cached(ctx, c, "tuners", KeyPrefix+"tuners", c.inner.ListTuners)
}

func (c *CachedStore) ListRecordingGroups(ctx context.Context) ([]string, error) {
	return cached(ctx, c, "groups", KeyPrefix+"groups", c.inner.ListRecordingGroups)
}

func (c *CachedStore) ListRecordingTitles(ctx context.Context, group string) ([]models.TitleCount, error) {
	return cached(ctx, c, "titles", titlesKey(group), func(ctx context.Context) ([]models.TitleCount, error) {
		return c.inner.ListRecordingTitles(ctx, group)
	})
}

func (c *CachedStore) GetSetting(ctx context.Context, key string, hostname *string) (*string, error) {
	v, err := cached(ctx, c, "settings", settingKey(key, hostname), func(ctx context.Context) (settingValue, error) {
		s, err := c.inner.GetSetting(ctx, key, hostname)
		return settingValue{Value: s}, err
	})
	if err != nil {
		return nil, err
	}
	return v.Value, nil
}

func (c *CachedStore) ListRecordingSchedules(ctx context.Context, filter ScheduleFilter) ([]models.RecordingSchedule, error) {
	return c.inner.ListRecordingSchedules(ctx, filter)
}

func (c *CachedStore) ListJobs(ctx context.Context, filter JobFilter) ([]models.Job, error) {
	return c.inner.ListJobs(ctx, filter)
}

func (c *CachedStore) GuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) iter.Seq2[models.GuideEntry, error] {
	return c.inner.GuideEntries(ctx, start, end, channels)
}

func (c *CachedStore) ListGuideEntries(ctx context.Context, start, end time.Time, channels []models.Channel) ([]models.GuideEntry, error) {
	return c.inner.ListGuideEntries(ctx, start, end, channels)
}

func (c *CachedStore) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

// titlesKey keeps the "All Groups" pseudo-group apart from every literal
// group name.
func titlesKey(group string) string {
	if isAllGroups(group) {
		return KeyPrefix + "titles:all"
	}
	return KeyPrefix + "titles:group:" + group
}

// settingKey scopes a setting key by its exact hostname, which is matched
// case-sensitively by the database. The escaped hostname holds no ':'.
func settingKey(key string, hostname *string) string {
	if hostname == nil {
		return KeyPrefix + "setting:global:" + key
	}
	return KeyPrefix + "setting:host:" + url.QueryEscape(*hostname) + ":" + key
}

// Invalidate drops every cached entry.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	if err := c.cache.DelPrefix(ctx, KeyPrefix); err != nil {
		return err
	}
	c.log.Debug().Msg("cache invalidated")
	return nil
}
