package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"caseflow/internal/calendar/metrics"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/pkg/domain"
	"caseflow/pkg/platform/circuit"
	"caseflow/pkg/platform/sentinel"
)

// Cache stores serialized calendars with a TTL. Implemented by RedisCache;
// tests substitute fakes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache backs the calendar cache with Redis.
type RedisCache struct {
	client *platformredis.Client
}

// NewRedisCache wraps a platform Redis client. Returns nil when Redis is not
// configured so the provider can skip caching.
func NewRedisCache(client *platformredis.Client) *RedisCache {
	if client == nil {
		return nil
	}
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, sentinel.ErrNotFound
	}
	return raw, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// cachedCalendar is the wire form stored in the cache.
type cachedCalendar struct {
	Council  string   `json:"council"`
	Holidays []string `json:"holidays"`
}

// CachedProvider is a read-through cache over the upstream holiday provider,
// guarded by a circuit breaker. When the upstream fails it serves the last
// calendar it saw for the council; working-day math on a slightly stale
// holiday list beats refusing every transition.
type CachedProvider struct {
	upstream Provider
	cache    Cache
	breaker  *circuit.Breaker
	ttl      time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu        sync.RWMutex
	lastKnown map[domain.Council]*Calendar
}

// CachedProviderOption configures a CachedProvider.
type CachedProviderOption func(*CachedProvider)

// WithCache sets the serialized-calendar cache (nil disables caching).
func WithCache(cache Cache) CachedProviderOption {
	return func(p *CachedProvider) {
		p.cache = cache
	}
}

// WithLogger sets a logger for cache and breaker events.
func WithLogger(logger *slog.Logger) CachedProviderOption {
	return func(p *CachedProvider) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) CachedProviderOption {
	return func(p *CachedProvider) {
		p.metrics = m
	}
}

// WithTTL overrides the default cache TTL.
func WithTTL(ttl time.Duration) CachedProviderOption {
	return func(p *CachedProvider) {
		p.ttl = ttl
	}
}

// NewCachedProvider wraps upstream with caching and a circuit breaker.
func NewCachedProvider(upstream Provider, opts ...CachedProviderOption) *CachedProvider {
	p := &CachedProvider{
		upstream:  upstream,
		breaker:   circuit.New("calendar-provider", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		ttl:       12 * time.Hour,
		lastKnown: make(map[domain.Council]*Calendar),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *CachedProvider) Calendar(ctx context.Context, council domain.Council) (*Calendar, error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveLookup(time.Since(start).Seconds())
	}()

	if cal, ok := p.fromCache(ctx, council); ok {
		p.metrics.RecordHit()
		return cal, nil
	}
	p.metrics.RecordMiss()

	if p.breaker.IsOpen() {
		if cal, ok := p.fallback(council); ok {
			return cal, nil
		}
		return nil, fmt.Errorf("calendar provider circuit open for %q: %w", council, sentinel.ErrUnavailable)
	}

	cal, err := p.upstream.Calendar(ctx, council)
	if err != nil {
		p.metrics.RecordProviderError()
		if _, change := p.breaker.RecordFailure(); change.Opened && p.logger != nil {
			p.logger.WarnContext(ctx, "calendar provider circuit opened", "council", string(council))
		}
		if cal, ok := p.fallback(council); ok {
			return cal, nil
		}
		return nil, fmt.Errorf("resolve calendar for %q: %w", council, err)
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed && p.logger != nil {
		p.logger.InfoContext(ctx, "calendar provider circuit closed", "council", string(council))
	}

	p.remember(ctx, council, cal)
	return cal, nil
}

func (p *CachedProvider) fromCache(ctx context.Context, council domain.Council) (*Calendar, bool) {
	if p.cache == nil {
		return nil, false
	}
	raw, err := p.cache.Get(ctx, cacheKey(council))
	if err != nil {
		return nil, false
	}
	var cached cachedCalendar
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}
	cal := NewCalendar(domain.Council(cached.Council), cached.Holidays)
	p.stash(council, cal)
	return cal, true
}

func (p *CachedProvider) remember(ctx context.Context, council domain.Council, cal *Calendar) {
	p.stash(council, cal)
	if p.cache == nil {
		return
	}
	holidays := make([]string, 0, len(cal.Holidays))
	for d := range cal.Holidays {
		holidays = append(holidays, d)
	}
	raw, err := json.Marshal(cachedCalendar{Council: string(council), Holidays: holidays})
	if err != nil {
		return
	}
	if err := p.cache.Set(ctx, cacheKey(council), raw, p.ttl); err != nil && p.logger != nil {
		p.logger.WarnContext(ctx, "calendar cache write failed", "council", string(council), "error", err.Error())
	}
}

func (p *CachedProvider) stash(council domain.Council, cal *Calendar) {
	p.mu.Lock()
	p.lastKnown[council] = cal
	p.mu.Unlock()
}

func (p *CachedProvider) fallback(council domain.Council) (*Calendar, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cal, ok := p.lastKnown[council]
	return cal, ok
}

func cacheKey(council domain.Council) string {
	return "caseflow:calendar:" + string(council)
}
