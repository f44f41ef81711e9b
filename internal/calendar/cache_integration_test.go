//go:build integration

package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/internal/calendar"
	"caseflow/internal/platform/config"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/pkg/domain"
	"caseflow/pkg/testutil/containers"
)

// countingProvider records how often the upstream is consulted.
type countingProvider struct {
	inner calendar.Provider
	calls int
}

func (p *countingProvider) Calendar(ctx context.Context, council domain.Council) (*calendar.Calendar, error) {
	p.calls++
	return p.inner.Calendar(ctx, council)
}

func TestRedisCachedProvider(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	addr := containers.StartRedis(t)
	client, err := platformredis.New(config.Redis{URL: "redis://" + addr})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	council := domain.Council("northshore")
	holidays := map[domain.Council][]string{council: {"2025-03-05"}}

	upstream := &countingProvider{inner: calendar.NewStaticProvider(holidays)}
	provider := calendar.NewCachedProvider(upstream,
		calendar.WithCache(calendar.NewRedisCache(client)),
		calendar.WithTTL(time.Minute),
	)

	cal, err := provider.Calendar(ctx, council)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls, "first lookup goes upstream")
	assert.False(t, cal.IsWorkingDay(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)))

	cal, err = provider.Calendar(ctx, council)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls, "second lookup is served from the cache")

	// A fresh provider over the same Redis shares the cached calendar, the
	// way two server replicas would.
	replica := calendar.NewCachedProvider(upstream,
		calendar.WithCache(calendar.NewRedisCache(client)),
		calendar.WithTTL(time.Minute),
	)
	cal, err = replica.Calendar(ctx, council)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls, "replica never consults the upstream")
	assert.False(t, cal.IsWorkingDay(time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, cal.IsWorkingDay(time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)))
}
