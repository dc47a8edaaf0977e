package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lifeguard-api/pkg/errors"
)

type stubCacheRepo struct {
	entries  map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
	getErr   error
	hadLimit bool
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (r *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	_, r.hadLimit = ctx.Deadline()
	if r.getErr != nil {
		return r.getErr
	}
	raw, ok := r.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.entries[key] = raw
	r.ttls[key] = ttl
	return nil
}

func (r *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func TestCacheServiceRoundTripAndMetrics(t *testing.T) {
	repo := newStubCacheRepo()
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, 0, nil, true)

	var out []string
	hit, err := svc.Get(context.Background(), "alerts:u1:2025-06-15", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.True(t, repo.hadLimit)

	require.NoError(t, svc.Set(context.Background(), "alerts:u1:2025-06-15", []string{"Pro Pool"}, 0))
	assert.Equal(t, time.Hour, repo.ttls["alerts:u1:2025-06-15"])

	hit, err = svc.Get(context.Background(), "alerts:u1:2025-06-15", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"Pro Pool"}, out)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.cacheHitRatio))
}

func TestCacheServiceReportsBackendErrors(t *testing.T) {
	repo := newStubCacheRepo()
	repo.getErr = errors.New("connection refused")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var out []string
	hit, err := svc.Get(context.Background(), "alerts:u1:2025-06-15", &out)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newStubCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)
	assert.False(t, svc.Enabled())

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	require.NoError(t, svc.Invalidate(context.Background(), "alerts:u1:*"))
	assert.Empty(t, repo.entries)
	assert.Empty(t, repo.patterns)

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newStubCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Invalidate(context.Background(), "alerts:u1:*"))
	assert.Equal(t, []string{"alerts:u1:*"}, repo.patterns)
}
