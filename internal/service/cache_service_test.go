package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

// memoryCache is an in-process CacheRepository used across service tests.
type memoryCache struct {
	mu          sync.Mutex
	items       map[string][]byte
	invalidated []string
	deleteErr   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func TestRememberLoadsOnceWithinTTL(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), NewMetricsService(), time.Minute, nil, true)
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := Remember(context.Background(), svc, "families:program=K12_PROGRAM", load)
	require.NoError(t, err)
	second, err := Remember(context.Background(), svc, "families:program=K12_PROGRAM", load)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(1), svc.metrics.Snapshot().CacheHits)
}

func TestRememberDisabledAlwaysLoads(t *testing.T) {
	svc := NewCacheService(newMemoryCache(), nil, time.Minute, nil, false)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	_, _ = Remember(context.Background(), svc, "k", load)
	v, err := Remember(context.Background(), svc, "k", load)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestRememberDoesNotCacheErrors(t *testing.T) {
	repo := newMemoryCache()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	_, err := Remember(context.Background(), svc, "k", func(context.Context) (int, error) {
		return 0, errors.New("db down")
	})
	require.Error(t, err)
	assert.Empty(t, repo.items)
}

func TestInvalidateNamespacesIsBestEffort(t *testing.T) {
	repo := newMemoryCache()
	repo.deleteErr = errors.New("redis unavailable")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	svc.InvalidateNamespaces(context.Background(), CacheNamespaceFamilies, CacheNamespaceAttendance)
	assert.Equal(t, []string{"families*", "attendance*"}, repo.invalidated)
}

type patternRecorder struct {
	patterns []string
}

func (r *patternRecorder) Enqueue(pattern string) error {
	r.patterns = append(r.patterns, pattern)
	return nil
}

func TestFailedInvalidationsAreQueued(t *testing.T) {
	repo := newMemoryCache()
	repo.deleteErr = errors.New("redis unavailable")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	retries := &patternRecorder{}
	svc.UseRetryQueue(retries)

	svc.InvalidateNamespaces(context.Background(), CacheNamespaceRoster)
	assert.Equal(t, []string{"roster*"}, retries.patterns)

	repo.deleteErr = nil
	require.NoError(t, repo.Set(context.Background(), "roster:class=1", []string{"x"}, 0))
	require.NoError(t, svc.RetryInvalidation(context.Background(), retries.patterns[0]))
	assert.Empty(t, repo.items)
}
