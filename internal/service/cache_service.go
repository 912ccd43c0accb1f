package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-roster-api/pkg/cache"
	appErrors "github.com/noah-isme/school-roster-api/pkg/errors"
)

// Cache namespaces for read models that depend on roster state.
const (
	CacheNamespaceFamilies   = "families"
	CacheNamespaceAttendance = "attendance"
	CacheNamespaceRoster     = "roster"
	CacheNamespaceDuplicates = "duplicates"
)

// rosterNamespaces are invalidated by every write that changes placements,
// relationships or attendance.
var rosterNamespaces = []string{CacheNamespaceFamilies, CacheNamespaceAttendance, CacheNamespaceRoster, CacheNamespaceDuplicates}

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type patternQueue interface {
	Enqueue(pattern string) error
}

// CacheService is a read-through cache with pattern invalidation.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	retries    patternQueue
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Remember serves key from cache into dest, or calls load, stores its result
// and copies it into dest. Cache failures fall through to load.
func Remember[T any](ctx context.Context, s *CacheService, key string, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if hit, _ := s.Get(ctx, key, &cached); hit {
		return cached, nil
	}
	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	_ = s.Set(ctx, key, value, 0)
	return value, nil
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// UseRetryQueue hands failed invalidations to q instead of dropping them.
func (s *CacheService) UseRetryQueue(q patternQueue) {
	s.retries = q
}

// RetryInvalidation is the worker side of the retry queue.
func (s *CacheService) RetryInvalidation(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.DeleteByPattern(ctx, pattern)
}

// InvalidateNamespaces drops every key under the namespaces. Failures are
// logged, queued for retry when a queue is attached, and never surface to the caller.
func (s *CacheService) InvalidateNamespaces(ctx context.Context, namespaces ...string) {
	for _, ns := range namespaces {
		pattern := cache.Pattern(ns)
		if err := s.Invalidate(ctx, pattern); err == nil || s.retries == nil {
			continue
		}
		if err := s.retries.Enqueue(pattern); err != nil {
			s.logger.Warn("cache invalidation retry dropped", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
