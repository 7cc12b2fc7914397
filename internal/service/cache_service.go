package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

const generationCachePrefix = "generate"

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService keeps finished generation results keyed by the input and
// options that produced them. Backend failures are logged and counted but
// never reach the caller.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger.Named("generation_cache"), enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

type generationCacheKey struct {
	Input   scheduler.Input   `json:"input"`
	Options scheduler.Options `json:"options"`
}

// GenerationKey hashes a scheduler input together with the run options.
// encoding/json sorts map keys, so equal inputs yield equal keys.
func GenerationKey(in scheduler.Input, opts scheduler.Options) (string, error) {
	raw, err := json.Marshal(generationCacheKey{Input: in, Options: opts})
	if err != nil {
		return "", fmt.Errorf("encode generation key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return generationCachePrefix + ":" + hex.EncodeToString(sum[:]), nil
}

// Lookup returns the cached result stored under key.
func (s *CacheService) Lookup(ctx context.Context, key string) (*scheduler.Result, bool) {
	if !s.Enabled() || key == "" {
		return nil, false
	}
	start := time.Now()
	var cached scheduler.Result
	err := s.repo.Get(ctx, key, &cached)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return &cached, true
}

// Store caches result and reports whether it was written. Rejected runs and
// runs cut short by the attempt budget or deadline are never stored.
func (s *CacheService) Store(ctx context.Context, key string, result *scheduler.Result) bool {
	if !s.Enabled() || key == "" || !cacheable(result) {
		return false
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, result, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("store failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// InvalidateGenerations drops every cached generation result.
func (s *CacheService) InvalidateGenerations(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, generationCachePrefix+":*"); err != nil {
		s.logger.Warn("invalidate failed", zap.Error(err))
	}
}

func cacheable(result *scheduler.Result) bool {
	return result != nil && result.Status != scheduler.StatusError && !result.Stats.BudgetExhausted
}
