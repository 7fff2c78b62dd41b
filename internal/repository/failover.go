package repository

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"shareit/internal/domain"

	"github.com/rs/zerolog"
)

type FailoverCacheRepository struct {
	primary   domain.CacheRepository
	fallback  domain.CacheRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverCacheRepository(primary, fallback domain.CacheRepository, logger *zerolog.Logger) *FailoverCacheRepository {
	return &FailoverCacheRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverCacheRepository) Get(ctx context.Context, key string) (string, error) {
	if !r.isDown.Load() {
		val, err := r.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			return val, err
		}
		r.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		val, err := r.primary.Get(ctx, key)
		if err == nil || errors.Is(err, ErrCacheMiss) {
			r.isDown.Store(false)
			return val, err
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Get(ctx, key)
}

func (r *FailoverCacheRepository) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if !r.isDown.Load() {
		err := r.primary.Set(ctx, key, value, ttl)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Set(ctx, key, value, ttl)
}

func (r *FailoverCacheRepository) Delete(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.Delete(ctx, key)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.Delete(ctx, key)
}

func (r *FailoverCacheRepository) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.logger.Error().Err(err).Msg("Primary cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.CheckRateLimit(ctx, clientID, limit, window)
}
