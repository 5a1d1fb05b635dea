package repository

import (
	"context"
	"sync/atomic"
	"time"

	"eskan/internal/domain"

	"github.com/rs/zerolog"
)

// FailoverLockRepository prefers redis and degrades to the in-memory
// repository when redis is unreachable. The primary is probed again one
// minute after it was marked down.
type FailoverLockRepository struct {
	primary   domain.LockRepository
	fallback  domain.LockRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverLockRepository(primary, fallback domain.LockRepository, logger *zerolog.Logger) *FailoverLockRepository {
	return &FailoverLockRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverLockRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary lock repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverLockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !r.isDown.Load() {
		ok, err := r.primary.Acquire(ctx, key, ttl)
		if err == nil {
			return ok, nil
		}
		r.markDown(err)
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		ok, err := r.primary.Acquire(ctx, key, ttl)
		if err == nil {
			r.isDown.Store(false)
			return ok, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.Acquire(ctx, key, ttl)
}

func (r *FailoverLockRepository) Release(ctx context.Context, key string) error {
	if !r.isDown.Load() {
		err := r.primary.Release(ctx, key)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.Release(ctx, key)
}

func (r *FailoverLockRepository) CheckRateLimit(ctx context.Context, clientID string, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, clientID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, clientID, limit, window)
}
