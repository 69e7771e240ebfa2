package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"cancha/internal/domain"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// FailoverRateLimitRepository uses primary until it errors, then serves from
// fallback and retries primary once per recoveryInterval.
type FailoverRateLimitRepository struct {
	primary  domain.RateLimitRepository
	fallback domain.RateLimitRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverRateLimitRepository(primary, fallback domain.RateLimitRepository, logger *zerolog.Logger) *FailoverRateLimitRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FailoverRateLimitRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *FailoverRateLimitRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Error().Err(err).Msg("primary rate limit store failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
}

func (r *FailoverRateLimitRepository) shouldTryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Sub(r.lastCheck) > recoveryInterval
}

func (r *FailoverRateLimitRepository) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.shouldTryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, key, limit, window)
		if err == nil {
			if r.isDown.Swap(false) {
				r.logger.Info().Msg("primary rate limit store recovered")
			}
			return allowed, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, key, limit, window)
}

func (r *FailoverRateLimitRepository) ResetRateLimit(ctx context.Context, key string) error {
	_ = r.fallback.ResetRateLimit(ctx, key)
	if r.isDown.Load() {
		return nil
	}
	if err := r.primary.ResetRateLimit(ctx, key); err != nil {
		r.markDown(err)
	}
	return nil
}

var (
	_ domain.RateLimitRepository = (*FailoverRateLimitRepository)(nil)
	_ domain.RateLimitRepository = (*MemoryRateLimitRepository)(nil)
	_ domain.RateLimitRepository = (*RedisRateLimitRepository)(nil)
)
