package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepo) ResetRateLimit(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func TestFailoverRateLimitRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverRateLimitRepository(primary, fallback, &logger)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "a", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "a", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		primary.On("CheckRateLimit", ctx, "b", 5, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, "b", 5, time.Minute).Return(false, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "b", 5, time.Minute)
		assert.NoError(t, err)
		assert.False(t, allowed)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("StaysOnFallbackWhileDown", func(t *testing.T) {
		fallback.On("CheckRateLimit", ctx, "c", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "c", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertNotCalled(t, "CheckRateLimit", ctx, "c", 5, time.Minute)
	})

	t.Run("ResetWhileDownOnlyTouchesFallback", func(t *testing.T) {
		fallback.On("ResetRateLimit", ctx, "c").Return(nil).Once()
		assert.NoError(t, repo.ResetRateLimit(ctx, "c"))
		primary.AssertNotCalled(t, "ResetRateLimit", ctx, "c")
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		primary.On("CheckRateLimit", ctx, "d", 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, "d", 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		assert.False(t, repo.isDown.Load())
	})

	t.Run("ResetBothWhenUp", func(t *testing.T) {
		fallback.On("ResetRateLimit", ctx, "e").Return(nil).Once()
		primary.On("ResetRateLimit", ctx, "e").Return(nil).Once()
		assert.NoError(t, repo.ResetRateLimit(ctx, "e"))
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
