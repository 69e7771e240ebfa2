package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimitRepository(t *testing.T) {
	repo := NewMemoryRateLimitRepository()
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := repo.CheckRateLimit(ctx, "ip:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := repo.CheckRateLimit(ctx, "ip:1", 2, time.Minute)
	assert.False(t, allowed)

	other, _ := repo.CheckRateLimit(ctx, "ip:2", 2, time.Minute)
	assert.True(t, other, "keys are independent")

	now = now.Add(61 * time.Second)
	allowed, _ = repo.CheckRateLimit(ctx, "ip:1", 2, time.Minute)
	assert.True(t, allowed, "window elapsed")

	_, _ = repo.CheckRateLimit(ctx, "ip:1", 2, time.Minute)
	require.NoError(t, repo.ResetRateLimit(ctx, "ip:1"))
	allowed, _ = repo.CheckRateLimit(ctx, "ip:1", 2, time.Minute)
	assert.True(t, allowed)
}
