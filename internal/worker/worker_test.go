package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"cancha/internal/domain"
	"cancha/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.SyncWorker = (*SheetsWorker)(nil)

type fakeSheets struct {
	mu       sync.Mutex
	err      error
	upserted []string
	deleted  []string
}

func (f *fakeSheets) UpsertBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, b.ID)
	return f.err
}

func (f *fakeSheets) DeleteBookingRow(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeSheets) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserted), len(f.deleted)
}

func TestSheetsWorker_EnqueueTask(t *testing.T) {
	w := NewSheetsWorker(&fakeSheets{}, nil, RetryPolicy{}, nil)
	ctx := context.Background()
	booking := &models.Booking{ID: "b-1", ClientName: "Ana"}

	t.Run("ValidTask", func(t *testing.T) {
		require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, booking))
		task, ok := w.tryLocalQueue()
		require.True(t, ok)
		assert.Equal(t, "b-1", task.BookingID)
		require.NotNil(t, task.Booking)
		assert.Equal(t, "Ana", task.Booking.ClientName)
	})

	t.Run("SnapshotIsolated", func(t *testing.T) {
		b := &models.Booking{ID: "b-2", ClientName: "Luis"}
		require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, b))
		b.ClientName = "changed"
		task, _ := w.tryLocalQueue()
		assert.Equal(t, "Luis", task.Booking.ClientName)
	})

	t.Run("DeleteCarriesOnlyID", func(t *testing.T) {
		require.NoError(t, w.EnqueueTask(ctx, TaskDelete, booking))
		task, _ := w.tryLocalQueue()
		assert.Nil(t, task.Booking)
		assert.Equal(t, TaskDelete, task.Type)
	})

	t.Run("InvalidTaskType", func(t *testing.T) {
		assert.Error(t, w.EnqueueTask(ctx, "", booking))
	})

	t.Run("MissingBooking", func(t *testing.T) {
		assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, nil))
		assert.Error(t, w.EnqueueTask(ctx, TaskUpsert, &models.Booking{}))
	})
}

func TestSheetsWorker_HandleSheetTask(t *testing.T) {
	sheets := &fakeSheets{}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{}, nil)
	ctx := context.Background()

	require.NoError(t, w.handleSheetTask(ctx, &SheetTask{Type: TaskUpsert, BookingID: "b-1", Booking: &models.Booking{ID: "b-1"}}))
	require.NoError(t, w.handleSheetTask(ctx, &SheetTask{Type: TaskDelete, BookingID: "b-2"}))
	assert.Error(t, w.handleSheetTask(ctx, &SheetTask{Type: TaskUpsert, BookingID: "b-3"}))
	assert.Error(t, w.handleSheetTask(ctx, &SheetTask{Type: "bogus"}))

	up, del := sheets.calls()
	assert.Equal(t, 1, up)
	assert.Equal(t, 1, del)
}

func TestProcessTaskRetry(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("temporary")}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{MaxRetries: 3, InitialDelay: time.Second}, nil)

	var delays []time.Duration
	w.after = func(d time.Duration, f func()) {
		delays = append(delays, d)
		f()
	}

	ctx := context.Background()
	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, &models.Booking{ID: "b-1"}))
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	requeued, ok := w.tryLocalQueue()
	require.True(t, ok)
	assert.Equal(t, 1, requeued.Attempt)
	assert.Equal(t, "temporary", requeued.LastError)
	assert.Equal(t, []time.Duration{time.Second}, delays)
	assert.Empty(t, w.DeadLetters())
}

func TestProcessTaskFail(t *testing.T) {
	sheets := &fakeSheets{err: errors.New("fatal")}
	w := NewSheetsWorker(sheets, nil, RetryPolicy{MaxRetries: 1}, nil)
	w.after = func(time.Duration, func()) { t.Fatal("must not retry") }

	ctx := context.Background()
	require.NoError(t, w.EnqueueTask(ctx, TaskDelete, &models.Booking{ID: "b-9"}))
	task, _ := w.tryLocalQueue()
	w.processTask(ctx, &task)

	dead := w.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "b-9", dead[0].BookingID)
	assert.Equal(t, 1, dead[0].Attempt)
}

func TestSheetsWorker_RedisQueue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sheets := &fakeSheets{}
	w := NewSheetsWorker(sheets, client, RetryPolicy{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, w.EnqueueTask(ctx, TaskUpsert, &models.Booking{ID: "b-1"}))
	n, err := client.LLen(ctx, w.redisQueueKey).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		up, _ := sheets.calls()
		return up == 1
	}, 3*time.Second, 20*time.Millisecond)
	cancel()
	<-done
}

func TestSheetsWorker_RedisDeadLetter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	w := NewSheetsWorker(&fakeSheets{err: errors.New("boom")}, client, RetryPolicy{MaxRetries: 1}, nil)
	ctx := context.Background()
	task := SheetTask{ID: "t-1", Type: TaskDelete, BookingID: "b-5"}
	w.processTask(ctx, &task)

	items, err := client.LRange(ctx, w.deadLetterKey, 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, items, 1)

	var stored SheetTask
	require.NoError(t, json.Unmarshal([]byte(items[0]), &stored))
	assert.Equal(t, "b-5", stored.BookingID)
	assert.Equal(t, "boom", stored.LastError)
}

func TestSheetsWorker_RedisDownFallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	w := NewSheetsWorker(&fakeSheets{}, client, RetryPolicy{}, nil)
	require.NoError(t, w.EnqueueTask(context.Background(), TaskUpsert, &models.Booking{ID: "b-1"}))
	_, ok := w.tryLocalQueue()
	assert.True(t, ok)
}

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, BackoffFactor: 2, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 5*time.Second, policy.NextDelay(5))
	assert.Equal(t, time.Second, policy.NextDelay(0))
	assert.Equal(t, 5*time.Second, policy.NextDelay(1000))
}

func TestRetryPolicyDefaults(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, 2*time.Second, policy.NextDelay(1))
	assert.Equal(t, 4*time.Second, policy.NextDelay(2))
	assert.Equal(t, time.Minute, policy.NextDelay(10))

	assert.True(t, policy.ShouldRetry(4))
	assert.False(t, policy.ShouldRetry(5))

	limited := RetryPolicy{MaxRetries: 2}
	assert.True(t, limited.ShouldRetry(1))
	assert.False(t, limited.ShouldRetry(2))
}
