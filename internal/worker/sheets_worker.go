package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cancha/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert = "upsert"
	TaskDelete = "delete"
)

// SheetTask describes a unit of work for Sheets.
type SheetTask struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	BookingID string          `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Attempt   int             `json:"attempt"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SheetsClient is the spreadsheet mirror the worker writes to.
type SheetsClient interface {
	UpsertBooking(ctx context.Context, booking *models.Booking) error
	DeleteBookingRow(ctx context.Context, bookingID string) error
}

// SheetsWorker applies booking changes to Google Sheets off the request
// path. Tasks travel through redis when available and an in-memory channel
// otherwise; failures are retried with backoff and then dead-lettered.
type SheetsWorker struct {
	sheets        SheetsClient
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan SheetTask
	redisQueueKey string
	deadLetterKey string
	logger        *zerolog.Logger
	after         func(time.Duration, func())

	mu          sync.Mutex
	deadLetters []SheetTask
}

// NewSheetsWorker builds a worker with sane defaults.
func NewSheetsWorker(sheets SheetsClient, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	retry = retry.withDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan SheetTask, 128),
		redisQueueKey: "cancha:sheets:queue",
		deadLetterKey: "cancha:sheets:deadletter",
		logger:        logger,
		after: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

// EnqueueTask schedules a sheet update for booking.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, booking *models.Booking) error {
	if taskType != TaskUpsert && taskType != TaskDelete {
		return fmt.Errorf("unknown task type: %s", taskType)
	}
	if booking == nil || booking.ID == "" {
		return errors.New("booking id is required")
	}

	task := SheetTask{
		ID:        uuid.NewString(),
		Type:      taskType,
		BookingID: booking.ID,
		CreatedAt: time.Now(),
	}
	if taskType == TaskUpsert {
		snapshot := *booking
		task.Booking = &snapshot
	}
	return w.push(ctx, task)
}

func (w *SheetsWorker) push(ctx context.Context, task SheetTask) error {
	if w.redis != nil {
		if err := w.pushRedis(ctx, w.redisQueueKey, task); err != nil {
			w.logger.Warn().Err(err).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
		return nil
	default:
		return errors.New("sheets queue is full")
	}
}

// Start launches the main loop; it stops when ctx is done.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("sheets worker started")
	defer w.logger.Info().Msg("sheets worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if w.redis != nil {
			if t, ok := w.tryRedis(ctx); ok {
				w.processTask(ctx, &t)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case t := <-w.queue:
			w.processTask(ctx, &t)
		}
	}
}

func (w *SheetsWorker) tryLocalQueue() (SheetTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return SheetTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (SheetTask, bool) {
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			w.logger.Error().Err(err).Msg("redis BRPOP error")
			time.Sleep(time.Second)
		}
		return SheetTask{}, false
	}
	if len(res) != 2 {
		return SheetTask{}, false
	}
	var task SheetTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task")
		return SheetTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *SheetTask) {
	if err := w.handleSheetTask(ctx, task); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}
	w.logger.Debug().Str("task", task.Type).Str("booking_id", task.BookingID).Msg("sheet task applied")
}

func (w *SheetsWorker) handleSheetTask(ctx context.Context, task *SheetTask) error {
	switch task.Type {
	case TaskUpsert:
		if task.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sheets.UpsertBooking(ctx, task.Booking)
	case TaskDelete:
		if task.BookingID == "" {
			return errors.New("booking id missing")
		}
		return w.sheets.DeleteBookingRow(ctx, task.BookingID)
	default:
		return fmt.Errorf("unknown task type: %s", task.Type)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *SheetTask, cause error) {
	task.Attempt++
	task.LastError = cause.Error()

	if !w.retryPolicy.ShouldRetry(task.Attempt) {
		w.logger.Error().Err(cause).Str("booking_id", task.BookingID).Int("attempts", task.Attempt).Msg("sheet task failed permanently")
		w.pushDeadLetter(ctx, *task)
		return
	}

	delay := w.retryPolicy.NextDelay(task.Attempt)
	w.logger.Warn().Err(cause).Str("booking_id", task.BookingID).Dur("retry_in", delay).Msg("sheet task failed, retrying")

	retry := *task
	w.after(delay, func() {
		if err := w.push(context.Background(), retry); err != nil {
			w.logger.Error().Err(err).Str("booking_id", retry.BookingID).Msg("requeue sheet task")
		}
	})
}

func (w *SheetsWorker) pushRedis(ctx context.Context, key string, task SheetTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, key, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task SheetTask) {
	w.mu.Lock()
	w.deadLetters = append(w.deadLetters, task)
	w.mu.Unlock()

	if w.redis == nil {
		return
	}
	if err := w.pushRedis(ctx, w.deadLetterKey, task); err != nil {
		w.logger.Error().Err(err).Str("booking_id", task.BookingID).Msg("deadletter push")
	}
}

// DeadLetters returns tasks that exhausted their retries in this process.
func (w *SheetsWorker) DeadLetters() []SheetTask {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]SheetTask(nil), w.deadLetters...)
}
