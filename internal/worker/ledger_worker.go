package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lawnly/internal/domain"
	"lawnly/internal/metrics"
	"lawnly/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskUpsert       = "upsert"
	TaskUpdateStatus = "update_status"
)

// ledgerTaskPayload is persisted in SyncTask.Payload as JSON.
type ledgerTaskPayload struct {
	BookingID string          `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// LedgerWorker consumes sync_queue tasks and mirrors them into the
// spreadsheet ledger. Tasks are durably persisted first; Redis is the
// fast path for delivery and the DB poll is the catch-all.
type LedgerWorker struct {
	accessor      domain.Accessor
	ledger        domain.LedgerWriter
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	log           zerolog.Logger
}

// NewLedgerWorker builds a worker with sane defaults.
func NewLedgerWorker(accessor domain.Accessor, ledger domain.LedgerWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *LedgerWorker {
	retry = retry.withDefaults()

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "ledger_worker").Logger()
	}

	return &LedgerWorker{
		accessor:      accessor,
		ledger:        ledger,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, 128),
		redisQueueKey: "ledger:queue",
		deadLetterKey: "ledger:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		log:           log,
	}
}

// EnqueueUpsert schedules a full-row ledger write for the booking.
func (w *LedgerWorker) EnqueueUpsert(ctx context.Context, booking *models.Booking) error {
	if booking == nil || booking.ID == "" {
		return errors.New("booking id is required")
	}
	return w.enqueue(ctx, TaskUpsert, ledgerTaskPayload{BookingID: booking.ID, Booking: booking})
}

// EnqueueStatus schedules a status-only ledger update.
func (w *LedgerWorker) EnqueueStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	if bookingID == "" || status == "" {
		return errors.New("booking id and status are required")
	}
	return w.enqueue(ctx, TaskUpdateStatus, ledgerTaskPayload{BookingID: bookingID, Status: string(status)})
}

func (w *LedgerWorker) enqueue(ctx context.Context, taskType string, payload ledgerTaskPayload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.SyncTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(payloadBytes),
	}
	if err := w.accessor.CreateSyncTask(ctx, &task); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Try redis first for delivery; the DB poll picks the task up anyway.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.log.Warn().Err(err).Int64("task_id", task.ID).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- task:
	default:
		w.log.Warn().Int64("task_id", task.ID).Msg("in-memory queue full, task left to polling")
	}
	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *LedgerWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ledger worker started")
	defer w.log.Info().Msg("ledger worker stopped")

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

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.accessor.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.log.Error().Err(err).Msg("fetch pending sync tasks")
			w.sleep(ctx, w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			w.sleep(ctx, w.pollInterval)
			continue
		}

		for _, t := range tasks {
			w.processTask(ctx, t)
		}
	}
}

// Resync replaces the whole ledger sheet with the bookings in the range.
func (w *LedgerWorker) Resync(ctx context.Context, start, end time.Time) error {
	bookings, err := w.accessor.GetBookingsByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load bookings: %w", err)
	}
	if err := w.ledger.ReplaceBookings(ctx, bookings); err != nil {
		metrics.IncLedgerSync("error")
		return fmt.Errorf("replace ledger: %w", err)
	}
	metrics.IncLedgerSync("ok")
	return nil
}

func (w *LedgerWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *LedgerWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.log.Error().Err(err).Msg("redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.log.Error().Err(err).Msg("decode redis task")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *LedgerWorker) processTask(ctx context.Context, task *models.SyncTask) {
	var payload ledgerTaskPayload
	if err := json.Unmarshal([]byte(task.Payload), &payload); err != nil {
		w.failTask(ctx, task, 0, fmt.Errorf("decode payload: %w", err))
		return
	}

	attempts, err := w.applyWithRetry(ctx, task.TaskType, payload)
	if err != nil {
		w.failTask(ctx, task, attempts, err)
		return
	}

	metrics.IncLedgerSync("ok")
	if err := w.accessor.MarkSyncTaskDone(ctx, task.ID); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task done")
	}
}

// applyWithRetry runs the ledger call with in-process exponential backoff.
// Returns the number of attempts made.
func (w *LedgerWorker) applyWithRetry(ctx context.Context, taskType string, payload ledgerTaskPayload) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		lastErr = w.apply(ctx, taskType, payload)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == w.retryPolicy.MaxRetries {
			break
		}
		if !w.sleep(ctx, w.retryPolicy.NextDelay(attempt)) {
			return attempt, ctx.Err()
		}
	}
	return w.retryPolicy.MaxRetries, lastErr
}

func (w *LedgerWorker) apply(ctx context.Context, taskType string, payload ledgerTaskPayload) error {
	switch taskType {
	case TaskUpsert:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.ledger.UpsertBooking(ctx, payload.Booking)
	case TaskUpdateStatus:
		if payload.BookingID == "" || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.ledger.UpdateBookingStatus(ctx, payload.BookingID, models.BookingStatus(payload.Status))
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *LedgerWorker) failTask(ctx context.Context, task *models.SyncTask, attempts int, cause error) {
	metrics.IncLedgerSync("error")
	w.log.Error().Err(cause).Int64("task_id", task.ID).Str("task_type", task.TaskType).Msg("ledger sync failed")
	if err := w.accessor.MarkSyncTaskFailed(ctx, task.ID, attempts, cause.Error()); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *LedgerWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *LedgerWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.log.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push")
	}
}

// sleep waits for d or until ctx is done; reports whether the full wait elapsed.
func (w *LedgerWorker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
