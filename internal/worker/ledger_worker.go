package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskAppend       = "append"
	TaskUpdateStatus = "update_status"
)

// ledgerTaskPayload is persisted in LedgerTask.Payload as JSON.
type ledgerTaskPayload struct {
	BookingID int64           `json:"booking_id"`
	Booking   *models.Booking `json:"booking,omitempty"`
	Status    string          `json:"status,omitempty"`
}

// LedgerWorker consumes ledger_queue tasks and applies them to the ledger sink.
type LedgerWorker struct {
	queue         domain.LedgerQueue
	sink          domain.LedgerSink
	redis         *redis.Client
	retryPolicy   RetryPolicy
	local         chan models.LedgerTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
}

// NewLedgerWorker builds a worker with sane defaults.
func NewLedgerWorker(queue domain.LedgerQueue, sink domain.LedgerSink, redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *LedgerWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	return &LedgerWorker{
		queue:         queue,
		sink:          sink,
		redis:         redisClient,
		retryPolicy:   retry,
		local:         make(chan models.LedgerTask, models.LedgerQueueSize),
		redisQueueKey: "ledger:queue",
		deadLetterKey: "ledger:deadletter",
		pollInterval:  pollInterval,
		batchSize:     batchSize,
		logger:        logger,
	}
}

// EnqueueTask persists the task and schedules it via redis or the local queue.
func (w *LedgerWorker) EnqueueTask(ctx context.Context, taskType string, bookingID int64, booking *models.Booking) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if bookingID == 0 && (booking == nil || booking.ID == 0) {
		return errors.New("booking id is required")
	}

	payload := ledgerTaskPayload{
		BookingID: bookingID,
		Booking:   booking,
	}
	if booking != nil {
		payload.Status = booking.Status
		if payload.BookingID == 0 {
			payload.BookingID = booking.ID
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	task := models.LedgerTask{
		TaskType:  taskType,
		BookingID: payload.BookingID,
		Payload:   string(payloadBytes),
		Status:    "pending",
	}

	if err := w.queue.CreateLedgerTask(ctx, &task); err != nil {
		return fmt.Errorf("persist ledger task: %w", err)
	}

	// Try redis first for durability.
	if w.redis != nil {
		if err := w.pushRedis(ctx, task); err != nil {
			w.logger.Warn().Err(err).Msg("Ledger redis push failed, fallback to local queue")
		} else {
			return nil
		}
	}

	// Fallback to the local queue if redis is missing or failed.
	select {
	case w.local <- task:
	default:
		w.logger.Warn().Int64("task_id", task.ID).Msg("Ledger local queue full, task left to polling")
	}

	return nil
}

// Start launches the main loop; stops when ctx is done.
func (w *LedgerWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Ledger worker started")
	defer w.logger.Info().Msg("Ledger worker stopped")

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

		tasks, err := w.queue.GetPendingLedgerTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("Failed to fetch pending ledger tasks")
			time.Sleep(w.pollInterval)
			continue
		}
		if len(tasks) == 0 {
			time.Sleep(w.pollInterval)
			continue
		}

		for i := range tasks {
			w.processTask(ctx, &tasks[i])
		}
	}
}

func (w *LedgerWorker) tryLocalQueue() (models.LedgerTask, bool) {
	select {
	case t := <-w.local:
		return t, true
	default:
		return models.LedgerTask{}, false
	}
}

func (w *LedgerWorker) tryRedis(ctx context.Context) (models.LedgerTask, bool) {
	if w.redis == nil {
		return models.LedgerTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.LedgerTask{}, false
		}
		w.logger.Error().Err(err).Msg("Ledger redis BRPOP error")
		return models.LedgerTask{}, false
	}
	if len(res) != 2 {
		return models.LedgerTask{}, false
	}
	var task models.LedgerTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("Failed to decode redis ledger task")
		return models.LedgerTask{}, false
	}
	return task, true
}

func (w *LedgerWorker) processTask(ctx context.Context, task *models.LedgerTask) {
	payload, err := w.decodePayload(task.Payload)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	if err := w.queue.UpdateLedgerTaskStatus(ctx, task.ID, "completed", "", nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark ledger task completed")
	}
}

func (w *LedgerWorker) handleTask(ctx context.Context, taskType string, payload ledgerTaskPayload) error {
	switch taskType {
	case TaskAppend:
		if payload.Booking == nil {
			return errors.New("booking payload missing")
		}
		return w.sink.AppendBooking(ctx, payload.Booking)
	case TaskUpdateStatus:
		if payload.BookingID == 0 || payload.Status == "" {
			return errors.New("booking id or status missing")
		}
		return w.sink.UpdateBookingStatus(ctx, payload.BookingID, payload.Status)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *LedgerWorker) retryOrFail(ctx context.Context, task *models.LedgerTask, cause error) {
	attempt := task.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		if err := w.queue.UpdateLedgerTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
			w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark ledger task failed")
		}
		w.pushDeadLetter(ctx, task)
		return
	}

	nextDelay := w.retryPolicy.NextDelay(attempt)
	nextTime := time.Now().Add(nextDelay)
	if err := w.queue.UpdateLedgerTaskStatus(ctx, task.ID, "retry", cause.Error(), &nextTime); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark ledger task for retry")
	}
}

func (w *LedgerWorker) failTask(ctx context.Context, task *models.LedgerTask, cause error) {
	if err := w.queue.UpdateLedgerTaskStatus(ctx, task.ID, "failed", cause.Error(), nil); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to mark ledger task failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *LedgerWorker) decodePayload(raw string) (ledgerTaskPayload, error) {
	var payload ledgerTaskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (w *LedgerWorker) pushRedis(ctx context.Context, task models.LedgerTask) error {
	if w.redis == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *LedgerWorker) pushDeadLetter(ctx context.Context, task *models.LedgerTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to encode dead letter task")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("Failed to push dead letter task")
	}
}
