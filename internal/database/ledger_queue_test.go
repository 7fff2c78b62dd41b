package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerTaskLifecycle(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.LedgerTask{
		TaskType:  "append",
		BookingID: 1,
		Payload:   `{"booking_id":1}`,
		Status:    "pending",
	}
	require.NoError(t, db.CreateLedgerTask(ctx, task))
	assert.NotZero(t, task.ID)

	pending, err := db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "append", pending[0].TaskType)
	assert.Equal(t, int64(1), pending[0].BookingID)

	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "completed", "", nil))

	pending, err = db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLedgerTaskRetry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.LedgerTask{
		TaskType:  "update_status",
		BookingID: 2,
		Payload:   `{"booking_id":2}`,
		Status:    "pending",
	}
	require.NoError(t, db.CreateLedgerTask(ctx, task))

	// Перевод в retry увеличивает счетчик попыток
	futureRetry := time.Now().UTC().Add(time.Hour)
	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "retry", "sheets unavailable", &futureRetry))

	// Задача с next_retry_at в будущем в выборку не попадает
	pending, err := db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	pastRetry := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "retry", "sheets unavailable", &pastRetry))

	pending, err = db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "sheets unavailable", *pending[0].LastError)
}

func TestGetFailedLedgerTasks(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	task := &models.LedgerTask{
		TaskType:  "append",
		BookingID: 3,
		Payload:   `{"booking_id":3}`,
		Status:    "pending",
	}
	require.NoError(t, db.CreateLedgerTask(ctx, task))
	require.NoError(t, db.UpdateLedgerTaskStatus(ctx, task.ID, "failed", "gave up", nil))

	failed, err := db.GetFailedLedgerTasks(ctx)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "failed", failed[0].Status)
	require.NotNil(t, failed[0].ProcessedAt)

	pending, err := db.GetPendingLedgerTasks(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
