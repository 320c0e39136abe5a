package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

func TestStorage_QueueLogs(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)

	expired, err := storage.SaveQueueLog(ctx, models.QueueLog{Build: 1, Log: "a", Purge: true, ExpiresAt: &past})
	require.NoError(t, err)
	lockedID, err := storage.SaveQueueLog(ctx, models.QueueLog{Build: 2, Log: "b", Purge: true, Locked: true, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = storage.SaveQueueLog(ctx, models.QueueLog{Build: 3, Log: "c", Purge: true, ExpiresAt: &future})
	require.NoError(t, err)
	_, err = storage.SaveQueueLog(ctx, models.QueueLog{Build: 4, Log: "d", Purge: false, ExpiresAt: &past})
	require.NoError(t, err)

	t.Run("append joins with newline", func(t *testing.T) {
		affected, err := storage.AppendQueueLog(ctx, expired, "line 2")
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		l, err := storage.GetQueueLog(ctx, expired)
		require.NoError(t, err)
		assert.Equal(t, "a\nline 2", l.Log)
	})

	t.Run("expired selects only purgeable past records", func(t *testing.T) {
		logs, err := storage.GetExpiredQueueLogs(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.ElementsMatch(t, []int64{expired, lockedID}, []int64{logs[0].ID, logs[1].ID})
	})

	t.Run("locked records survive deletion", func(t *testing.T) {
		affected, err := storage.MarkQueueLogsDeleted(ctx, []int64{expired, lockedID})
		require.NoError(t, err)
		assert.Equal(t, 1, affected)

		logs, err := storage.GetExpiredQueueLogs(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, lockedID, logs[0].ID)
	})

	t.Run("by build", func(t *testing.T) {
		logs, err := storage.GetQueueLogsByBuild(ctx, 3)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "c", logs[0].Log)
	})
}
