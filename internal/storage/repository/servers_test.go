package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_RenewServer(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	ctx := context.Background()
	locationID := factory.CreateLocation(t, 0, false)

	t.Run("extends from now when already expired", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 150)
		past := time.Now().Add(-48 * time.Hour)
		serverID := factory.CreateServer(t, userUUID, locationID, &past)
		_, err := storage.SetServerSuspended(ctx, serverID, true)
		require.NoError(t, err)

		expiresAt, wasSuspended, err := storage.RenewServer(ctx, serverID, userUUID, 100, 7)
		require.NoError(t, err)
		assert.True(t, wasSuspended)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, time.Minute)
		assert.Equal(t, int64(50), verification.Credits(t, userUUID))

		srv, err := storage.GetServer(ctx, serverID)
		require.NoError(t, err)
		assert.False(t, srv.Suspended)
	})

	t.Run("extends from current expiry when in the future", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 100)
		future := time.Now().Add(72 * time.Hour)
		serverID := factory.CreateServer(t, userUUID, locationID, &future)

		expiresAt, _, err := storage.RenewServer(ctx, serverID, userUUID, 100, 7)
		require.NoError(t, err)
		assert.WithinDuration(t, future.Add(7*24*time.Hour), expiresAt, time.Second)
	})

	t.Run("insufficient credits leaves expiry untouched", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 99)
		future := time.Now().Add(24 * time.Hour)
		serverID := factory.CreateServer(t, userUUID, locationID, &future)

		_, _, err := storage.RenewServer(ctx, serverID, userUUID, 100, 7)
		require.ErrorIs(t, err, ErrInsufficientCredits)
		assert.Equal(t, int64(99), verification.Credits(t, userUUID))

		srv, err := storage.GetServer(ctx, serverID)
		require.NoError(t, err)
		assert.WithinDuration(t, future, *srv.ExpiresAt, time.Second)
	})

	t.Run("foreign server is not found", func(t *testing.T) {
		owner := factory.CreateUser(t, 0)
		other := factory.CreateUser(t, 500)
		serverID := factory.CreateServer(t, owner, locationID, nil)

		_, _, err := storage.RenewServer(ctx, serverID, other, 100, 7)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, int64(500), verification.Credits(t, other))
	})
}

func TestStorage_ExpiredServers(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	ctx := context.Background()
	locationID := factory.CreateLocation(t, 0, false)
	userUUID := factory.CreateUser(t, 0)

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	expired := factory.CreateServer(t, userUUID, locationID, &past)
	factory.CreateServer(t, userUUID, locationID, &future)
	factory.CreateServer(t, userUUID, locationID, nil)

	servers, err := storage.ListExpiredServers(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, servers, 1)
	assert.Equal(t, expired, servers[0].ID)

	affected, err := storage.MarkServerDeleted(ctx, expired)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	servers, err = storage.ListExpiredServers(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, servers)

	_, err = storage.GetServer(ctx, expired)
	require.ErrorIs(t, err, ErrNotFound)
}
