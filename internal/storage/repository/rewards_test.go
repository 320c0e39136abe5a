package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

func TestStorage_RewardLinks(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	ctx := context.Background()

	t.Run("redeemed at most once under concurrency", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 0)
		link := models.RewardLink{
			ID:        uuid.New().String(),
			UserUUID:  userUUID,
			CodeHash:  "hash",
			Amount:    25,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, storage.CreateRewardLink(ctx, link))

		active, err := storage.GetActiveRewardLink(ctx, userUUID, time.Now())
		require.NoError(t, err)
		assert.Equal(t, link.ID, active.ID)

		var redeemed atomic.Int32
		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := storage.RedeemRewardLink(ctx, link.ID, userUUID, "hash", time.Hour); err == nil {
					redeemed.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), redeemed.Load())
		assert.Equal(t, int64(25), verification.Credits(t, userUUID))

		_, err = storage.GetActiveRewardLink(ctx, userUUID, time.Now())
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("wrong code or expired link", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 0)
		expired := models.RewardLink{
			ID: uuid.New().String(), UserUUID: userUUID, CodeHash: "h1", Amount: 5,
			ExpiresAt: time.Now().Add(-time.Minute),
		}
		live := models.RewardLink{
			ID: uuid.New().String(), UserUUID: userUUID, CodeHash: "h2", Amount: 5,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, storage.CreateRewardLink(ctx, expired))
		require.NoError(t, storage.CreateRewardLink(ctx, live))

		_, _, err := storage.RedeemRewardLink(ctx, expired.ID, userUUID, "h1", time.Hour)
		require.ErrorIs(t, err, ErrLinkUnavailable)

		_, _, err = storage.RedeemRewardLink(ctx, live.ID, userUUID, "wrong", time.Hour)
		require.ErrorIs(t, err, ErrLinkUnavailable)

		amount, balance, err := storage.RedeemRewardLink(ctx, live.ID, userUUID, "h2", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, int64(5), amount)
		assert.Equal(t, int64(5), balance)
	})

	t.Run("second redemption inside cooldown is refused", func(t *testing.T) {
		userUUID := factory.CreateUser(t, 0)
		first := models.RewardLink{
			ID: uuid.New().String(), UserUUID: userUUID, CodeHash: "c1", Amount: 25,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		second := models.RewardLink{
			ID: uuid.New().String(), UserUUID: userUUID, CodeHash: "c2", Amount: 25,
			ExpiresAt: time.Now().Add(time.Hour),
		}
		require.NoError(t, storage.CreateRewardLink(ctx, first))
		_, _, err := storage.RedeemRewardLink(ctx, first.ID, userUUID, "c1", time.Hour)
		require.NoError(t, err)

		require.NoError(t, storage.CreateRewardLink(ctx, second))
		latest, err := storage.GetLatestRewardLink(ctx, userUUID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
		assert.Nil(t, latest.RedeemedAt)

		_, _, err = storage.RedeemRewardLink(ctx, second.ID, userUUID, "c2", time.Hour)
		require.ErrorIs(t, err, ErrRewardCooldown)
		assert.Equal(t, int64(25), verification.Credits(t, userUUID))

		// ссылка осталась непогашенной и гасится, когда ограничение снято
		amount, balance, err := storage.RedeemRewardLink(ctx, second.ID, userUUID, "c2", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(25), amount)
		assert.Equal(t, int64(50), balance)
	})

	t.Run("latest link of user without links", func(t *testing.T) {
		_, err := storage.GetLatestRewardLink(ctx, factory.CreateUser(t, 0))
		require.ErrorIs(t, err, ErrNotFound)
	})
}
