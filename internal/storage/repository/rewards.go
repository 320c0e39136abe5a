package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// GetActiveRewardLink возвращает непогашенную и неистёкшую ссылку пользователя.
func (s *Storage) GetActiveRewardLink(ctx context.Context, userUUID string, now time.Time) (*models.RewardLink, error) {
	const op = "storage.GetActiveRewardLink"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var l models.RewardLink
	err := s.DB.QueryRowContext(ctx, `SELECT id, user_uuid, code_hash, amount, expires_at, created_at
		FROM reward_links
		WHERE user_uuid = $1 AND redeemed_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1`, userUUID, now).
		Scan(&l.ID, &l.UserUUID, &l.CodeHash, &l.Amount, &l.ExpiresAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

// GetLatestRewardLink возвращает последнюю выданную ссылку пользователя, в том числе погашенную.
func (s *Storage) GetLatestRewardLink(ctx context.Context, userUUID string) (*models.RewardLink, error) {
	const op = "storage.GetLatestRewardLink"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var l models.RewardLink
	err := s.DB.QueryRowContext(ctx, `SELECT id, user_uuid, code_hash, amount, expires_at, redeemed_at, created_at
		FROM reward_links
		WHERE user_uuid = $1
		ORDER BY created_at DESC
		LIMIT 1`, userUUID).
		Scan(&l.ID, &l.UserUUID, &l.CodeHash, &l.Amount, &l.ExpiresAt, &l.RedeemedAt, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

// CreateRewardLink сохраняет новую ссылку-вознаграждение.
func (s *Storage) CreateRewardLink(ctx context.Context, l models.RewardLink) error {
	const op = "storage.CreateRewardLink"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO reward_links (id, user_uuid, code_hash, amount, expires_at)
		VALUES ($1, $2, $3, $4, $5)`, l.ID, l.UserUUID, l.CodeHash, l.Amount, l.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RedeemRewardLink погашает ссылку и начисляет кредиты в одной транзакции.
// Ссылка погашается не более одного раза. Если другая ссылка пользователя погашена
// позже чем cooldown назад, возвращается ErrRewardCooldown. Возвращает начисленную сумму и новый баланс.
func (s *Storage) RedeemRewardLink(ctx context.Context, linkID, userUUID, codeHash string, cooldown time.Duration) (int64, int64, error) {
	const op = "storage.RedeemRewardLink"
	if err := checkCtx(ctx, op); err != nil {
		return 0, 0, err
	}

	var amount, balance int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		// блокировка строки пользователя сериализует погашения одного пользователя
		var locked string
		err := tx.QueryRowContext(ctx,
			`SELECT uuid FROM users WHERE uuid = $1 FOR UPDATE`, userUUID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if cooldown > 0 {
			var recent bool
			err = tx.QueryRowContext(ctx, `SELECT EXISTS (
				SELECT 1 FROM reward_links
				WHERE user_uuid = $1 AND id <> $2
				  AND redeemed_at > NOW() - make_interval(secs => $3))`,
				userUUID, linkID, cooldown.Seconds()).Scan(&recent)
			if err != nil {
				return err
			}
			if recent {
				return ErrRewardCooldown
			}
		}

		err = tx.QueryRowContext(ctx, `UPDATE reward_links
			SET redeemed_at = NOW()
			WHERE id = $1 AND user_uuid = $2 AND code_hash = $3
			  AND redeemed_at IS NULL AND expires_at > NOW()
			RETURNING amount`, linkID, userUUID, codeHash).Scan(&amount)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLinkUnavailable
		}
		if err != nil {
			return err
		}

		ok, err := addCredits(ctx, tx, userUUID, amount)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		balance, err = getCredits(ctx, tx, userUUID)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return amount, balance, nil
}
