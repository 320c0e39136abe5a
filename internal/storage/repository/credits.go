package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// CheckSufficient сообщает, хватает ли пользователю кредитов. Ничего не изменяет.
func (s *Storage) CheckSufficient(ctx context.Context, userUUID string, amount int64) (models.Sufficiency, error) {
	const op = "storage.CheckSufficient"
	if err := checkCtx(ctx, op); err != nil {
		return models.Sufficiency{}, err
	}

	credits, err := getCredits(ctx, s.DB, userUUID)
	if err != nil {
		return models.Sufficiency{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.Sufficiency{
		HasSufficient:  credits >= amount,
		CurrentCredits: credits,
	}, nil
}

// GetCredits возвращает текущий баланс пользователя.
func (s *Storage) GetCredits(ctx context.Context, userUUID string) (int64, error) {
	const op = "storage.GetCredits"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	credits, err := getCredits(ctx, s.DB, userUUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return credits, nil
}

// AddCredits атомарно увеличивает баланс. Возвращает false, если пользователь не найден.
func (s *Storage) AddCredits(ctx context.Context, userUUID string, amount int64) (bool, error) {
	const op = "storage.AddCredits"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	ok, err := addCredits(ctx, s.DB, userUUID, amount)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// RemoveCredits атомарно списывает кредиты, если баланса достаточно.
// Проверка и списание выполняются одним оператором UPDATE, поэтому
// конкурентные списания не могут увести баланс в минус.
func (s *Storage) RemoveCredits(ctx context.Context, userUUID string, amount int64) (bool, error) {
	const op = "storage.RemoveCredits"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	ok, err := removeCredits(ctx, s.DB, userUUID, amount)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

func getCredits(ctx context.Context, q querier, userUUID string) (int64, error) {
	var credits int64
	err := q.QueryRowContext(ctx, `SELECT credits FROM users WHERE uuid = $1`, userUUID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	return credits, err
}

func addCredits(ctx context.Context, q querier, userUUID string, amount int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET credits = credits + $1 WHERE uuid = $2`, amount, userUUID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func removeCredits(ctx context.Context, q querier, userUUID string, amount int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE users SET credits = credits - $1 WHERE uuid = $2 AND credits >= $1`, amount, userUUID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
