// Package ledger единственная точка изменения баланса кредитов пользователя.
//
// Все изменения выполняются одним SQL-выражением, поэтому параллельные операции
// не теряют обновлений и баланс не уходит в минус.
package ledger

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/metrics"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Repository атомарные операции с балансом в хранилище.
type Repository interface {
	CheckSufficient(ctx context.Context, userUUID string, amount int64) (models.Sufficiency, error)
	GetCredits(ctx context.Context, userUUID string) (int64, error)
	AddCredits(ctx context.Context, userUUID string, amount int64) (bool, error)
	RemoveCredits(ctx context.Context, userUUID string, amount int64) (bool, error)
}

// Ledger сервис баланса кредитов.
type Ledger struct {
	repo Repository
	log  *slog.Logger
}

// New создаёт Ledger.
func New(repo Repository, log *slog.Logger) *Ledger {
	return &Ledger{repo: repo, log: log}
}

// CheckSufficient проверяет, хватает ли пользователю amount кредитов. Баланс не меняется.
func (l *Ledger) CheckSufficient(ctx context.Context, userUUID string, amount int64) (models.Sufficiency, error) {
	res, err := l.repo.CheckSufficient(ctx, userUUID, amount)
	if err != nil {
		metrics.LedgerOperations.WithLabelValues("check", metrics.ResultError).Inc()
		return models.Sufficiency{}, err
	}
	metrics.LedgerOperations.WithLabelValues("check", metrics.ResultOK).Inc()
	return res, nil
}

// Balance возвращает текущий баланс.
func (l *Ledger) Balance(ctx context.Context, userUUID string) (int64, error) {
	return l.repo.GetCredits(ctx, userUUID)
}

// AddCredits начисляет amount кредитов. Возвращает false, если пользователь не найден
// или сумма не положительная.
func (l *Ledger) AddCredits(ctx context.Context, userUUID string, amount int64) (bool, error) {
	if amount <= 0 {
		metrics.LedgerOperations.WithLabelValues("add", metrics.ResultRejected).Inc()
		return false, nil
	}
	ok, err := l.repo.AddCredits(ctx, userUUID, amount)
	if err != nil {
		l.log.Error("failed to add credits", slog.String("user_uuid", userUUID), sl.Err(err))
		metrics.LedgerOperations.WithLabelValues("add", metrics.ResultError).Inc()
		return false, err
	}
	if !ok {
		metrics.LedgerOperations.WithLabelValues("add", metrics.ResultRejected).Inc()
		return false, nil
	}
	l.log.Info("credits added", slog.String("user_uuid", userUUID), slog.Int64("amount", amount))
	metrics.LedgerOperations.WithLabelValues("add", metrics.ResultOK).Inc()
	return true, nil
}

// RemoveCredits списывает amount кредитов, только если их хватает.
// false означает, что баланс не изменился.
func (l *Ledger) RemoveCredits(ctx context.Context, userUUID string, amount int64) (bool, error) {
	if amount <= 0 {
		metrics.LedgerOperations.WithLabelValues("remove", metrics.ResultRejected).Inc()
		return false, nil
	}
	ok, err := l.repo.RemoveCredits(ctx, userUUID, amount)
	if err != nil {
		l.log.Error("failed to remove credits", slog.String("user_uuid", userUUID), sl.Err(err))
		metrics.LedgerOperations.WithLabelValues("remove", metrics.ResultError).Inc()
		return false, err
	}
	if !ok {
		l.log.Debug("credits not removed", slog.String("user_uuid", userUUID), slog.Int64("amount", amount))
		metrics.LedgerOperations.WithLabelValues("remove", metrics.ResultRejected).Inc()
		return false, nil
	}
	l.log.Info("credits removed", slog.String("user_uuid", userUUID), slog.Int64("amount", amount))
	metrics.LedgerOperations.WithLabelValues("remove", metrics.ResultOK).Inc()
	return true, nil
}
