package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const queueLogColumns = `id, build, log, locked, purge, expires_at, deleted, created_at`

func scanQueueLog(row interface{ Scan(dest ...any) error }) (models.QueueLog, error) {
	var (
		l         models.QueueLog
		expiresAt sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.Build, &l.Log, &l.Locked, &l.Purge, &expiresAt, &l.Deleted, &l.CreatedAt); err != nil {
		return l, err
	}
	if expiresAt.Valid {
		l.ExpiresAt = &expiresAt.Time
	}
	return l, nil
}

// SaveQueueLog сохраняет лог сборки и возвращает его ID.
func (s *Storage) SaveQueueLog(ctx context.Context, l models.QueueLog) (int64, error) {
	const op = "storage.SaveQueueLog"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO queue_logs (build, log, locked, purge, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`, l.Build, l.Log, l.Locked, l.Purge, l.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// AppendQueueLog дописывает строки в конец существующего лога.
func (s *Storage) AppendQueueLog(ctx context.Context, id int64, text string) (int, error) {
	const op = "storage.AppendQueueLog"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE queue_logs
		SET log = CASE WHEN log = '' THEN $1 ELSE log || E'\n' || $1 END
		WHERE id = $2 AND deleted = FALSE`, text, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// GetQueueLog возвращает лог по ID.
func (s *Storage) GetQueueLog(ctx context.Context, id int64) (*models.QueueLog, error) {
	const op = "storage.GetQueueLog"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanQueueLog(s.DB.QueryRowContext(ctx,
		`SELECT `+queueLogColumns+` FROM queue_logs WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

// GetQueueLogsByBuild возвращает неудалённые логи сборки.
func (s *Storage) GetQueueLogsByBuild(ctx context.Context, build int64) ([]models.QueueLog, error) {
	const op = "storage.GetQueueLogsByBuild"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.listQueueLogs(ctx, op, `SELECT `+queueLogColumns+` FROM queue_logs
		WHERE build = $1 AND deleted = FALSE ORDER BY id`, build)
}

// GetExpiredQueueLogs возвращает логи, помеченные к очистке, срок которых истёк к now.
func (s *Storage) GetExpiredQueueLogs(ctx context.Context, now time.Time) ([]models.QueueLog, error) {
	const op = "storage.GetExpiredQueueLogs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	return s.listQueueLogs(ctx, op, `SELECT `+queueLogColumns+` FROM queue_logs
		WHERE purge = TRUE AND expires_at < $1 AND deleted = FALSE ORDER BY id`, now)
}

func (s *Storage) listQueueLogs(ctx context.Context, op, query string, args ...any) ([]models.QueueLog, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.QueueLog
	for rows.Next() {
		l, err := scanQueueLog(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkQueueLogsDeleted мягко удаляет незаблокированные логи с указанными ID.
func (s *Storage) MarkQueueLogsDeleted(ctx context.Context, ids []int64) (int, error) {
	const op = "storage.MarkQueueLogsDeleted"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE queue_logs SET deleted = TRUE
		WHERE id = ANY($1) AND locked = FALSE AND deleted = FALSE`, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}
