package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const pendingUniqueIndex = "uq_queue_items_user_pending"

const queueColumns = `id, name, description, ram, disk, cpu, ports, databases, backups,
	location_id, user_uuid, category_id, egg_id, status, created_at, updated_at, deleted`

func scanQueueItem(row interface{ Scan(dest ...any) error }) (models.QueueItem, error) {
	var q models.QueueItem
	err := row.Scan(&q.ID, &q.Name, &q.Description, &q.RAM, &q.Disk, &q.CPU, &q.Ports,
		&q.Databases, &q.Backups, &q.LocationID, &q.UserUUID, &q.CategoryID, &q.EggID,
		&q.Status, &q.CreatedAt, &q.UpdatedAt, &q.Deleted)
	return q, err
}

// CreateQueueItem добавляет элемент очереди в статусе pending.
// Строка пользователя блокируется на время транзакции, поэтому проверка
// на существующий pending-элемент и вставка не пересекаются с параллельными запросами.
func (s *Storage) CreateQueueItem(ctx context.Context, item models.QueueItem) (int64, error) {
	const op = "storage.CreateQueueItem"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var locked string
		err := tx.QueryRowContext(ctx,
			`SELECT uuid FROM users WHERE uuid = $1 FOR UPDATE`, item.UserUUID).Scan(&locked)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		pending, err := hasPending(ctx, tx, item.UserUUID)
		if err != nil {
			return err
		}
		if pending {
			return ErrPendingExists
		}

		query := `INSERT INTO queue_items (name, description, ram, disk, cpu, ports, databases,
				      backups, location_id, user_uuid, category_id, egg_id, status)
				  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 'pending')
				  RETURNING id`
		err = tx.QueryRowContext(ctx, query,
			item.Name, item.Description, item.RAM, item.Disk, item.CPU, item.Ports, item.Databases,
			item.Backups, item.LocationID, item.UserUUID, item.CategoryID, item.EggID,
		).Scan(&id)
		if isUniqueViolation(err, pendingUniqueIndex) {
			return ErrPendingExists
		}
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// HasAtLeastOnePendingItem сообщает, есть ли у пользователя неудалённый pending-элемент.
func (s *Storage) HasAtLeastOnePendingItem(ctx context.Context, userUUID string) (bool, error) {
	const op = "storage.HasAtLeastOnePendingItem"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	pending, err := hasPending(ctx, s.DB, userUUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return pending, nil
}

func hasPending(ctx context.Context, q querier, userUUID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM queue_items
			WHERE user_uuid = $1 AND status = 'pending' AND deleted = FALSE
		)`, userUUID).Scan(&exists)
	return exists, err
}

// GetQueueItem возвращает элемент очереди по ID, включая удалённые.
func (s *Storage) GetQueueItem(ctx context.Context, id int64) (*models.QueueItem, error) {
	const op = "storage.GetQueueItem"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	item, err := scanQueueItem(s.DB.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM queue_items WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &item, nil
}

// GetPendingQueueItems возвращает все неудалённые pending-элементы в порядке создания.
func (s *Storage) GetPendingQueueItems(ctx context.Context) ([]models.QueueItem, error) {
	const op = "storage.GetPendingQueueItems"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+queueColumns+` FROM queue_items
		WHERE status = 'pending' AND deleted = FALSE
		ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.QueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ClaimQueueItem переводит элемент из pending в building.
// Возвращает false, если элемент уже забран другим воркером, отменён или не существует.
func (s *Storage) ClaimQueueItem(ctx context.Context, id int64) (bool, error) {
	const op = "storage.ClaimQueueItem"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE queue_items
		SET status = 'building', updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND deleted = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// UpdateQueueStatus меняет статус элемента только по разрешённым переходам:
// pending -> building и building -> completed/failed.
func (s *Storage) UpdateQueueStatus(ctx context.Context, id int64, status models.QueueStatus) (bool, error) {
	const op = "storage.UpdateQueueStatus"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE queue_items
		SET status = $1::varchar, updated_at = NOW()
		WHERE id = $2
		  AND (($1::varchar = 'building' AND status = 'pending' AND deleted = FALSE)
		    OR ($1::varchar IN ('completed', 'failed') AND status = 'building'))`, string(status), id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// DeleteQueueItem мягко удаляет pending-элемент, принадлежащий пользователю.
func (s *Storage) DeleteQueueItem(ctx context.Context, id int64, userUUID string) (bool, error) {
	const op = "storage.DeleteQueueItem"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE queue_items
		SET deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_uuid = $2 AND status = 'pending' AND deleted = FALSE`, id, userUUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return affected == 1, nil
}

// GetQueueItemsPaginated возвращает страницу элементов очереди и их общее количество.
func (s *Storage) GetQueueItemsPaginated(ctx context.Context, page, limit int) ([]models.QueueItem, int64, error) {
	const op = "storage.GetQueueItemsPaginated"
	if err := checkCtx(ctx, op); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_items WHERE deleted = FALSE`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	offset := (page - 1) * limit
	rows, err := s.DB.QueryContext(ctx, `SELECT `+queueColumns+` FROM queue_items
		WHERE deleted = FALSE
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.QueueItem, 0, limit)
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, item)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// GetQueueStats возвращает количество элементов очереди по статусам.
func (s *Storage) GetQueueStats(ctx context.Context) (models.QueueStats, error) {
	const op = "storage.GetQueueStats"
	if err := checkCtx(ctx, op); err != nil {
		return models.QueueStats{}, err
	}

	var st models.QueueStats
	err := s.DB.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'building'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM queue_items
		WHERE deleted = FALSE`).Scan(&st.Total, &st.Pending, &st.Building, &st.Completed, &st.Failed)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

// SumInFlightResources суммирует ресурсы pending и building элементов пользователя.
func (s *Storage) SumInFlightResources(ctx context.Context, userUUID string) (models.Usage, error) {
	const op = "storage.SumInFlightResources"
	if err := checkCtx(ctx, op); err != nil {
		return models.Usage{}, err
	}

	var u models.Usage
	err := s.DB.QueryRowContext(ctx, `SELECT
			COALESCE(SUM(ram), 0), COALESCE(SUM(cpu), 0), COALESCE(SUM(disk), 0),
			COALESCE(SUM(databases), 0), COALESCE(SUM(backups), 0), COALESCE(SUM(ports), 0),
			COUNT(*)
		FROM queue_items
		WHERE user_uuid = $1 AND status IN ('pending', 'building') AND deleted = FALSE`,
		userUUID).Scan(&u.Memory, &u.CPU, &u.Disk, &u.Databases, &u.Backups, &u.Allocations, &u.Servers)
	if err != nil {
		return models.Usage{}, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
