package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const serverColumns = `id, pterodactyl_id, build, user_uuid, location_id, expires_at,
	suspended, purge, deleted, created_at`

func scanServer(row interface{ Scan(dest ...any) error }) (models.Server, error) {
	var (
		srv       models.Server
		build     sql.NullInt64
		expiresAt sql.NullTime
	)
	err := row.Scan(&srv.ID, &srv.PterodactylID, &build, &srv.UserUUID, &srv.LocationID, &expiresAt,
		&srv.Suspended, &srv.Purge, &srv.Deleted, &srv.CreatedAt)
	if err != nil {
		return srv, err
	}
	if build.Valid {
		srv.Build = &build.Int64
	}
	if expiresAt.Valid {
		srv.ExpiresAt = &expiresAt.Time
	}
	return srv, nil
}

// CreateServer сохраняет запись о сервере, созданном в панели.
func (s *Storage) CreateServer(ctx context.Context, srv models.Server) (int64, error) {
	const op = "storage.CreateServer"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var id int64
	err := s.DB.QueryRowContext(ctx, `INSERT INTO servers
			(pterodactyl_id, build, user_uuid, location_id, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		srv.PterodactylID, srv.Build, srv.UserUUID, srv.LocationID, srv.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetServer возвращает неудалённый сервер по ID.
func (s *Storage) GetServer(ctx context.Context, id int64) (*models.Server, error) {
	const op = "storage.GetServer"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	srv, err := scanServer(s.DB.QueryRowContext(ctx,
		`SELECT `+serverColumns+` FROM servers WHERE id = $1 AND deleted = FALSE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &srv, nil
}

// ListExpiredServers возвращает неудалённые серверы, срок которых истёк до before.
func (s *Storage) ListExpiredServers(ctx context.Context, before time.Time) ([]models.Server, error) {
	const op = "storage.ListExpiredServers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+serverColumns+` FROM servers
		WHERE deleted = FALSE AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at`, before)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.Server
	for rows.Next() {
		srv, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, srv)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetServerSuspended меняет флаг приостановки сервера.
func (s *Storage) SetServerSuspended(ctx context.Context, id int64, suspended bool) (int, error) {
	const op = "storage.SetServerSuspended"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE servers SET suspended = $1 WHERE id = $2 AND deleted = FALSE`, suspended, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// MarkServerDeleted помечает сервер удалённым и подлежащим очистке.
func (s *Storage) MarkServerDeleted(ctx context.Context, id int64) (int, error) {
	const op = "storage.MarkServerDeleted"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE servers SET deleted = TRUE, purge = TRUE WHERE id = $1 AND deleted = FALSE`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(affected), nil
}

// RenewServer в одной транзакции списывает стоимость продления и сдвигает срок сервера
// на days дней от большего из текущего срока и текущего момента.
// Возвращает новый срок и признак того, что сервер был приостановлен.
func (s *Storage) RenewServer(ctx context.Context, serverID int64, userUUID string, cost int64, days int) (time.Time, bool, error) {
	const op = "storage.RenewServer"
	if err := checkCtx(ctx, op); err != nil {
		return time.Time{}, false, err
	}

	var (
		expiresAt time.Time
		suspended bool
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT suspended FROM servers
			WHERE id = $1 AND user_uuid = $2 AND deleted = FALSE
			FOR UPDATE`, serverID, userUUID).Scan(&suspended)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		ok, err := removeCredits(ctx, tx, userUUID, cost)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInsufficientCredits
		}

		return tx.QueryRowContext(ctx, `UPDATE servers
			SET expires_at = GREATEST(COALESCE(expires_at, NOW()), NOW()) + make_interval(days => $1::int),
			    suspended = FALSE
			WHERE id = $2
			RETURNING expires_at`, days, serverID).Scan(&expiresAt)
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return expiresAt, suspended, nil
}

// CountLocationLoad считает активные серверы и незавершённые сборки в локации.
func (s *Storage) CountLocationLoad(ctx context.Context, locationID int64) (int64, error) {
	const op = "storage.CountLocationLoad"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int64
	err := s.DB.QueryRowContext(ctx, `SELECT
			(SELECT COUNT(*) FROM servers WHERE location_id = $1 AND deleted = FALSE) +
			(SELECT COUNT(*) FROM queue_items
			 WHERE location_id = $1 AND status IN ('pending', 'building') AND deleted = FALSE)`,
		locationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
