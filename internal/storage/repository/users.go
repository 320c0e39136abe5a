package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const userColumns = `uuid, username, role, vip, credits, pterodactyl_user_id,
	memory_limit, cpu_limit, disk_limit, database_limit, backup_limit,
	allocation_limit, server_limit`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.UUID, &u.Username, &u.Role, &u.VIP, &u.Credits, &u.PterodactylUserID,
		&u.Limits.Memory, &u.Limits.CPU, &u.Limits.Disk, &u.Limits.Databases, &u.Limits.Backups,
		&u.Limits.Allocations, &u.Limits.Servers)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser возвращает пользователя по его UUID.
func (s *Storage) GetUser(ctx context.Context, userUUID string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUUID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}
