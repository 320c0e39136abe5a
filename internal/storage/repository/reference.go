package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// GetLocation возвращает локацию по ID.
func (s *Storage) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	const op = "storage.GetLocation"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var l models.Location
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, pterodactyl_location_id, max_servers, vip_only
		FROM locations WHERE id = $1`, id).
		Scan(&l.ID, &l.Name, &l.PterodactylLocationID, &l.MaxServers, &l.VIPOnly)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

// GetCategory возвращает категорию по ID.
func (s *Storage) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	const op = "storage.GetCategory"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var c models.Category
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, pterodactyl_nest_id
		FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.PterodactylNestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &c, nil
}

// GetEgg возвращает шаблон сервера по ID.
func (s *Storage) GetEgg(ctx context.Context, id int64) (*models.Egg, error) {
	const op = "storage.GetEgg"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var e models.Egg
	err := s.DB.QueryRowContext(ctx, `SELECT id, name, category_id, pterodactyl_egg_id
		FROM eggs WHERE id = $1`, id).Scan(&e.ID, &e.Name, &e.CategoryID, &e.PterodactylEggID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &e, nil
}
