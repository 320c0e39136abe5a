// Package settings хранилище настроек биллинга: значения из таблицы settings
// поверх значений конфига.
package settings

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const (
	cacheKey = "settings"
	cacheTTL = time.Minute
)

// Repository пары ключ-значение настроек.
type Repository interface {
	GetSettings(ctx context.Context) (map[string]string, error)
}

// Cache кеш настроек.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Store настройки только для чтения.
type Store struct {
	repo     Repository
	cache    Cache
	defaults models.Settings
	log      *slog.Logger
}

// New создаёт Store со значениями по умолчанию из секции billing.
func New(repo Repository, cache Cache, billing config.Billing, log *slog.Logger) *Store {
	return &Store{
		repo:  repo,
		cache: cache,
		defaults: models.Settings{
			RenewalEnabled:      billing.RenewalEnabled,
			RenewalDays:         billing.RenewalDays,
			RenewalCost:         billing.RenewalCost,
			SuspendGraceDays:    billing.SuspendGraceDays,
			ProvisioningEnabled: billing.ProvisioningEnabled,
		},
		log: log,
	}
}

// Get возвращает текущие настройки.
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	var cached models.Settings
	found, err := s.cache.Get(ctx, cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read settings cache", sl.Err(err))
	}
	if found {
		return cached, nil
	}

	rows, err := s.repo.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, err
	}
	result := s.merge(rows)

	if err := s.cache.Set(ctx, cacheKey, result, cacheTTL); err != nil {
		s.log.Warn("failed to cache settings", sl.Err(err))
	}
	return result, nil
}

func (s *Store) merge(rows map[string]string) models.Settings {
	result := s.defaults
	for key, value := range rows {
		switch key {
		case "renewal_enabled":
			s.parseBool(key, value, &result.RenewalEnabled)
		case "provisioning_enabled":
			s.parseBool(key, value, &result.ProvisioningEnabled)
		case "renewal_days":
			s.parseInt(key, value, func(v int64) { result.RenewalDays = int(v) })
		case "suspend_grace_days":
			s.parseInt(key, value, func(v int64) { result.SuspendGraceDays = int(v) })
		case "renewal_cost":
			s.parseInt(key, value, func(v int64) { result.RenewalCost = v })
		}
	}
	return result
}

func (s *Store) parseBool(key, value string, dst *bool) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		s.log.Warn("invalid setting value, using default", slog.String("key", key), slog.String("value", value))
		return
	}
	*dst = v
}

func (s *Store) parseInt(key, value string, set func(int64)) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil || v < 0 {
		s.log.Warn("invalid setting value, using default", slog.String("key", key), slog.String("value", value))
		return
	}
	set(v)
}
