// Package quota считает потребление ресурсов пользователя и сравнивает его с лимитами тарифа.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/hosting"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Unlimited значение свободного ресурса без ограничения.
const Unlimited int64 = -1

// Panel серверы пользователя в панели.
type Panel interface {
	ListUserServers(ctx context.Context, userID int64) ([]hosting.Server, error)
}

// Repository ресурсы элементов очереди, которые ещё не стали серверами.
type Repository interface {
	SumInFlightResources(ctx context.Context, userUUID string) (models.Usage, error)
}

// Cache кеш агрегатов панели.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Calculator калькулятор квот.
type Calculator struct {
	panel Panel
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Calculator. ttl время жизни закешированного агрегата панели.
func New(panel Panel, repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Calculator {
	return &Calculator{
		panel: panel,
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

func usageKey(panelUserID int64) string {
	return fmt.Sprintf("usage:%d", panelUserID)
}

// GetUsage возвращает потребление пользователя: серверы в панели плюс элементы очереди
// в статусах pending и building. Агрегат панели может отставать от реального состояния
// на время жизни кеша, forceRefresh читает панель напрямую.
func (c *Calculator) GetUsage(ctx context.Context, user *models.User, forceRefresh bool) (models.Usage, error) {
	panelUsage, err := c.panelUsage(ctx, user.PterodactylUserID, forceRefresh)
	if err != nil {
		return models.Usage{}, err
	}

	inFlight, err := c.repo.SumInFlightResources(ctx, user.UUID)
	if err != nil {
		return models.Usage{}, err
	}
	return panelUsage.Add(inFlight), nil
}

// InvalidateUsage сбрасывает закешированный агрегат панели.
func (c *Calculator) InvalidateUsage(ctx context.Context, panelUserID int64) {
	key := usageKey(panelUserID)
	if err := c.cache.Invalidate(ctx, key); err != nil {
		c.log.Warn("failed to invalidate usage cache", slog.String("key", key), sl.Err(err))
	}
}

func (c *Calculator) panelUsage(ctx context.Context, panelUserID int64, forceRefresh bool) (models.Usage, error) {
	key := usageKey(panelUserID)
	if !forceRefresh {
		var cached models.Usage
		found, err := c.cache.Get(ctx, key, &cached)
		if err != nil {
			c.log.Warn("failed to read usage cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return cached, nil
		}
	}

	servers, err := c.panel.ListUserServers(ctx, panelUserID)
	if err != nil {
		return models.Usage{}, fmt.Errorf("list panel servers: %w", err)
	}
	usage := SumServers(servers)

	if err := c.cache.Set(ctx, key, usage, c.ttl); err != nil {
		c.log.Warn("failed to cache usage", slog.String("key", key), sl.Err(err))
	}
	return usage, nil
}

// SumServers суммирует лимиты серверов панели.
func SumServers(servers []hosting.Server) models.Usage {
	var u models.Usage
	for _, s := range servers {
		u = u.Add(ServerUsage(s))
	}
	return u
}

// ServerUsage ресурсы, которые занимает один сервер панели.
func ServerUsage(s hosting.Server) models.Usage {
	return models.Usage{
		Memory:      s.Limits.Memory,
		CPU:         s.Limits.CPU,
		Disk:        s.Limits.Disk,
		Databases:   s.FeatureLimits.Databases,
		Backups:     s.FeatureLimits.Backups,
		Allocations: s.FeatureLimits.Allocations,
		Servers:     1,
	}
}

// unlimited отрицательный лимит баз данных и бэкапов снимает ограничение.
// Для остальных ресурсов отрицательный лимит сравнивается как есть.
func unlimited(limit int64, field string) bool {
	return limit < 0 && (field == "databases" || field == "backups")
}

type resource struct {
	field string
	code  string
	limit int64
	used  int64
	add   int64
}

func resources(limits models.Limits, usage, request models.Usage) []resource {
	return []resource{
		{"memory", models.CodeMaxMemory, limits.Memory, usage.Memory, request.Memory},
		{"cpu", models.CodeMaxCPU, limits.CPU, usage.CPU, request.CPU},
		{"disk", models.CodeMaxDisk, limits.Disk, usage.Disk, request.Disk},
		{"databases", models.CodeMaxDatabase, limits.Databases, usage.Databases, request.Databases},
		{"backups", models.CodeMaxBackup, limits.Backups, usage.Backups, request.Backups},
		{"allocations", models.CodeMaxAllocation, limits.Allocations, usage.Allocations, request.Allocations},
		{"servers", models.CodeMaxServer, limits.Servers, usage.Servers, request.Servers},
	}
}

// GetFreeResources остаток по каждому ресурсу. Для неограниченных ресурсов Unlimited.
func GetFreeResources(limits models.Limits, usage models.Usage) models.Usage {
	free := make(map[string]int64, 7)
	for _, r := range resources(limits, usage, models.Usage{}) {
		if unlimited(r.limit, r.field) {
			free[r.field] = Unlimited
			continue
		}
		free[r.field] = r.limit - r.used
	}
	return models.Usage{
		Memory:      free["memory"],
		CPU:         free["cpu"],
		Disk:        free["disk"],
		Databases:   free["databases"],
		Backups:     free["backups"],
		Allocations: free["allocations"],
		Servers:     free["servers"],
	}
}

// Check возвращает ошибку для первого превышенного ресурса в порядке
// memory, cpu, disk, databases, backups, allocations, servers или nil.
func Check(limits models.Limits, usage, request models.Usage) *models.CodedError {
	for _, r := range resources(limits, usage, request) {
		if unlimited(r.limit, r.field) {
			continue
		}
		if r.used+r.add > r.limit {
			return models.NewLimitError(r.code, r.field, r.used, r.limit, r.add)
		}
	}
	return nil
}
