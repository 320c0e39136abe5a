// Package servers управляет уже созданными серверами: продление за кредиты,
// просмотр, изменение ресурсов и приостановка просроченных серверов.
package servers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hostcredit/internal/hosting"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/metrics"
	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/services/quota"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

const (
	detailsTTL = 30 * time.Second
	defaultIO  = 500
)

// Repository операции хранилища с серверами.
type Repository interface {
	GetUser(ctx context.Context, userUUID string) (*models.User, error)
	GetServer(ctx context.Context, id int64) (*models.Server, error)
	RenewServer(ctx context.Context, serverID int64, userUUID string, cost int64, days int) (time.Time, bool, error)
	ListExpiredServers(ctx context.Context, before time.Time) ([]models.Server, error)
	SetServerSuspended(ctx context.Context, id int64, suspended bool) (int, error)
	MarkServerDeleted(ctx context.Context, id int64) (int, error)
}

// Panel операции панели с серверами.
type Panel interface {
	GetServer(ctx context.Context, id int64) (*hosting.Server, error)
	UpdateServerBuild(ctx context.Context, id int64, req hosting.UpdateBuildRequest) (*hosting.Server, error)
	UpdateServerDetails(ctx context.Context, id int64, req hosting.UpdateDetailsRequest) (*hosting.Server, error)
	SuspendServer(ctx context.Context, id int64) error
	UnsuspendServer(ctx context.Context, id int64) error
	DeleteServer(ctx context.Context, id int64, force bool) error
}

// UsageCalculator потребление ресурсов пользователя.
type UsageCalculator interface {
	GetUsage(ctx context.Context, user *models.User, forceRefresh bool) (models.Usage, error)
	InvalidateUsage(ctx context.Context, panelUserID int64)
}

// SettingsStore настройки продления.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Cache кеш данных сервера.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service сервис управления серверами.
type Service struct {
	repo     Repository
	panel    Panel
	usage    UsageCalculator
	settings SettingsStore
	cache    Cache
	log      *slog.Logger
	now      func() time.Time
}

// New создаёт Service.
func New(repo Repository, panel Panel, usage UsageCalculator, settings SettingsStore, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		panel:    panel,
		usage:    usage,
		settings: settings,
		cache:    cache,
		log:      log,
		now:      time.Now,
	}
}

func detailsKey(serverID int64) string {
	return fmt.Sprintf("server:%d", serverID)
}

func (s *Service) invalidateDetails(ctx context.Context, serverID int64) {
	key := detailsKey(serverID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate server cache", slog.String("key", key), sl.Err(err))
	}
}

func notFound() *models.CodedError {
	return models.NewCodedError(models.CodeServerNotFound, "server not found")
}

// panelError переводит ошибку панели в ошибку для пользователя.
func panelError(err error) error {
	if errors.Is(err, hosting.ErrNotFound) {
		return notFound()
	}
	if hosting.IsTransient(err) {
		return models.NewCodedError(models.CodeHostingUnavailable, "hosting panel is temporarily unavailable")
	}
	return err
}

// owned возвращает неудалённый сервер пользователя.
func (s *Service) owned(ctx context.Context, userUUID string, serverID int64) (*models.Server, error) {
	srv, err := s.repo.GetServer(ctx, serverID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	if srv.UserUUID != userUUID || srv.Deleted {
		return nil, notFound()
	}
	return srv, nil
}

// Renew продлевает сервер за кредиты. Списание и сдвиг срока выполняются в одной транзакции.
// Приостановленный сервер после продления возобновляется в панели.
func (s *Service) Renew(ctx context.Context, userUUID string, serverID int64) (time.Time, error) {
	log := s.log.With(slog.String("user_uuid", userUUID), slog.Int64("server_id", serverID))

	st, err := s.settings.Get(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !st.RenewalEnabled {
		return time.Time{}, models.NewCodedError(models.CodeRenewalDisabled, "server renewal is disabled")
	}

	srv, err := s.owned(ctx, userUUID, serverID)
	if err != nil {
		return time.Time{}, err
	}

	expiresAt, wasSuspended, err := s.repo.RenewServer(ctx, serverID, userUUID, st.RenewalCost, st.RenewalDays)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return time.Time{}, notFound()
	case errors.Is(err, repository.ErrInsufficientCredits):
		metrics.LedgerOperations.WithLabelValues("renew", metrics.ResultRejected).Inc()
		return time.Time{}, models.NewCodedError(models.CodeInsufficientCredits,
			fmt.Sprintf("renewal costs %d credits", st.RenewalCost))
	case err != nil:
		metrics.LedgerOperations.WithLabelValues("renew", metrics.ResultError).Inc()
		return time.Time{}, err
	}
	metrics.LedgerOperations.WithLabelValues("renew", metrics.ResultOK).Inc()
	log.Info("server renewed", slog.Time("expires_at", expiresAt), slog.Int64("cost", st.RenewalCost))

	if wasSuspended {
		if err := s.panel.UnsuspendServer(ctx, srv.PterodactylID); err != nil {
			log.Error("CRITICAL: server renewed but panel unsuspend failed",
				slog.Int64("pterodactyl_id", srv.PterodactylID), sl.Err(err))
		}
	}
	s.invalidateDetails(ctx, serverID)
	return expiresAt, nil
}

// Details возвращает данные сервера из панели вместе с локальными метаданными.
func (s *Service) Details(ctx context.Context, userUUID string, serverID int64) (*models.ServerDetails, error) {
	srv, err := s.owned(ctx, userUUID, serverID)
	if err != nil {
		return nil, err
	}

	key := detailsKey(serverID)
	var cached models.ServerDetails
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read server cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	ps, err := s.panel.GetServer(ctx, srv.PterodactylID)
	if err != nil {
		s.log.Error("failed to load panel server", slog.Int64("pterodactyl_id", srv.PterodactylID), sl.Err(err))
		return nil, panelError(err)
	}

	details := &models.ServerDetails{
		Server:      *srv,
		Identifier:  ps.Identifier,
		Name:        ps.Name,
		Description: ps.Description,
		Status:      ps.Status,
		Limits:      quota.ServerUsage(*ps),
	}
	if err := s.cache.Set(ctx, key, details, detailsTTL); err != nil {
		s.log.Warn("failed to cache server", slog.String("key", key), sl.Err(err))
	}
	return details, nil
}

// UpdateResources меняет ресурсы сервера. Свободные ресурсы считаются без учёта
// текущих лимитов этого сервера.
func (s *Service) UpdateResources(ctx context.Context, userUUID string, serverID int64, req models.UpdateResourcesRequest) error {
	srv, err := s.owned(ctx, userUUID, serverID)
	if err != nil {
		return err
	}
	user, err := s.repo.GetUser(ctx, userUUID)
	if err != nil {
		return err
	}

	ps, err := s.panel.GetServer(ctx, srv.PterodactylID)
	if err != nil {
		return panelError(err)
	}
	usage, err := s.usage.GetUsage(ctx, user, true)
	if err != nil {
		s.log.Error("failed to compute usage", sl.Err(err))
		return models.NewCodedError(models.CodeHostingUnavailable, "resource usage is temporarily unavailable")
	}

	current := quota.ServerUsage(*ps)
	current.Servers = 0
	if cerr := quota.Check(user.Limits, usage.Sub(current), req.Resources()); cerr != nil {
		return cerr
	}

	_, err = s.panel.UpdateServerBuild(ctx, srv.PterodactylID, hosting.UpdateBuildRequest{
		Allocation: ps.Allocation,
		Memory:     req.RAM,
		Swap:       ps.Limits.Swap,
		Disk:       req.Disk,
		IO:         defaultIO,
		CPU:        req.CPU,
		FeatureLimits: hosting.FeatureLimits{
			Databases:   req.Databases,
			Backups:     req.Backups,
			Allocations: req.Ports,
		},
	})
	if err != nil {
		s.log.Error("failed to update server build", slog.Int64("server_id", serverID), sl.Err(err))
		return panelError(err)
	}

	s.usage.InvalidateUsage(ctx, user.PterodactylUserID)
	s.invalidateDetails(ctx, serverID)
	s.log.Info("server resources updated", slog.Int64("server_id", serverID), slog.String("user_uuid", userUUID))
	return nil
}

// Rename меняет название и описание сервера.
func (s *Service) Rename(ctx context.Context, userUUID string, serverID int64, name, description string) error {
	srv, err := s.owned(ctx, userUUID, serverID)
	if err != nil {
		return err
	}
	ps, err := s.panel.GetServer(ctx, srv.PterodactylID)
	if err != nil {
		return panelError(err)
	}

	_, err = s.panel.UpdateServerDetails(ctx, srv.PterodactylID, hosting.UpdateDetailsRequest{
		Name:        name,
		User:        ps.User,
		ExternalID:  ps.ExternalID,
		Description: description,
	})
	if err != nil {
		return panelError(err)
	}
	s.invalidateDetails(ctx, serverID)
	return nil
}

// SuspendExpired приостанавливает просроченные серверы, а серверы, просроченные
// дольше льготного периода, удаляет из панели.
func (s *Service) SuspendExpired(ctx context.Context) (suspended, deleted int, err error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, 0, err
	}
	now := s.now()
	expired, err := s.repo.ListExpiredServers(ctx, now)
	if err != nil {
		return 0, 0, err
	}
	if len(expired) == 0 {
		return 0, 0, nil
	}

	graceEnd := now.Add(-time.Duration(st.SuspendGraceDays) * 24 * time.Hour)
	for _, srv := range expired {
		if srv.ExpiresAt == nil {
			continue
		}
		log := s.log.With(slog.Int64("server_id", srv.ID), slog.Int64("pterodactyl_id", srv.PterodactylID))

		if srv.ExpiresAt.Before(graceEnd) {
			if err := s.panel.DeleteServer(ctx, srv.PterodactylID, true); err != nil && !errors.Is(err, hosting.ErrNotFound) {
				log.Error("failed to delete expired server", sl.Err(err))
				continue
			}
			if _, err := s.repo.MarkServerDeleted(ctx, srv.ID); err != nil {
				log.Error("CRITICAL: panel server deleted but local record not updated", sl.Err(err))
				continue
			}
			s.invalidateDetails(ctx, srv.ID)
			deleted++
			continue
		}

		if srv.Suspended {
			continue
		}
		if err := s.panel.SuspendServer(ctx, srv.PterodactylID); err != nil {
			log.Error("failed to suspend expired server", sl.Err(err))
			continue
		}
		if _, err := s.repo.SetServerSuspended(ctx, srv.ID, true); err != nil {
			log.Error("failed to mark server suspended", sl.Err(err))
			continue
		}
		s.invalidateDetails(ctx, srv.ID)
		suspended++
	}

	s.log.Info("expired servers processed", slog.Int("suspended", suspended), slog.Int("deleted", deleted))
	return suspended, deleted, nil
}
