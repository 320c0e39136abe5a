// Package queue принимает запросы на создание серверов и ставит их в очередь сборки.
package queue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/metrics"
	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/services/quota"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

// Repository операции хранилища, нужные очереди.
type Repository interface {
	GetUser(ctx context.Context, userUUID string) (*models.User, error)
	HasAtLeastOnePendingItem(ctx context.Context, userUUID string) (bool, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetEgg(ctx context.Context, id int64) (*models.Egg, error)
	CountLocationLoad(ctx context.Context, locationID int64) (int64, error)
	CreateQueueItem(ctx context.Context, item models.QueueItem) (int64, error)
	GetQueueItem(ctx context.Context, id int64) (*models.QueueItem, error)
	DeleteQueueItem(ctx context.Context, id int64, userUUID string) (bool, error)
	GetQueueItemsPaginated(ctx context.Context, page, limit int) ([]models.QueueItem, int64, error)
	GetQueueStats(ctx context.Context) (models.QueueStats, error)
}

// UsageCalculator текущее потребление ресурсов пользователя.
type UsageCalculator interface {
	GetUsage(ctx context.Context, user *models.User, forceRefresh bool) (models.Usage, error)
}

// SettingsStore настройки провижининга.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Service сервис очереди сборки.
type Service struct {
	repo     Repository
	usage    UsageCalculator
	settings SettingsStore
	log      *slog.Logger
}

// New создаёт Service.
func New(repo Repository, usage UsageCalculator, settings SettingsStore, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		usage:    usage,
		settings: settings,
		log:      log,
	}
}

func reject(cerr *models.CodedError) *models.CodedError {
	metrics.EnqueueRejections.WithLabelValues(cerr.Code).Inc()
	return cerr
}

// Enqueue проверяет запрос и добавляет элемент очереди в статусе pending.
// Ошибки валидации возвращаются как *models.CodedError, при этом ничего не записывается.
func (s *Service) Enqueue(ctx context.Context, userUUID string, req models.BuildRequest) (int64, error) {
	log := s.log.With(slog.String("user_uuid", userUUID))

	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	if !st.ProvisioningEnabled {
		return 0, reject(models.NewCodedError(models.CodeServerCreationDisabled, "server creation is currently disabled"))
	}

	user, err := s.repo.GetUser(ctx, userUUID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, reject(models.NewCodedError(models.CodeUserNotFound, "user not found"))
	}
	if err != nil {
		return 0, err
	}

	pending, err := s.repo.HasAtLeastOnePendingItem(ctx, userUUID)
	if err != nil {
		return 0, err
	}
	if pending {
		return 0, reject(pendingError())
	}

	if cerr, err := s.validateReferences(ctx, user, req); err != nil || cerr != nil {
		if cerr != nil {
			return 0, reject(cerr)
		}
		return 0, err
	}

	usage, err := s.usage.GetUsage(ctx, user, true)
	if err != nil {
		log.Error("failed to compute usage", sl.Err(err))
		return 0, models.NewCodedError(models.CodeHostingUnavailable, "resource usage is temporarily unavailable")
	}
	if cerr := quota.Check(user.Limits, usage, req.Resources()); cerr != nil {
		log.Info("build request exceeds limits", slog.String("code", cerr.Code))
		return 0, reject(cerr)
	}

	id, err := s.repo.CreateQueueItem(ctx, models.QueueItem{
		Name:        req.Name,
		Description: req.Description,
		RAM:         req.RAM,
		Disk:        req.Disk,
		CPU:         req.CPU,
		Ports:       req.Ports,
		Databases:   req.Databases,
		Backups:     req.Backups,
		LocationID:  req.LocationID,
		UserUUID:    userUUID,
		CategoryID:  req.CategoryID,
		EggID:       req.EggID,
	})
	switch {
	case errors.Is(err, repository.ErrPendingExists):
		return 0, reject(pendingError())
	case errors.Is(err, repository.ErrNotFound):
		return 0, reject(models.NewCodedError(models.CodeUserNotFound, "user not found"))
	case err != nil:
		return 0, err
	}

	log.Info("build request enqueued", slog.Int64("id", id))
	return id, nil
}

func pendingError() *models.CodedError {
	return models.NewCodedError(models.CodePendingRequest, "you already have a pending server creation request")
}

func (s *Service) validateReferences(ctx context.Context, user *models.User, req models.BuildRequest) (*models.CodedError, error) {
	location, err := s.repo.GetLocation(ctx, req.LocationID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewCodedError(models.CodeLocationNotFound, "location not found"), nil
	}
	if err != nil {
		return nil, err
	}

	if _, err = s.repo.GetCategory(ctx, req.CategoryID); errors.Is(err, repository.ErrNotFound) {
		return models.NewCodedError(models.CodeCategoryNotFound, "category not found"), nil
	} else if err != nil {
		return nil, err
	}

	egg, err := s.repo.GetEgg(ctx, req.EggID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewCodedError(models.CodeEggNotFound, "egg not found"), nil
	}
	if err != nil {
		return nil, err
	}
	if egg.CategoryID != req.CategoryID {
		return models.NewCodedError(models.CodeEggCategoryMismatch, "egg does not belong to the selected category"), nil
	}

	if location.VIPOnly && !user.VIP {
		return models.NewCodedError(models.CodeVIPRequired, "this location is available to VIP users only"), nil
	}

	if location.MaxServers > 0 {
		load, err := s.repo.CountLocationLoad(ctx, location.ID)
		if err != nil {
			return nil, err
		}
		if load >= location.MaxServers {
			return models.NewCodedError(models.CodeLocationFull, "location has no free slots"), nil
		}
	}
	return nil, nil
}

// Cancel отменяет pending-элемент пользователя. Элементы в сборке не отменяются.
func (s *Service) Cancel(ctx context.Context, userUUID string, id int64) error {
	item, err := s.repo.GetQueueItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewCodedError(models.CodeQueueItemNotFound, "queue item not found")
	}
	if err != nil {
		return err
	}
	if item.UserUUID != userUUID || item.Deleted {
		return models.NewCodedError(models.CodeQueueItemNotFound, "queue item not found")
	}
	if item.Status != models.QueueStatusPending {
		return models.NewCodedError(models.CodeQueueItemNotPending, "only pending requests can be cancelled")
	}

	ok, err := s.repo.DeleteQueueItem(ctx, id, userUUID)
	if err != nil {
		return err
	}
	if !ok {
		// воркер успел забрать элемент между чтением и удалением
		return models.NewCodedError(models.CodeQueueItemNotPending, "only pending requests can be cancelled")
	}
	s.log.Info("queue item cancelled", slog.Int64("id", id), slog.String("user_uuid", userUUID))
	return nil
}

// List возвращает страницу очереди и общее количество элементов.
func (s *Service) List(ctx context.Context, page, limit int) ([]models.QueueItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.GetQueueItemsPaginated(ctx, page, limit)
}

// Stats возвращает счётчики очереди по статусам.
func (s *Service) Stats(ctx context.Context) (models.QueueStats, error) {
	return s.repo.GetQueueStats(ctx)
}
