// Package provisioner обрабатывает очередь сборки: забирает pending-элементы,
// создаёт серверы в панели и фиксирует результат.
package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/hosting"
	"github.com/magabrotheeeer/hostcredit/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/metrics"
	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/services/logstore"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

const (
	defaultSwap = 0
	defaultIO   = 500

	finalizeTimeout = 30 * time.Second
)

// Repository операции хранилища, нужные воркеру.
type Repository interface {
	GetPendingQueueItems(ctx context.Context) ([]models.QueueItem, error)
	ClaimQueueItem(ctx context.Context, id int64) (bool, error)
	UpdateQueueStatus(ctx context.Context, id int64, status models.QueueStatus) (bool, error)
	GetUser(ctx context.Context, userUUID string) (*models.User, error)
	GetLocation(ctx context.Context, id int64) (*models.Location, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetEgg(ctx context.Context, id int64) (*models.Egg, error)
	CreateServer(ctx context.Context, srv models.Server) (int64, error)
}

// Panel API панели.
type Panel interface {
	GetLocation(ctx context.Context, id int64) (*hosting.Location, error)
	GetNest(ctx context.Context, id int64) (*hosting.Nest, error)
	GetEgg(ctx context.Context, nestID, eggID int64) (*hosting.Egg, error)
	GetUser(ctx context.Context, id int64) (*hosting.User, error)
	CreateServer(ctx context.Context, req hosting.CreateServerRequest) (*hosting.Server, error)
	GetServerByExternalID(ctx context.Context, externalID string) (*hosting.Server, error)
	DeleteServer(ctx context.Context, id int64, force bool) error
}

// LogStore хранилище логов сборки.
type LogStore interface {
	SaveJobLogs(ctx context.Context, buildID int64, lines []string, purge bool, expiresAt *time.Time) (int64, error)
	LogFailure(ctx context.Context, buildID int64, lines []string, errMsg string) (int64, error)
}

// SettingsStore настройки продления.
type SettingsStore interface {
	Get(ctx context.Context) (models.Settings, error)
}

// Publisher публикует события о результате сборки.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// UsageInvalidator сбрасывает закешированное потребление пользователя.
type UsageInvalidator interface {
	InvalidateUsage(ctx context.Context, panelUserID int64)
}

// BuildEvent событие о завершении сборки.
type BuildEvent struct {
	Build         int64              `json:"build"`
	UserUUID      string             `json:"user_uuid"`
	Status        models.QueueStatus `json:"status"`
	ServerID      int64              `json:"server_id,omitempty"`
	PterodactylID int64              `json:"pterodactyl_id,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// Worker воркер очереди сборки.
type Worker struct {
	repo      Repository
	panel     Panel
	logs      LogStore
	settings  SettingsStore
	publisher Publisher
	usage     UsageInvalidator
	log       *slog.Logger

	interval    time.Duration
	concurrency int
	maxAttempts int
	maxBackoff  time.Duration

	now func() time.Time
	// newTimer таймер пауз между попытками; nil означает таймер backoff по умолчанию.
	newTimer func() backoff.Timer
}

// New создаёт Worker. publisher и usage могут быть nil.
func New(
	repo Repository,
	panel Panel,
	logs LogStore,
	settings SettingsStore,
	publisher Publisher,
	usage UsageInvalidator,
	cfg config.Worker,
	log *slog.Logger,
) *Worker {
	w := &Worker{
		repo:        repo,
		panel:       panel,
		logs:        logs,
		settings:    settings,
		publisher:   publisher,
		usage:       usage,
		log:         log,
		interval:    cfg.Interval,
		concurrency: cfg.Concurrency,
		maxAttempts: cfg.MaxAttempts,
		maxBackoff:  cfg.MaxBackoff,
		now:         time.Now,
		newTimer:    func() backoff.Timer { return nil },
	}
	if w.interval <= 0 {
		w.interval = time.Minute
	}
	if w.concurrency < 1 {
		w.concurrency = 1
	}
	if w.maxAttempts < 1 {
		w.maxAttempts = 1
	}
	if w.maxBackoff <= 0 {
		w.maxBackoff = 30 * time.Second
	}
	return w
}

// Start выполняет проход сразу и затем с интервалом до отмены ctx.
func (w *Worker) Start(ctx context.Context) {
	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("provisioning worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		w.log.Error("provisioning pass failed", sl.Err(err))
	}
}

// Run выполняет один проход по очереди. Элементы разных пользователей
// обрабатываются параллельно, элементы одного пользователя по порядку.
func (w *Worker) Run(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.WorkerRunDuration.Observe(time.Since(start).Seconds())
	}()

	items, err := w.repo.GetPendingQueueItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		w.log.Info("no pending builds")
		return nil
	}

	st, err := w.settings.Get(ctx)
	if err != nil {
		return err
	}
	w.log.Info("found pending builds", slog.Int("count", len(items)))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, group := range groupByUser(items) {
		g.Go(func() error {
			for _, item := range group {
				if err := ctx.Err(); err != nil {
					return err
				}
				w.process(ctx, item, st)
			}
			return nil
		})
	}
	return g.Wait()
}

// groupByUser группирует элементы по пользователю, сохраняя порядок.
func groupByUser(items []models.QueueItem) [][]models.QueueItem {
	index := make(map[string]int)
	var groups [][]models.QueueItem
	for _, item := range items {
		i, ok := index[item.UserUUID]
		if !ok {
			i = len(groups)
			index[item.UserUUID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], item)
	}
	return groups
}

type buildResult struct {
	serverID      int64
	pterodactylID int64
	panelUserID   int64
}

func (w *Worker) process(ctx context.Context, item models.QueueItem, st models.Settings) {
	log := w.log.With(slog.Int64("build", item.ID), slog.String("user_uuid", item.UserUUID))

	claimed, err := w.repo.ClaimQueueItem(ctx, item.ID)
	if err != nil {
		log.Error("failed to claim queue item", sl.Err(err))
		return
	}
	if !claimed {
		log.Debug("queue item already claimed or cancelled")
		return
	}

	journal := logstore.NewJournal()
	journal.Printf("build %d claimed for user %s", item.ID, item.UserUUID)

	res, err := w.build(ctx, item, st, journal, log)

	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err != nil {
		w.fail(fctx, item, journal, err, log)
		return
	}
	w.complete(fctx, item, res, journal, log)
}

func (w *Worker) build(ctx context.Context, item models.QueueItem, st models.Settings, journal *logstore.Journal, log *slog.Logger) (buildResult, error) {
	user, err := w.repo.GetUser(ctx, item.UserUUID)
	if err != nil {
		return buildResult{}, localError("user", item.UserUUID, err)
	}
	location, err := w.repo.GetLocation(ctx, item.LocationID)
	if err != nil {
		return buildResult{}, localError("location", item.LocationID, err)
	}
	category, err := w.repo.GetCategory(ctx, item.CategoryID)
	if err != nil {
		return buildResult{}, localError("category", item.CategoryID, err)
	}
	egg, err := w.repo.GetEgg(ctx, item.EggID)
	if err != nil {
		return buildResult{}, localError("egg", item.EggID, err)
	}
	if egg.CategoryID != category.ID {
		return buildResult{}, fmt.Errorf("egg %d does not belong to category %d", egg.ID, category.ID)
	}
	journal.Printf("local validation passed")

	var panelEgg *hosting.Egg
	err = w.retry(ctx, journal, "validate panel objects", func(int) error {
		if _, err := w.panel.GetLocation(ctx, location.PterodactylLocationID); err != nil {
			return remoteError("location", location.PterodactylLocationID, err)
		}
		if _, err := w.panel.GetNest(ctx, category.PterodactylNestID); err != nil {
			return remoteError("nest", category.PterodactylNestID, err)
		}
		e, err := w.panel.GetEgg(ctx, category.PterodactylNestID, egg.PterodactylEggID)
		if err != nil {
			return remoteError("egg", egg.PterodactylEggID, err)
		}
		if _, err := w.panel.GetUser(ctx, user.PterodactylUserID); err != nil {
			return remoteError("user", user.PterodactylUserID, err)
		}
		panelEgg = e
		return nil
	})
	if err != nil {
		return buildResult{}, err
	}
	journal.Printf("panel validation passed")

	req := createRequest(item, user, location, panelEgg)
	var created *hosting.Server
	err = w.retry(ctx, journal, "create server", func(attempt int) error {
		if attempt > 1 {
			// предыдущая попытка могла создать сервер, но ответ потерялся
			existing, err := w.panel.GetServerByExternalID(ctx, req.ExternalID)
			if err == nil {
				journal.Printf("found server %d created by a previous attempt", existing.ID)
				created = existing
				return nil
			}
			if !errors.Is(err, hosting.ErrNotFound) {
				return err
			}
		}
		s, err := w.panel.CreateServer(ctx, req)
		if err != nil {
			return err
		}
		created = s
		return nil
	})
	if err != nil && mayHaveCreated(err) {
		created = w.findCreated(ctx, req.ExternalID, journal, log)
	}
	if created == nil && err != nil {
		return buildResult{}, fmt.Errorf("create server: %w", err)
	}
	if created == nil || created.ID <= 0 {
		return buildResult{}, fmt.Errorf("create server: %w", hosting.ErrMalformedResponse)
	}
	journal.Printf("panel server %d created", created.ID)

	srv := models.Server{
		PterodactylID: created.ID,
		Build:         &item.ID,
		UserUUID:      item.UserUUID,
		LocationID:    item.LocationID,
	}
	if st.RenewalEnabled {
		expiresAt := w.now().Add(time.Duration(st.RenewalDays) * 24 * time.Hour)
		srv.ExpiresAt = &expiresAt
	}

	// сервер в панели уже существует, запись сохраняется и при остановке воркера
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	serverID, err := w.repo.CreateServer(sctx, srv)
	if err != nil {
		log.Error("CRITICAL: panel server created but local record failed",
			slog.Int64("pterodactyl_id", created.ID), sl.Err(err))
		journal.Printf("failed to save server record: %v", err)
		w.compensate(sctx, created.ID, journal, log)
		return buildResult{}, fmt.Errorf("save server record: %w", err)
	}
	journal.Printf("server record %d saved", serverID)

	return buildResult{
		serverID:      serverID,
		pterodactylID: created.ID,
		panelUserID:   user.PterodactylUserID,
	}, nil
}

// mayHaveCreated сообщает, мог ли запрос создания выполниться в панели без ответа.
func mayHaveCreated(err error) bool {
	return hosting.IsTransient(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// findCreated ищет сервер сборки по external id после неудачной последней попытки.
func (w *Worker) findCreated(ctx context.Context, externalID string, journal *logstore.Journal, log *slog.Logger) *hosting.Server {
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	existing, err := w.panel.GetServerByExternalID(lctx, externalID)
	switch {
	case err == nil:
		journal.Printf("found server %d created by an unanswered attempt", existing.ID)
		return existing
	case errors.Is(err, hosting.ErrNotFound):
		return nil
	default:
		log.Error("CRITICAL: could not check panel for a server created by this build",
			slog.String("external_id", externalID), sl.Err(err))
		journal.Printf("failed to look up server %s: %v", externalID, err)
		return nil
	}
}

// compensate удаляет сервер из панели, если локальная запись не сохранилась.
func (w *Worker) compensate(ctx context.Context, pterodactylID int64, journal *logstore.Journal, log *slog.Logger) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := w.panel.DeleteServer(dctx, pterodactylID, true); err != nil && !errors.Is(err, hosting.ErrNotFound) {
		log.Error("CRITICAL: failed to delete orphaned panel server",
			slog.Int64("pterodactyl_id", pterodactylID), sl.Err(err))
		journal.Printf("failed to delete orphaned panel server %d: %v", pterodactylID, err)
		return
	}
	journal.Printf("orphaned panel server %d deleted", pterodactylID)
}

func createRequest(item models.QueueItem, user *models.User, location *models.Location, egg *hosting.Egg) hosting.CreateServerRequest {
	env := make(map[string]string, len(egg.Environment))
	for k, v := range egg.Environment {
		env[k] = v
	}
	return hosting.CreateServerRequest{
		Name:        item.Name,
		Description: item.Description,
		User:        user.PterodactylUserID,
		Egg:         egg.ID,
		DockerImage: egg.DockerImage,
		Startup:     egg.Startup,
		Environment: env,
		Limits: hosting.Limits{
			Memory: item.RAM,
			Swap:   defaultSwap,
			Disk:   item.Disk,
			IO:     defaultIO,
			CPU:    item.CPU,
		},
		FeatureLimits: hosting.FeatureLimits{
			Databases:   item.Databases,
			Backups:     item.Backups,
			Allocations: item.Ports,
		},
		Deploy: hosting.Deploy{
			Locations:   []int64{location.PterodactylLocationID},
			DedicatedIP: false,
			PortRange:   []string{},
		},
		ExternalID:        hosting.ExternalID(item.ID),
		StartOnCompletion: true,
	}
}

func (w *Worker) complete(ctx context.Context, item models.QueueItem, res buildResult, journal *logstore.Journal, log *slog.Logger) {
	ok, err := w.repo.UpdateQueueStatus(ctx, item.ID, models.QueueStatusCompleted)
	if err != nil {
		log.Error("failed to mark build completed", sl.Err(err))
	} else if !ok {
		log.Warn("build status was not updated to completed")
	}
	journal.Printf("build completed")

	if _, err := w.logs.SaveJobLogs(ctx, item.ID, journal.Lines(), false, nil); err != nil {
		log.Error("failed to save build logs", sl.Err(err))
	}
	if w.usage != nil {
		w.usage.InvalidateUsage(ctx, res.panelUserID)
	}
	w.publish(rabbitmq.RoutingBuildCompleted, BuildEvent{
		Build:         item.ID,
		UserUUID:      item.UserUUID,
		Status:        models.QueueStatusCompleted,
		ServerID:      res.serverID,
		PterodactylID: res.pterodactylID,
	}, log)

	metrics.Builds.WithLabelValues(string(models.QueueStatusCompleted)).Inc()
	log.Info("build completed", slog.Int64("server_id", res.serverID), slog.Int64("pterodactyl_id", res.pterodactylID))
}

func (w *Worker) fail(ctx context.Context, item models.QueueItem, journal *logstore.Journal, cause error, log *slog.Logger) {
	log.Error("build failed", sl.Err(cause))

	ok, err := w.repo.UpdateQueueStatus(ctx, item.ID, models.QueueStatusFailed)
	if err != nil {
		log.Error("failed to mark build failed", sl.Err(err))
	} else if !ok {
		log.Warn("build status was not updated to failed")
	}

	if _, err := w.logs.LogFailure(ctx, item.ID, journal.Lines(), cause.Error()); err != nil {
		log.Error("failed to save build failure logs", sl.Err(err))
	}
	w.publish(rabbitmq.RoutingBuildFailed, BuildEvent{
		Build:    item.ID,
		UserUUID: item.UserUUID,
		Status:   models.QueueStatusFailed,
		Error:    cause.Error(),
	}, log)

	metrics.Builds.WithLabelValues(string(models.QueueStatusFailed)).Inc()
}

func (w *Worker) publish(routingKey string, event BuildEvent, log *slog.Logger) {
	if w.publisher == nil {
		return
	}
	if err := w.publisher.Publish(routingKey, event); err != nil {
		log.Warn("failed to publish build event", slog.String("routing_key", routingKey), sl.Err(err))
	}
}

// panelBackOff подменяет очередную паузу значением Retry-After, если панель его прислала.
type panelBackOff struct {
	backoff.BackOff
	retryAfter time.Duration
	max        time.Duration
}

func (b *panelBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if b.retryAfter > 0 {
		next = min(b.retryAfter, b.max)
		b.retryAfter = 0
	}
	return next
}

// retry повторяет fn при временных ошибках панели не более maxAttempts раз.
// Пауза растёт вдвое с одной секунды и ограничена maxBackoff.
func (w *Worker) retry(ctx context.Context, journal *logstore.Journal, what string, fn func(attempt int) error) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = time.Second
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = w.maxBackoff
	exp.MaxElapsedTime = 0

	pb := &panelBackOff{BackOff: exp, max: w.maxBackoff}
	b := backoff.WithContext(backoff.WithMaxRetries(pb, uint64(w.maxAttempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if !hosting.IsTransient(err) {
			return backoff.Permanent(err)
		}
		pb.retryAfter = hosting.RetryAfter(err)
		return err
	}
	notify := func(err error, delay time.Duration) {
		journal.Printf("%s: attempt %d failed, retrying in %s: %v", what, attempt, delay, err)
		metrics.HostingRetries.Inc()
	}
	return backoff.RetryNotifyWithTimer(operation, b, notify, w.newTimer())
}

func localError(kind string, id any, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s %v not found", kind, id)
	}
	return fmt.Errorf("load %s %v: %w", kind, id, err)
}

func remoteError(kind string, id int64, err error) error {
	if errors.Is(err, hosting.ErrNotFound) {
		return fmt.Errorf("panel %s %d not found: %w", kind, id, err)
	}
	return fmt.Errorf("panel %s %d: %w", kind, id, err)
}
