// Package provisioner собирает фоновый процесс: воркер очереди сборки,
// очистку просроченных логов и приостановку просроченных серверов.
package provisioner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hostcredit/internal/cache"
	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/hosting"
	"github.com/magabrotheeeer/hostcredit/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/migrations"
	"github.com/magabrotheeeer/hostcredit/internal/services/logstore"
	worker "github.com/magabrotheeeer/hostcredit/internal/services/provisioner"
	"github.com/magabrotheeeer/hostcredit/internal/services/quota"
	"github.com/magabrotheeeer/hostcredit/internal/services/servers"
	"github.com/magabrotheeeer/hostcredit/internal/services/settings"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

// Sweeper удаляет просроченные логи.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// ExpirySuspender приостанавливает и удаляет просроченные серверы.
type ExpirySuspender interface {
	SuspendExpired(ctx context.Context) (suspended, deleted int, err error)
}

// App фоновый процесс.
type App struct {
	logger  *slog.Logger
	db      *repository.Storage
	cache   *cache.Cache
	conn    *amqp.Connection
	channel *amqp.Channel

	worker  *worker.Worker
	logs    Sweeper
	servers ExpirySuspender

	sweepInterval  time.Duration
	expiryInterval time.Duration
}

// New подключается к хранилищам и брокеру и собирает воркер.
// Без адреса брокера события сборки не публикуются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		logger:         logger,
		db:             db,
		cache:          cacheRedis,
		sweepInterval:  cfg.SweepInterval,
		expiryInterval: cfg.ExpiryInterval,
	}

	var publisher worker.Publisher
	if cfg.RabbitMQURL != "" {
		a.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			a.close()
			return nil, err
		}
		a.channel, err = rabbitmq.SetupChannel(a.conn, cfg.RabbitMQExchange, rabbitmq.GetProvisioningQueues())
		if err != nil {
			a.close()
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(a.channel, cfg.RabbitMQExchange)
	} else {
		logger.Warn("rabbitmq url is empty, build events are not published")
	}

	panel := hosting.NewClient(cfg.Hosting)
	settingsStore := settings.New(db, cacheRedis, cfg.Billing, logger)
	usage := quota.New(panel, db, cacheRedis, cfg.UsageCacheTTL, logger)
	logs := logstore.New(db, cfg.LogRetention, logger)

	a.worker = worker.New(db, panel, logs, settingsStore, publisher, usage, cfg.Worker, logger)
	a.logs = logs
	a.servers = servers.New(db, panel, usage, settingsStore, cacheRedis, logger)
	return a, nil
}

// Run запускает воркер и периодические задачи и ждёт их остановки после отмены ctx.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		a.worker.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		every(ctx, a.sweepInterval, func(ctx context.Context) {
			n, err := a.logs.Sweep(ctx)
			if err != nil {
				a.logger.Error("failed to sweep queue logs", sl.Err(err))
				return
			}
			a.logger.Debug("queue logs swept", slog.Int("deleted", n))
		})
	}()
	go func() {
		defer wg.Done()
		every(ctx, a.expiryInterval, func(ctx context.Context) {
			suspended, deleted, err := a.servers.SuspendExpired(ctx)
			if err != nil {
				a.logger.Error("failed to process expired servers", sl.Err(err))
				return
			}
			a.logger.Info("expired servers processed", slog.Int("suspended", suspended), slog.Int("deleted", deleted))
		})
	}()

	<-ctx.Done()
	a.logger.Info("stopping provisioner")
	wg.Wait()
	a.close()
	return nil
}

// every вызывает fn сразу и затем с интервалом до отмены ctx.
func every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *App) close() {
	if a.channel != nil {
		_ = a.channel.Close()
	}
	if a.conn != nil {
		_ = a.conn.Close()
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close storage", sl.Err(err))
	}
}
