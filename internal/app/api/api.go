package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/hostcredit/internal/cache"
	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/hosting"
	"github.com/magabrotheeeer/hostcredit/internal/lib/jwt"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/migrations"
	"github.com/magabrotheeeer/hostcredit/internal/services/ledger"
	"github.com/magabrotheeeer/hostcredit/internal/services/logstore"
	"github.com/magabrotheeeer/hostcredit/internal/services/queue"
	"github.com/magabrotheeeer/hostcredit/internal/services/quota"
	"github.com/magabrotheeeer/hostcredit/internal/services/rewards"
	"github.com/magabrotheeeer/hostcredit/internal/services/servers"
	"github.com/magabrotheeeer/hostcredit/internal/services/settings"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

// App HTTP API.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New подключается к хранилищам, применяет миграции и собирает роутер.
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

	panel := hosting.NewClient(cfg.Hosting)
	settingsStore := settings.New(db, cacheRedis, cfg.Billing, logger)
	usage := quota.New(panel, db, cacheRedis, cfg.UsageCacheTTL, logger)

	services := Services{
		Queue:   queue.New(db, usage, settingsStore, logger),
		Servers: servers.New(db, panel, usage, settingsStore, cacheRedis, logger),
		Ledger:  ledger.New(db, logger),
		Rewards: rewards.New(db, cfg.Rewards, logger),
		Logs:    logstore.New(db, cfg.LogRetention, logger),
		Storage: db,
		Tokens:  jwt.NewJWTParser(cfg.JWTSecretKey),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst))

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if err := a.cache.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close storage", sl.Err(err))
	}
}
