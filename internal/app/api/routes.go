// Package api собирает HTTP API: маршруты, middleware и зависимости обработчиков.
package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/admin/adjustcredits"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/admin/buildlogs"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/admin/queuelist"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/admin/queuestats"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/credits/balance"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/health"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/queue/cancel"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/queue/enqueue"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/rewards/issue"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/rewards/redeem"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/details"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/rename"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/renew"
	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/resize"
	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"

	// Регистрация swagger-спецификации.
	_ "github.com/magabrotheeeer/hostcredit/internal/docs"
)

// QueueService операции очереди сборки.
type QueueService interface {
	enqueue.Service
	cancel.Service
	queuelist.Service
	queuestats.Service
}

// ServerService операции с созданными серверами.
type ServerService interface {
	details.Service
	rename.Service
	renew.Service
	resize.Service
}

// LedgerService операции с балансом.
type LedgerService interface {
	balance.Service
	adjustcredits.Ledger
}

// RewardService операции со ссылками-вознаграждениями.
type RewardService interface {
	issue.Service
	redeem.Service
}

// Services зависимости обработчиков.
type Services struct {
	Queue   QueueService
	Servers ServerService
	Ledger  LedgerService
	Rewards RewardService
	Logs    buildlogs.Store
	Storage health.Pinger
	Tokens  middlewarectx.TokenParser
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services, limiter *rate.Limiter) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
		r.Use(middlewarectx.JWTMiddleware(s.Tokens, logger))

		r.Post("/servers", enqueue.New(logger, s.Queue).ServeHTTP)
		r.Delete("/queue/{id}", cancel.New(logger, s.Queue).ServeHTTP)

		r.Get("/servers/{id}", details.New(logger, s.Servers).ServeHTTP)
		r.Patch("/servers/{id}", rename.New(logger, s.Servers).ServeHTTP)
		r.Post("/servers/{id}/renew", renew.New(logger, s.Servers).ServeHTTP)
		r.Put("/servers/{id}/build", resize.New(logger, s.Servers).ServeHTTP)

		r.Get("/credits", balance.New(logger, s.Ledger).ServeHTTP)

		r.Post("/rewards/links", issue.New(logger, s.Rewards).ServeHTTP)
		r.Post("/rewards/links/{id}/redeem", redeem.New(logger, s.Rewards).ServeHTTP)

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(logger, middlewarectx.RoleAdmin))
			r.Get("/queue", queuelist.New(logger, s.Queue).ServeHTTP)
			r.Get("/queue/stats", queuestats.New(logger, s.Queue).ServeHTTP)
			r.Get("/queue/{id}/logs", buildlogs.New(logger, s.Logs).ServeHTTP)
			r.Post("/credits/{uuid}", adjustcredits.New(logger, s.Ledger).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
