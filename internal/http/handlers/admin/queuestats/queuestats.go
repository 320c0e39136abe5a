// Package queuestats реализует HTTP-обработчик статистики очереди.
package queuestats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

type Service interface {
	Stats(ctx context.Context) (models.QueueStats, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статистика очереди
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Счётчики по статусам"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/queue/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.queuestats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.WriteError(w, r, log, err, "could not read queue stats")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(stats))
}
