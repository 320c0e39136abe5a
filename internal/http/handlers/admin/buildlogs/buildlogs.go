// Package buildlogs реализует HTTP-обработчик чтения логов сборки.
package buildlogs

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы логов.
type Handler struct {
	log   *slog.Logger
	store Store
}

// Store источник логов сборки.
type Store interface {
	GetByBuild(ctx context.Context, buildID int64) ([]models.QueueLog, error)
}

// New создает новый Handler.
func New(log *slog.Logger, store Store) *Handler {
	return &Handler{
		log:   log,
		store: store,
	}
}

// ServeHTTP godoc
// @Summary Логи сборки
// @Description Возвращает неудалённые логи элемента очереди.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID элемента очереди"
// @Success 200 {object} map[string]any "Логи"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/queue/{id}/logs [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.buildlogs"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Info("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	logs, err := h.store.GetByBuild(r.Context(), id)
	if err != nil {
		response.WriteError(w, r, log, err, "could not read build logs")
		return
	}
	if logs == nil {
		logs = []models.QueueLog{}
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"build": id,
		"logs":  logs,
	}))
}
