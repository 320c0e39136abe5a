// Package cancel реализует HTTP-обработчик отмены ожидающего элемента очереди.
package cancel

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
)

// Handler обрабатывает запросы на отмену.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс отмены элемента очереди.
type Service interface {
	Cancel(ctx context.Context, userUUID string, id int64) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить создание сервера
// @Description Отменяет элемент очереди, пока он в статусе pending.
// @Tags Queue
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID элемента очереди"
// @Success 200 {object} map[string]any "Элемент отменён"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.CodedErrorResponse "Элемент не найден"
// @Failure 409 {object} response.CodedErrorResponse "Элемент уже обрабатывается"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /queue/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.queue.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return
	}

	userUUID, ok := middlewarectx.UserUUIDFrom(r.Context())
	if !ok {
		log.Error("user uuid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	if err := h.service.Cancel(r.Context(), userUUID, id); err != nil {
		response.WriteError(w, r, log, err, "could not cancel queue item")
		return
	}

	log.Info("queue item cancelled", slog.Int64("queue_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cancelled_id": id,
	}))
}
