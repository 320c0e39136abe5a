// Package queuelist реализует HTTP-обработчик постраничного просмотра очереди для администратора.
package queuelist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы списка очереди.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения очереди.
type Service interface {
	List(ctx context.Context, page, limit int) ([]models.QueueItem, int64, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Очередь сборки
// @Description Постраничный список элементов очереди, новые первыми.
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(20)
// @Success 200 {object} map[string]any "Элементы очереди"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/queue [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.queuelist"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// некорректные значения сервис заменяет значениями по умолчанию
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	items, total, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		response.WriteError(w, r, log, err, "could not list queue")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"items": items,
		"total": total,
	}))
}
