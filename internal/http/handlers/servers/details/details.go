// Package details реализует HTTP-обработчик получения данных сервера.
package details

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/serverid"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы на получение сервера.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения сервера.
type Service interface {
	Details(ctx context.Context, userUUID string, serverID int64) (*models.ServerDetails, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Данные сервера
// @Description Возвращает данные сервера из панели вместе со сроком действия.
// @Tags Servers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Success 200 {object} map[string]any "Данные сервера"
// @Failure 400 {object} response.ErrorResponse "Некорректный id"
// @Failure 404 {object} response.CodedErrorResponse "Сервер не найден"
// @Failure 503 {object} response.CodedErrorResponse "Панель недоступна"
// @Router /servers/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.details"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID, id, ok := serverid.Parse(w, r, log)
	if !ok {
		return
	}

	res, err := h.service.Details(r.Context(), userUUID, id)
	if err != nil {
		response.WriteError(w, r, log, err, "could not read server")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"server": res,
	}))
}
