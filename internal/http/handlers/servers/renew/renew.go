// Package renew реализует HTTP-обработчик продления сервера за кредиты.
package renew

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/serverid"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
)

// Handler обрабатывает запросы на продление.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс продления сервера.
type Service interface {
	Renew(ctx context.Context, userUUID string, serverID int64) (time.Time, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Продлить сервер
// @Description Списывает стоимость продления и сдвигает срок действия сервера. Приостановленный сервер возобновляется.
// @Tags Servers
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Success 200 {object} map[string]any "Новый срок действия"
// @Failure 402 {object} response.CodedErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.CodedErrorResponse "Сервер не найден"
// @Failure 503 {object} response.CodedErrorResponse "Продление отключено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /servers/{id}/renew [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.renew"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID, id, ok := serverid.Parse(w, r, log)
	if !ok {
		return
	}

	expiresAt, err := h.service.Renew(r.Context(), userUUID, id)
	if err != nil {
		response.WriteError(w, r, log, err, "could not renew server")
		return
	}

	log.Info("server renewed", slog.Int64("server_id", id), slog.Time("expires_at", expiresAt))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"server_id":  id,
		"expires_at": expiresAt,
	}))
}
