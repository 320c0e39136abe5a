// Package resize реализует HTTP-обработчик изменения ресурсов сервера.
package resize

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hostcredit/internal/http/handlers/servers/serverid"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы на изменение ресурсов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс изменения ресурсов.
type Service interface {
	UpdateResources(ctx context.Context, userUUID string, serverID int64, req models.UpdateResourcesRequest) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить ресурсы сервера
// @Description Меняет лимиты сервера в пределах квоты пользователя.
// @Tags Servers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Param request body models.UpdateResourcesRequest true "Новые ресурсы"
// @Success 200 {object} map[string]any "Ресурсы изменены"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.CodedErrorResponse "Сервер не найден"
// @Failure 422 {object} response.CodedErrorResponse "Превышен лимит"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /servers/{id}/build [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.resize"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID, id, ok := serverid.Parse(w, r, log)
	if !ok {
		return
	}

	var req models.UpdateResourcesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.UpdateResources(r.Context(), userUUID, id, req); err != nil {
		response.WriteError(w, r, log, err, "could not update server resources")
		return
	}

	log.Info("server resources updated", slog.Int64("server_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"server_id": id,
		"limits":    req.Resources(),
	}))
}
