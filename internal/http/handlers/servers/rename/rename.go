// Package rename реализует HTTP-обработчик изменения имени и описания сервера.
package rename

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
)

// Request тело запроса.
type Request struct {
	Name        string `json:"name" validate:"required,max=191"`
	Description string `json:"description" validate:"max=1024"`
}

// Handler обрабатывает запросы на переименование.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс переименования.
type Service interface {
	Rename(ctx context.Context, userUUID string, serverID int64, name, description string) error
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
// @Summary Переименовать сервер
// @Tags Servers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID сервера"
// @Param request body Request true "Имя и описание"
// @Success 200 {object} map[string]any "Сервер переименован"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.CodedErrorResponse "Сервер не найден"
// @Router /servers/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.servers.rename"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID, id, ok := serverid.Parse(w, r, log)
	if !ok {
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.Rename(r.Context(), userUUID, id, req.Name, req.Description); err != nil {
		response.WriteError(w, r, log, err, "could not rename server")
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"server_id": id,
		"name":      req.Name,
	}))
}
