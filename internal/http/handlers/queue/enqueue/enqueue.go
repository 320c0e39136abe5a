// Package enqueue реализует HTTP-обработчик постановки сервера в очередь сборки.
//
// Handler принимает JSON с параметрами сервера, валидирует его, берёт UUID
// пользователя из контекста и вызывает сервис очереди. Отказы сервиса с кодом
// ошибки возвращаются клиенту вместе с диагностикой лимитов.
package enqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler управляет HTTP-запросами на создание сервера.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис очереди сборки
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс постановки в очередь.
type Service interface {
	Enqueue(ctx context.Context, userUUID string, req models.BuildRequest) (int64, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать сервер
// @Description Ставит запрос на создание сервера в очередь. Сервер создаётся воркером асинхронно.
// @Tags Servers
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.BuildRequest true "Параметры сервера"
// @Success 200 {object} map[string]any "Элемент очереди создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 409 {object} response.CodedErrorResponse "Уже есть запрос в очереди"
// @Failure 422 {object} response.CodedErrorResponse "Ошибка валидации или превышен лимит"
// @Failure 503 {object} response.CodedErrorResponse "Создание серверов отключено"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /servers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.queue.enqueue"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Debug("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUUID, ok := middlewarectx.UserUUIDFrom(r.Context())
	if !ok {
		log.Error("user uuid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.Enqueue(r.Context(), userUUID, req)
	if err != nil {
		response.WriteError(w, r, log, err, "could not enqueue server")
		return
	}

	log.Info("server enqueued", slog.Int64("queue_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"queue_id": id,
	}))
}
