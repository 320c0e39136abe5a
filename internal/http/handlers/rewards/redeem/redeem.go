// Package redeem реализует HTTP-обработчик погашения ссылки на награду.
package redeem

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает погашение ссылок.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс погашения.
type Service interface {
	Redeem(ctx context.Context, userUUID, linkID, code string) (int64, error)
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
// @Summary Погасить ссылку на награду
// @Description Начисляет кредиты по ссылке. Ссылка погашается один раз.
// @Tags Rewards
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param id path string true "ID ссылки"
// @Param request body models.RedeemRequest true "Код ссылки"
// @Success 200 {object} map[string]any "Новый баланс"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.CodedErrorResponse "Ссылка недействительна"
// @Failure 429 {object} response.CodedErrorResponse "Другая ссылка погашена недавно"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rewards/links/{id}/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rewards.redeem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.RedeemRequest
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

	userUUID, ok := middlewarectx.UserUUIDFrom(r.Context())
	if !ok {
		log.Error("user uuid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	linkID := chi.URLParam(r, "id")
	credits, err := h.service.Redeem(r.Context(), userUUID, linkID, req.Code)
	if err != nil {
		response.WriteError(w, r, log, err, "could not redeem reward link")
		return
	}

	log.Info("reward link redeemed", slog.String("link_id", linkID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"current_credits": credits,
	}))
}
