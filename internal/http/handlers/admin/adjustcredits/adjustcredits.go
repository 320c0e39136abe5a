// Package adjustcredits реализует HTTP-обработчик ручного изменения баланса администратором.
//
// Положительная сумма начисляется, отрицательная списывается, только если
// кредитов хватает.
package adjustcredits

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает изменение баланса.
type Handler struct {
	log      *slog.Logger
	ledger   Ledger
	validate *validator.Validate
}

// Ledger описывает операции с балансом.
type Ledger interface {
	AddCredits(ctx context.Context, userUUID string, amount int64) (bool, error)
	RemoveCredits(ctx context.Context, userUUID string, amount int64) (bool, error)
	Balance(ctx context.Context, userUUID string) (int64, error)
}

// New создает новый Handler.
func New(log *slog.Logger, ledger Ledger) *Handler {
	return &Handler{
		log:      log,
		ledger:   ledger,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить баланс пользователя
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param uuid path string true "UUID пользователя"
// @Param request body models.AdjustCreditsRequest true "Сумма"
// @Success 200 {object} map[string]any "Новый баланс"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 402 {object} response.CodedErrorResponse "Недостаточно кредитов"
// @Failure 404 {object} response.CodedErrorResponse "Пользователь не найден"
// @Router /admin/credits/{uuid} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.adjustcredits"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID := chi.URLParam(r, "uuid")
	if _, err := uuid.Parse(userUUID); err != nil {
		log.Info("invalid user uuid", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid user uuid"))
		return
	}

	var req models.AdjustCreditsRequest
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

	var (
		changed bool
		err     error
		reject  *models.CodedError
	)
	if req.Amount > 0 {
		changed, err = h.ledger.AddCredits(r.Context(), userUUID, req.Amount)
		reject = models.NewCodedError(models.CodeUserNotFound, "user not found")
	} else {
		changed, err = h.ledger.RemoveCredits(r.Context(), userUUID, -req.Amount)
		reject = models.NewCodedError(models.CodeInsufficientCredits, "not enough credits or user not found")
	}
	if err != nil {
		response.WriteError(w, r, log, err, "could not adjust credits")
		return
	}
	if !changed {
		response.WriteError(w, r, log, reject, "")
		return
	}

	credits, err := h.ledger.Balance(r.Context(), userUUID)
	if err != nil {
		response.WriteError(w, r, log, err, "could not read balance")
		return
	}

	log.Info("credits adjusted", slog.String("user_uuid", userUUID), slog.Int64("amount", req.Amount))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"current_credits": credits,
	}))
}
