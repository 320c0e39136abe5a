// Package balance реализует HTTP-обработчик баланса кредитов.
//
// Без параметра amount возвращается текущий баланс, с ним: результат
// проверки достаточности средств. Баланс при этом не меняется.
package balance

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы баланса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс чтения баланса.
type Service interface {
	Balance(ctx context.Context, userUUID string) (int64, error)
	CheckSufficient(ctx context.Context, userUUID string, amount int64) (models.Sufficiency, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Баланс кредитов
// @Description Возвращает баланс или проверяет, хватает ли кредитов на сумму amount.
// @Tags Credits
// @Produce  json
// @Security BearerAuth
// @Param amount query int false "Сумма для проверки"
// @Success 200 {object} map[string]any "Баланс"
// @Failure 422 {object} response.CodedErrorResponse "Некорректная сумма"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /credits [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.credits.balance"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUUID, ok := middlewarectx.UserUUIDFrom(r.Context())
	if !ok {
		log.Error("user uuid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	raw := r.URL.Query().Get("amount")
	if raw == "" {
		credits, err := h.service.Balance(r.Context(), userUUID)
		if err != nil {
			response.WriteError(w, r, log, err, "could not read balance")
			return
		}
		render.JSON(w, r, response.StatusOKWithData(map[string]any{
			"current_credits": credits,
		}))
		return
	}

	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		response.WriteError(w, r, log, models.NewCodedError(models.CodeInvalidAmount, "amount must be a positive integer"), "")
		return
	}

	res, err := h.service.CheckSufficient(r.Context(), userUUID, amount)
	if err != nil {
		response.WriteError(w, r, log, err, "could not check balance")
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
