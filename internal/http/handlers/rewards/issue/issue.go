// Package issue реализует HTTP-обработчик выдачи ссылки на награду.
//
// Код ссылки возвращается только в этом ответе, в хранилище лежит его хэш.
package issue

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Handler обрабатывает запросы на выдачу ссылки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс выдачи ссылок.
type Service interface {
	IssueLink(ctx context.Context, userUUID string) (models.RewardLink, string, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить ссылку на награду
// @Description Создаёт одноразовую ссылку, начисляющую кредиты. У пользователя может быть только одна активная ссылка.
// @Tags Rewards
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Ссылка и код"
// @Failure 404 {object} response.CodedErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.CodedErrorResponse "Уже есть активная ссылка"
// @Failure 429 {object} response.CodedErrorResponse "Предыдущая ссылка выдана недавно"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rewards/links [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rewards.issue"
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

	link, code, err := h.service.IssueLink(r.Context(), userUUID)
	if err != nil {
		response.WriteError(w, r, log, err, "could not issue reward link")
		return
	}

	log.Info("reward link issued", slog.String("link_id", link.ID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"link": link,
		"code": code,
	}))
}
