// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON-ответов HTTP-обработчиков: успешных ответов, ошибок
// с машинно-читаемым кодом и сообщений валидации.
package response

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

// Response описывает стандартную структуру JSON-ответа сервера.
// Поле Status: статус запроса ("OK" или "Error").
// Поле Error: текст ошибки (опционально, при неуспехе).
// Поле Data: данные ответа (опционально, при успехе).
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// ErrorResponse: структура ошибки для Swagger-документации.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

// CodedErrorResponse ошибка с кодом и диагностикой превышения лимита.
type CodedErrorResponse struct {
	Status         string `json:"status" example:"Error"`
	ErrorCode      string `json:"error_code" example:"MAX_MEMORY_LIMIT"`
	Error          string `json:"error" example:"memory limit exceeded"`
	CurrentUsage   *int64 `json:"current_usage,omitempty"`
	Required       *int64 `json:"required,omitempty"`
	AttemptedToAdd *int64 `json:"attempted_to_add,omitempty"`
}

const (
	// StatusOK: значение статуса для успешного ответа.
	StatusOK = "OK"
	// StatusError: значение статуса для ответа с ошибкой.
	StatusError = "Error"
)

// StatusOKWithData возвращает успешный Response с переданными данными.
func StatusOKWithData(data any) Response {
	return Response{
		Status: StatusOK,
		Data:   data,
	}
}

// Error возвращает ответ с ошибкой и переданным сообщением.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// Coded возвращает ответ для ошибки с кодом.
func Coded(e *models.CodedError) CodedErrorResponse {
	return CodedErrorResponse{
		Status:         StatusError,
		ErrorCode:      e.Code,
		Error:          e.Message,
		CurrentUsage:   e.CurrentUsage,
		Required:       e.Required,
		AttemptedToAdd: e.AttemptedToAdd,
	}
}

// HTTPStatus HTTP-статус для кода ошибки.
func HTTPStatus(code string) int {
	switch code {
	case models.CodeUserNotFound, models.CodeServerNotFound, models.CodeQueueItemNotFound:
		return http.StatusNotFound
	case models.CodePendingRequest, models.CodeQueueItemNotPending, models.CodeRewardLinkActive, models.CodeLocationFull:
		return http.StatusConflict
	case models.CodeRewardCooldown:
		return http.StatusTooManyRequests
	case models.CodeInsufficientCredits:
		return http.StatusPaymentRequired
	case models.CodeVIPRequired:
		return http.StatusForbidden
	case models.CodeServerCreationDisabled, models.CodeRenewalDisabled, models.CodeHostingUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusUnprocessableEntity
	}
}

// WriteError пишет ответ для ошибки сервиса. Ошибки с кодом отдаются как есть,
// остальные логируются и заменяются на msg.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, msg string) {
	var cerr *models.CodedError
	if errors.As(err, &cerr) {
		log.Info("request rejected", slog.String("error_code", cerr.Code))
		w.WriteHeader(HTTPStatus(cerr.Code))
		render.JSON(w, r, Coded(cerr))
		return
	}
	log.Error(msg, sl.Err(err))
	w.WriteHeader(http.StatusInternalServerError)
	render.JSON(w, r, Error(msg))
}

// ValidationError формирует Response со статусом Error на основе ошибок валидации.
// Каждое нарушение формируется в человеко-читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "gt", "gte":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be %s %s", err.Field(), comparison(err.ActualTag()), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be at most %s characters", err.Field(), err.Param()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}

func comparison(tag string) string {
	if tag == "gt" {
		return "greater than"
	}
	return "at least"
}
