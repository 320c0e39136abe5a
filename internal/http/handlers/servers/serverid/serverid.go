// Package serverid общий разбор id сервера и пользователя для обработчиков /servers/{id}.
package serverid

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/http/response"
	"github.com/magabrotheeeer/hostcredit/internal/lib/sl"
)

var errBadID = errors.New("id must be a positive integer")

// Parse возвращает UUID пользователя и id сервера из запроса. При ошибке ответ
// уже записан и ok равен false.
func Parse(w http.ResponseWriter, r *http.Request, log *slog.Logger) (userUUID string, id int64, ok bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err == nil && id <= 0 {
		err = errBadID
	}
	if err != nil {
		log.Info("failed to decode id from url", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode id from url"))
		return "", 0, false
	}

	userUUID, ok = middlewarectx.UserUUIDFrom(r.Context())
	if !ok {
		log.Error("user uuid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return "", 0, false
	}
	return userUUID, id, true
}
