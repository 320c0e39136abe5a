package cancel

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Cancel(ctx context.Context, userUUID string, id int64) error {
	args := m.Called(ctx, userUUID, id)
	return args.Error(0)
}

func TestCancelHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	const user = "0c6f1e2a-5b7d-4a9e-8c3f-112233445566"

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "cancelled",
			id:   "15",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, user, int64(15)).Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"cancelled_id":15`,
		},
		{
			name:           "bad id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"failed to decode id from url"}`,
		},
		{
			name: "not found",
			id:   "16",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, user, int64(16)).
					Return(models.NewCodedError(models.CodeQueueItemNotFound, "queue item not found")).Once()
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error_code":"QUEUE_ITEM_NOT_FOUND"`,
		},
		{
			name: "already building",
			id:   "17",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, user, int64(17)).
					Return(models.NewCodedError(models.CodeQueueItemNotPending, "queue item is not pending")).Once()
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error_code":"QUEUE_ITEM_NOT_PENDING"`,
		},
		{
			name: "storage error",
			id:   "18",
			setupMock: func(m *MockService) {
				m.On("Cancel", mock.Anything, user, int64(18)).Return(errors.New("db error")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not cancel queue item"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(logger, svc)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/queue/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUUID, user)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
