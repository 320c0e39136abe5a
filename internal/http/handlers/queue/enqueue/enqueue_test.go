package enqueue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const userUUID = "9b2e4c1a-7d3f-4e8b-a6c5-0f1e2d3c4b5a"

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Enqueue(ctx context.Context, userUUID string, req models.BuildRequest) (int64, error) {
	args := m.Called(ctx, userUUID, req)
	return args.Get(0).(int64), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func validRequest() models.BuildRequest {
	return models.BuildRequest{
		Name:       "survival",
		RAM:        1024,
		Disk:       5120,
		CPU:        100,
		Ports:      1,
		LocationID: 1,
		CategoryID: 2,
		EggID:      3,
	}
}

func TestEnqueueHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		withUser       bool
		setupMock      func(*ServiceMock)
		wantStatusCode int
		wantStatus     string
		wantError      string
		wantCode       string
		wantQueueID    float64
	}{
		{
			name:     "queued",
			body:     validRequest(),
			withUser: true,
			setupMock: func(m *ServiceMock) {
				m.On("Enqueue", mock.Anything, userUUID, validRequest()).Return(int64(42), nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantQueueID:    42,
		},
		{
			name:           "invalid json body",
			body:           "not a json",
			withUser:       true,
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "validation failed",
			body:           models.BuildRequest{Name: "x"},
			withUser:       true,
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantError:      "field RAM is a required field",
		},
		{
			name:           "no user in context",
			body:           validRequest(),
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantError:      "unauthorized",
		},
		{
			name:     "quota exceeded",
			body:     validRequest(),
			withUser: true,
			setupMock: func(m *ServiceMock) {
				m.On("Enqueue", mock.Anything, userUUID, mock.Anything).
					Return(int64(0), models.NewLimitError(models.CodeMaxMemory, "memory", 3584, 4096, 1024)).Once()
			},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
			wantCode:       models.CodeMaxMemory,
		},
		{
			name:     "pending request",
			body:     validRequest(),
			withUser: true,
			setupMock: func(m *ServiceMock) {
				m.On("Enqueue", mock.Anything, userUUID, mock.Anything).
					Return(int64(0), models.NewCodedError(models.CodePendingRequest, "pending")).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantStatus:     "Error",
			wantCode:       models.CodePendingRequest,
		},
		{
			name:     "storage error",
			body:     validRequest(),
			withUser: true,
			setupMock: func(m *ServiceMock) {
				m.On("Enqueue", mock.Anything, userUUID, mock.Anything).
					Return(int64(0), errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantStatus:     "Error",
			wantError:      "could not enqueue server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setupMock != nil {
				tt.setupMock(svc)
			}
			handler := New(newNoopLogger(), svc)

			body, err := json.Marshal(tt.body)
			require.NoError(t, err)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/servers", bytes.NewReader(body))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.withUser {
				ctx = context.WithValue(ctx, middlewarectx.UserUUID, userUUID)
			}
			req = req.WithContext(ctx)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var resp map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
			if tt.wantError != "" {
				assert.Contains(t, resp["error"], tt.wantError)
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, resp["error_code"])
			}
			if tt.wantQueueID != 0 {
				data, ok := resp["data"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, tt.wantQueueID, data["queue_id"])
			}
			svc.AssertExpectations(t)
		})
	}
}
