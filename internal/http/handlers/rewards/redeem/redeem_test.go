package redeem

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

const (
	user   = "2c3d4e5f-6a7b-4c8d-9e0f-a1b2c3d4e5f6"
	linkID = "d7e8f9a0-b1c2-4d3e-8f4a-5b6c7d8e9f00"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Redeem(ctx context.Context, userUUID, linkID, code string) (int64, error) {
	args := m.Called(ctx, userUUID, linkID, code)
	return args.Get(0).(int64), args.Error(1)
}

func TestRedeemHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*ServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "redeemed",
			body: `{"code":"abc"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Redeem", mock.Anything, user, linkID, "abc").Return(int64(250), nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"current_credits":250`,
		},
		{
			name: "already redeemed",
			body: `{"code":"abc"}`,
			setupMock: func(m *ServiceMock) {
				m.On("Redeem", mock.Anything, user, linkID, "abc").
					Return(int64(0), models.NewCodedError(models.CodeRewardLinkInvalid, "reward link is invalid")).Once()
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"error_code":"REWARD_LINK_INVALID"`,
		},
		{
			name:           "missing code",
			body:           `{}`,
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "field Code is a required field",
		},
		{
			name:           "broken json",
			body:           `{"code":`,
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/rewards/links/"+linkID+"/redeem", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", linkID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUUID, user)
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, rec.Body.String())
			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			svc.AssertExpectations(t)
		})
	}
}
