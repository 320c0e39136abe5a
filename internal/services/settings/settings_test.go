package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/config"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetSettings(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var billing = config.Billing{
	RenewalEnabled:      true,
	RenewalDays:         7,
	RenewalCost:         100,
	SuspendGraceDays:    3,
	ProvisioningEnabled: true,
}

func TestStore_Get(t *testing.T) {
	tests := []struct {
		name    string
		rows    map[string]string
		want    models.Settings
		repoErr error
	}{
		{
			name: "defaults",
			rows: map[string]string{},
			want: models.Settings{RenewalEnabled: true, RenewalDays: 7, RenewalCost: 100, SuspendGraceDays: 3, ProvisioningEnabled: true},
		},
		{
			name: "database overrides",
			rows: map[string]string{
				"renewal_enabled":      "false",
				"provisioning_enabled": "0",
				"renewal_days":         "30",
				"renewal_cost":         "250",
				"suspend_grace_days":   "1",
			},
			want: models.Settings{RenewalEnabled: false, RenewalDays: 30, RenewalCost: 250, SuspendGraceDays: 1, ProvisioningEnabled: false},
		},
		{
			name: "invalid values keep defaults",
			rows: map[string]string{"renewal_days": "week", "renewal_cost": "-5", "renewal_enabled": "maybe"},
			want: models.Settings{RenewalEnabled: true, RenewalDays: 7, RenewalCost: 100, SuspendGraceDays: 3, ProvisioningEnabled: true},
		},
		{
			name:    "repository error",
			repoErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			c := new(CacheMock)
			c.On("Get", mock.Anything, "settings", mock.Anything).Return(false, nil).Once()
			if tt.repoErr != nil {
				repo.On("GetSettings", mock.Anything).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("GetSettings", mock.Anything).Return(tt.rows, nil).Once()
				c.On("Set", mock.Anything, "settings", tt.want, time.Minute).Return(nil).Once()
			}

			got, err := New(repo, c, billing, newNoopLogger()).Get(context.Background())
			if tt.repoErr != nil {
				require.Error(t, err)
				c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			c.AssertExpectations(t)
		})
	}
}

func TestStore_GetCached(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	cached := models.Settings{RenewalDays: 14, RenewalCost: 10}
	c.On("Get", mock.Anything, "settings", mock.Anything).Run(func(args mock.Arguments) {
		*args.Get(2).(*models.Settings) = cached
	}).Return(true, nil).Once()

	got, err := New(repo, c, billing, newNoopLogger()).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, got)
	repo.AssertNotCalled(t, "GetSettings", mock.Anything)
}

func TestStore_CacheErrorFallsBackToRepository(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	c.On("Get", mock.Anything, "settings", mock.Anything).Return(false, errors.New("redis down")).Once()
	c.On("Set", mock.Anything, "settings", mock.Anything, time.Minute).Return(errors.New("redis down")).Once()
	repo.On("GetSettings", mock.Anything).Return(map[string]string{"renewal_days": "10"}, nil).Once()

	got, err := New(repo, c, billing, newNoopLogger()).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, got.RenewalDays)
}
