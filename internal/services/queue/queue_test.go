package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hostcredit/internal/models"
	"github.com/magabrotheeeer/hostcredit/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUUID string) (*models.User, error) {
	args := m.Called(ctx, userUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) HasAtLeastOnePendingItem(ctx context.Context, userUUID string) (bool, error) {
	args := m.Called(ctx, userUUID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) GetLocation(ctx context.Context, id int64) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *RepoMock) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *RepoMock) GetEgg(ctx context.Context, id int64) (*models.Egg, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Egg), args.Error(1)
}

func (m *RepoMock) CountLocationLoad(ctx context.Context, locationID int64) (int64, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) CreateQueueItem(ctx context.Context, item models.QueueItem) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) GetQueueItem(ctx context.Context, id int64) (*models.QueueItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QueueItem), args.Error(1)
}

func (m *RepoMock) DeleteQueueItem(ctx context.Context, id int64, userUUID string) (bool, error) {
	args := m.Called(ctx, id, userUUID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) GetQueueItemsPaginated(ctx context.Context, page, limit int) ([]models.QueueItem, int64, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).([]models.QueueItem), args.Get(1).(int64), args.Error(2)
}

func (m *RepoMock) GetQueueStats(ctx context.Context) (models.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.QueueStats), args.Error(1)
}

type UsageMock struct{ mock.Mock }

func (m *UsageMock) GetUsage(ctx context.Context, user *models.User, forceRefresh bool) (models.Usage, error) {
	args := m.Called(ctx, user, forceRefresh)
	return args.Get(0).(models.Usage), args.Error(1)
}

type SettingsMock struct{ mock.Mock }

func (m *SettingsMock) Get(ctx context.Context) (models.Settings, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Settings), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const userUUID = "0a3c7e57-6a0f-4a2b-8d0e-1c2b3a4d5e6f"

func testUser() *models.User {
	return &models.User{
		UUID:              userUUID,
		Username:          "alice",
		PterodactylUserID: 9,
		Limits: models.Limits{
			Memory: 1024, CPU: 200, Disk: 10000, Databases: 2, Backups: 2, Allocations: 2, Servers: 2,
		},
	}
}

func buildRequest() models.BuildRequest {
	return models.BuildRequest{
		Name:       "survival",
		RAM:        512,
		Disk:       2000,
		CPU:        100,
		Ports:      1,
		LocationID: 1,
		CategoryID: 2,
		EggID:      3,
	}
}

type mocks struct {
	repo     *RepoMock
	usage    *UsageMock
	settings *SettingsMock
}

func (m mocks) happyPath() {
	m.settings.On("Get", mock.Anything).Return(models.Settings{ProvisioningEnabled: true}, nil)
	m.repo.On("GetUser", mock.Anything, userUUID).Return(testUser(), nil)
	m.repo.On("HasAtLeastOnePendingItem", mock.Anything, userUUID).Return(false, nil)
	m.repo.On("GetLocation", mock.Anything, int64(1)).Return(&models.Location{ID: 1, MaxServers: 10}, nil)
	m.repo.On("GetCategory", mock.Anything, int64(2)).Return(&models.Category{ID: 2}, nil)
	m.repo.On("GetEgg", mock.Anything, int64(3)).Return(&models.Egg{ID: 3, CategoryID: 2}, nil)
	m.repo.On("CountLocationLoad", mock.Anything, int64(1)).Return(int64(3), nil)
	m.usage.On("GetUsage", mock.Anything, mock.Anything, true).Return(models.Usage{Memory: 256}, nil)
}

func newMocks() mocks {
	return mocks{repo: new(RepoMock), usage: new(UsageMock), settings: new(SettingsMock)}
}

func TestService_EnqueueSuccess(t *testing.T) {
	m := newMocks()
	m.happyPath()
	m.repo.On("CreateQueueItem", mock.Anything, mock.MatchedBy(func(item models.QueueItem) bool {
		return item.UserUUID == userUUID && item.RAM == 512 && item.Ports == 1 && item.EggID == 3
	})).Return(int64(77), nil).Once()

	id, err := New(m.repo, m.usage, m.settings, newNoopLogger()).Enqueue(context.Background(), userUUID, buildRequest())
	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	m.repo.AssertExpectations(t)
	m.usage.AssertExpectations(t)
}

func TestService_EnqueueRejections(t *testing.T) {
	tests := []struct {
		name     string
		override func(m mocks)
		wantCode string
		inserted bool
	}{
		{
			name: "provisioning disabled",
			override: func(m mocks) {
				m.settings.On("Get", mock.Anything).Return(models.Settings{ProvisioningEnabled: false}, nil).Once()
			},
			wantCode: models.CodeServerCreationDisabled,
		},
		{
			name: "unknown user",
			override: func(m mocks) {
				m.repo.On("GetUser", mock.Anything, userUUID).
					Return(nil, fmt.Errorf("storage.GetUser: %w", repository.ErrNotFound)).Once()
			},
			wantCode: models.CodeUserNotFound,
		},
		{
			name: "pending request exists",
			override: func(m mocks) {
				m.repo.On("HasAtLeastOnePendingItem", mock.Anything, userUUID).Return(true, nil).Once()
			},
			wantCode: models.CodePendingRequest,
		},
		{
			name: "location not found",
			override: func(m mocks) {
				m.repo.On("GetLocation", mock.Anything, int64(1)).Return(nil, repository.ErrNotFound).Once()
			},
			wantCode: models.CodeLocationNotFound,
		},
		{
			name: "category not found",
			override: func(m mocks) {
				m.repo.On("GetCategory", mock.Anything, int64(2)).Return(nil, repository.ErrNotFound).Once()
			},
			wantCode: models.CodeCategoryNotFound,
		},
		{
			name: "egg not found",
			override: func(m mocks) {
				m.repo.On("GetEgg", mock.Anything, int64(3)).Return(nil, repository.ErrNotFound).Once()
			},
			wantCode: models.CodeEggNotFound,
		},
		{
			name: "egg from another category",
			override: func(m mocks) {
				m.repo.On("GetEgg", mock.Anything, int64(3)).Return(&models.Egg{ID: 3, CategoryID: 99}, nil).Once()
			},
			wantCode: models.CodeEggCategoryMismatch,
		},
		{
			name: "vip location",
			override: func(m mocks) {
				m.repo.On("GetLocation", mock.Anything, int64(1)).Return(&models.Location{ID: 1, VIPOnly: true}, nil).Once()
			},
			wantCode: models.CodeVIPRequired,
		},
		{
			name: "location full",
			override: func(m mocks) {
				m.repo.On("GetLocation", mock.Anything, int64(1)).Return(&models.Location{ID: 1, MaxServers: 3}, nil).Once()
			},
			wantCode: models.CodeLocationFull,
		},
		{
			name: "memory limit",
			override: func(m mocks) {
				m.usage.On("GetUsage", mock.Anything, mock.Anything, true).Return(models.Usage{Memory: 600}, nil).Once()
			},
			wantCode: models.CodeMaxMemory,
		},
		{
			name: "hosting unavailable",
			override: func(m mocks) {
				m.usage.On("GetUsage", mock.Anything, mock.Anything, true).Return(models.Usage{}, errors.New("timeout")).Once()
			},
			wantCode: models.CodeHostingUnavailable,
		},
		{
			name: "pending inserted concurrently",
			override: func(m mocks) {
				m.repo.On("CreateQueueItem", mock.Anything, mock.Anything).
					Return(int64(0), fmt.Errorf("storage.CreateQueueItem: %w", repository.ErrPendingExists)).Once()
			},
			wantCode: models.CodePendingRequest,
			inserted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			tt.override(m)
			m.happyPath()

			id, err := New(m.repo, m.usage, m.settings, newNoopLogger()).Enqueue(context.Background(), userUUID, buildRequest())
			require.Error(t, err)
			assert.Zero(t, id)

			var cerr *models.CodedError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantCode, cerr.Code)
			if !tt.inserted {
				m.repo.AssertNotCalled(t, "CreateQueueItem", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestService_EnqueueMemoryLimitDetails(t *testing.T) {
	m := newMocks()
	m.usage.On("GetUsage", mock.Anything, mock.Anything, true).Return(models.Usage{Memory: 600}, nil).Once()
	m.happyPath()

	_, err := New(m.repo, m.usage, m.settings, newNoopLogger()).Enqueue(context.Background(), userUUID, buildRequest())

	var cerr *models.CodedError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, models.CodeMaxMemory, cerr.Code)
	assert.Equal(t, int64(1024), *cerr.Required)
	assert.Equal(t, int64(600), *cerr.CurrentUsage)
	assert.Equal(t, int64(512), *cerr.AttemptedToAdd)
}

func TestService_Cancel(t *testing.T) {
	tests := []struct {
		name     string
		item     *models.QueueItem
		getErr   error
		deleted  bool
		wantCode string
	}{
		{
			name:    "pending item",
			item:    &models.QueueItem{ID: 5, UserUUID: userUUID, Status: models.QueueStatusPending},
			deleted: true,
		},
		{
			name:     "missing item",
			getErr:   repository.ErrNotFound,
			wantCode: models.CodeQueueItemNotFound,
		},
		{
			name:     "other user's item",
			item:     &models.QueueItem{ID: 5, UserUUID: "someone-else", Status: models.QueueStatusPending},
			wantCode: models.CodeQueueItemNotFound,
		},
		{
			name:     "building item",
			item:     &models.QueueItem{ID: 5, UserUUID: userUUID, Status: models.QueueStatusBuilding},
			wantCode: models.CodeQueueItemNotPending,
		},
		{
			name:     "claimed between read and delete",
			item:     &models.QueueItem{ID: 5, UserUUID: userUUID, Status: models.QueueStatusPending},
			deleted:  false,
			wantCode: models.CodeQueueItemNotPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMocks()
			if tt.getErr != nil {
				m.repo.On("GetQueueItem", mock.Anything, int64(5)).Return(nil, tt.getErr).Once()
			} else {
				m.repo.On("GetQueueItem", mock.Anything, int64(5)).Return(tt.item, nil).Once()
			}
			m.repo.On("DeleteQueueItem", mock.Anything, int64(5), userUUID).Return(tt.deleted, nil).Maybe()

			err := New(m.repo, m.usage, m.settings, newNoopLogger()).Cancel(context.Background(), userUUID, 5)
			if tt.wantCode == "" {
				require.NoError(t, err)
				return
			}
			var cerr *models.CodedError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.wantCode, cerr.Code)
		})
	}
}

func TestService_List(t *testing.T) {
	m := newMocks()
	items := []models.QueueItem{{ID: 1}, {ID: 2}}
	m.repo.On("GetQueueItemsPaginated", mock.Anything, 1, 20).Return(items, int64(2), nil).Once()
	m.repo.On("GetQueueStats", mock.Anything).Return(models.QueueStats{Total: 2, Pending: 2}, nil).Once()

	svc := New(m.repo, m.usage, m.settings, newNoopLogger())
	got, total, err := svc.List(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, items, got)
	assert.Equal(t, int64(2), total)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Pending)
	m.repo.AssertExpectations(t)
}
