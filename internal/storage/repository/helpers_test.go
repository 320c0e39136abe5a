package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/hostcredit/internal/migrations"
	"github.com/magabrotheeeer/hostcredit/internal/models"
)

func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя с балансом и возвращает его UUID
func (f *TestDataFactory) CreateUser(t *testing.T, credits int64) string {
	userUUID := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uuid, username, credits, memory_limit, cpu_limit,
			disk_limit, database_limit, backup_limit, allocation_limit, server_limit)
		VALUES ($1, $2, $3, 4096, 400, 20000, 2, 2, 4, 3)`,
		userUUID, "user-"+userUUID[:8], credits)
	require.NoError(t, err)
	return userUUID
}

// CreateLocation создает тестовую локацию
func (f *TestDataFactory) CreateLocation(t *testing.T, maxServers int64, vipOnly bool) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO locations (name, pterodactyl_location_id, max_servers, vip_only)
		VALUES ('eu-1', 1, $1, $2) RETURNING id`, maxServers, vipOnly).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateQueueItem создает элемент очереди с заданным статусом
func (f *TestDataFactory) CreateQueueItem(t *testing.T, userUUID string, locationID int64, status models.QueueStatus) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO queue_items (name, ram, disk, cpu, ports, databases, backups,
			location_id, user_uuid, category_id, egg_id, status)
		VALUES ('mc', 1024, 5000, 100, 1, 1, 1, $1, $2, 1, 1, $3) RETURNING id`,
		locationID, userUUID, string(status)).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateServer создает запись о сервере
func (f *TestDataFactory) CreateServer(t *testing.T, userUUID string, locationID int64, expiresAt *time.Time) int64 {
	id, err := f.storage.CreateServer(context.Background(), models.Server{
		PterodactylID: 42,
		UserUUID:      userUUID,
		LocationID:    locationID,
		ExpiresAt:     expiresAt,
	})
	require.NoError(t, err)
	return id
}

// TestVerification содержит методы проверки состояния базы
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый набор проверок
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// Credits возвращает баланс пользователя
func (v *TestVerification) Credits(t *testing.T, userUUID string) int64 {
	var credits int64
	require.NoError(t, v.storage.DB.QueryRow(`SELECT credits FROM users WHERE uuid = $1`, userUUID).Scan(&credits))
	return credits
}

// Status возвращает статус элемента очереди
func (v *TestVerification) Status(t *testing.T, id int64) models.QueueStatus {
	var status string
	require.NoError(t, v.storage.DB.QueryRow(`SELECT status FROM queue_items WHERE id = $1`, id).Scan(&status))
	return models.QueueStatus(status)
}
