package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/CromwellTrading/PelisBot/internal/migrations"
	"github.com/CromwellTrading/PelisBot/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает подписчика с заданным сроком окончания
func (f *TestDataFactory) CreateUser(t *testing.T, telegramID int64, plan models.Plan, expires time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO users (telegram_id, plan, fecha_inicio, fecha_expiracion)
		VALUES ($1, $2, $3, $4)`,
		telegramID, plan, expires.Add(-models.SubscriptionPeriod), expires)
	require.NoError(t, err)
}

// CreatePendingRequest создает ожидающую заявку
func (f *TestDataFactory) CreatePendingRequest(t *testing.T, telegramID int64, plan models.Plan, method models.Method) int64 {
	t.Helper()
	id, err := f.storage.CreatePaymentRequest(context.Background(), models.PaymentRequest{
		TelegramID: telegramID,
		Plan:       plan,
		Method:     method,
		ProofURL:   "https://cdn.example.com/capturas/proof.jpg",
	})
	require.NoError(t, err)
	return id
}

// CreateMovie добавляет фильм в каталог
func (f *TestDataFactory) CreateMovie(t *testing.T, title string, messageID int) int64 {
	t.Helper()
	id, err := f.storage.CreateMovie(context.Background(), models.Movie{
		Title:     title,
		MessageID: messageID,
		ChannelID: -100123,
	})
	require.NoError(t, err)
	return id
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
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

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	path, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, path))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
