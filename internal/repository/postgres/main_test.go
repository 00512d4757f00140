package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты поднимают PostGIS в контейнере и запускаются только с RYDR_INTEGRATION=1
// Вместо контейнера можно указать готовую БД через TEST_DATABASE_URL
func setupDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("RYDR_INTEGRATION") != "1" {
		t.Skip("integration tests disabled, set RYDR_INTEGRATION=1")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = startPostgis(ctx, t)
	}

	_, err := database.Migrate(ctx, dsn)
	require.NoError(t, err)

	pool, err := database.ConnectDSN(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(pool) })

	_, err = pool.Exec(ctx, `TRUNCATE trips, vehicles, users CASCADE`)
	require.NoError(t, err)

	return pool
}

func startPostgis(ctx context.Context, t *testing.T) string {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "rydr_test",
		},
		// Образ перезапускает postgres после init скриптов, готовность - со второго сообщения
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/rydr_test?sslmode=disable", host, port.Port())
}
