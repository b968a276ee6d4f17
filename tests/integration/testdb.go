// Package integration runs the ledger against real PostgreSQL and Redis
// containers started with testcontainers. The tests are skipped with -short.
package integration

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shivfurniture/erp/internal/infrastructure/config"
	"github.com/shivfurniture/erp/internal/infrastructure/migration"
	"github.com/shivfurniture/erp/internal/infrastructure/persistence"
	"github.com/shivfurniture/erp/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const (
	postgresImage = "postgres:16-alpine"
	redisImage    = "redis:7-alpine"
)

var (
	pgOnce      sync.Once
	pgContainer *tcpostgres.PostgresContainer
	pgErr       error
)

// TestDB is a migrated, freshly truncated database
type TestDB struct {
	*persistence.Database
	Config config.DatabaseConfig
}

// Store returns the unit of work over the test database
func (tdb *TestDB) Store() *persistence.GormStore {
	return tdb.Database.Store()
}

func skipShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: needs Docker")
	}
}

// NewTestDB returns a connection to the shared PostgreSQL container with the
// schema migrated and every table emptied. Tests using it must not run in
// parallel with each other.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	pgOnce.Do(func() {
		pgContainer, pgErr = tcpostgres.Run(ctx, postgresImage,
			tcpostgres.WithDatabase("shiv_erp_test"),
			tcpostgres.WithUsername("erp"),
			tcpostgres.WithPassword("erp-test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(90*time.Second)),
		)
	})
	require.NoError(t, pgErr, "failed to start PostgreSQL container")

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "erp",
		Password:        "erp-test",
		DBName:          "shiv_erp_test",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
	db, err := persistence.NewDatabase(ctx, &cfg, persistence.WithPingRetry(5, time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	tdb := &TestDB{Database: db, Config: cfg}
	tdb.migrate(t)
	tdb.truncate(t)
	return tdb
}

func (tdb *TestDB) migrate(t *testing.T) {
	t.Helper()
	// golang-migrate closes the *sql.DB it is handed, so it gets its own pool
	own, err := persistence.NewDatabase(context.Background(), &tdb.Config)
	require.NoError(t, err)
	ownSQL, err := own.SQL()
	require.NoError(t, err)

	m, err := migration.New(ownSQL, migrations.FS, logger(t))
	require.NoError(t, err)
	defer func() { _ = m.Close() }()
	require.NoError(t, m.Up())
}

func (tdb *TestDB) truncate(t *testing.T) {
	t.Helper()
	var tables []string
	require.NoError(t, tdb.DB.Raw(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`).Scan(&tables).Error)
	if len(tables) == 0 {
		return
	}
	require.NoError(t, tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))).Error)
}

// StartRedis starts a throwaway Redis container and returns its host and port
func StartRedis(t *testing.T) (string, int) {
	t.Helper()
	skipShort(t)
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return host, port.Int()
}

func logger(t *testing.T) *zap.Logger {
	if os.Getenv("TEST_DB_DEBUG") != "" {
		return zaptest.NewLogger(t)
	}
	return zap.NewNop()
}

// terminatePostgres stops the shared container after the package's tests
func terminatePostgres() {
	if pgContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = pgContainer.Terminate(ctx)
	}
}
