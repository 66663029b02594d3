package testdb

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	moduledb "github.com/Chikiwuapo/Predicciones-Proyecto/internal/db"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

var (
	sharedContainer *PostgresContainer
	sharedOnce      sync.Once
)

// PostgresContainer wraps the postgres testcontainer
type PostgresContainer struct {
	Container *postgres.PostgresContainer
	DB        *bun.DB
	DSN       string
}

// SetupSharedPostgres creates a single PostgreSQL container shared across all tests
// This is much faster than creating a new container for each test.
//
// IMPORTANT: Tests using shared container CANNOT run in parallel!
//
// Usage:
//
//	func TestMyService(t *testing.T) {
//	    pgContainer := testdb.SetupSharedPostgres(t)
//	    defer pgContainer.Cleanup(t)  // ← Only call once at top level
//
//	    pgContainer.RunMigrations(t, migrations...)
//
//	    t.Run("Test1", func(t *testing.T) {
//	        testdb.CleanupTables(t, pgContainer.DB, "my_table")
//	        // ... test
//	    })
//	}
func SetupSharedPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	sharedOnce.Do(func() {
		ctx := context.Background()
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			),
		)
		require.NoError(t, err)

		connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)

		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
		db := bun.NewDB(sqldb, pgdialect.New())

		err = db.Ping()
		require.NoError(t, err)

		sharedContainer = &PostgresContainer{
			Container: pgContainer,
			DB:        db,
			DSN:       connStr,
		}
	})

	return sharedContainer
}

func (pc *PostgresContainer) Cleanup(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if pc.DB != nil {
		pc.DB.Close()
	}

	if pc.Container != nil {
		if err := pc.Container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
}

// RunMigrations creates the tables (with foreign keys) the same way the app
// does at boot.
func (pc *PostgresContainer) RunMigrations(t *testing.T, migrations ...moduledb.Migration) {
	t.Helper()
	ctx := context.Background()

	err := moduledb.RunMigrations(ctx, pc.DB, migrations...)
	require.NoError(t, err, "failed to run migrations")
}

// CreateLegacyTable sets up the external estudiantes flat table the bulk
// importer reads from. In production this table pre-exists; tests have to
// fabricate it.
func (pc *PostgresContainer) CreateLegacyTable(t *testing.T, table string) {
	t.Helper()
	ctx := context.Background()

	_, err := pc.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+table+` (
			id BIGSERIAL PRIMARY KEY,
			nombre VARCHAR NOT NULL,
			apellido VARCHAR NOT NULL,
			edad INTEGER NOT NULL,
			genero VARCHAR NOT NULL,
			ingreso_familiar DOUBLE PRECISION NOT NULL,
			ubicacion VARCHAR NOT NULL,
			situacion_economica VARCHAR NOT NULL,
			tiempo_estudio DOUBLE PRECISION NOT NULL,
			apoyo_escolar BOOLEAN NOT NULL,
			apoyo_familiar BOOLEAN NOT NULL,
			apoyo_educativo_extra BOOLEAN NOT NULL
		)
	`)
	require.NoError(t, err, "failed to create legacy table")
}

func CleanupTables(t *testing.T, db *bun.DB, tables ...string) {
	t.Helper()

	ctx := context.Background()

	for _, table := range tables {
		_, err := db.ExecContext(ctx, "TRUNCATE "+table+" RESTART IDENTITY CASCADE")
		require.NoError(t, err, "failed to truncate table: %s", table)
	}
}
