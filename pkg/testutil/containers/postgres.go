//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	platformpg "caseflow/internal/platform/postgres"
)

// StartPostgres launches a throwaway Postgres container, applies the schema
// and returns an open connection. The container is torn down via t.Cleanup.
func StartPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("caseflow_test"),
		tcpostgres.WithUsername("caseflow"),
		tcpostgres.WithPassword("caseflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "postgres connection string")

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "open postgres connection")
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, platformpg.Schema)
	require.NoError(t, err, "apply schema")

	return db
}

// TruncateAll resets every table between test cases so each case starts from
// an empty database without paying the container startup cost again.
func TruncateAll(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`TRUNCATE
		transition_events,
		payment_records,
		information_requests,
		tasks,
		assessments,
		clock_exclusion_periods,
		status_history,
		requests
	CASCADE`)
	require.NoError(t, err, "truncate tables")
}
