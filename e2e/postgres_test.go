package e2e_test

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	pgOnce    sync.Once
	pgDSN     string
	pgErr     error
	pgCleanup = func() {}
)

// startPostgres runs the metadata database container shared by every
// postgres backed server in this package.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := pgcontainer.Run(ctx,
		"postgres:18-alpine",
		pgcontainer.WithDatabase("lfsgate"),
		pgcontainer.WithUsername("lfsgate"),
		pgcontainer.WithPassword("lfsgate"),
		pgcontainer.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, err
	}

	terminate := func() { _ = testcontainers.TerminateContainer(container) }

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		terminate()
		return "", nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		terminate()
		return "", nil, err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		terminate()
		return "", nil, err
	}

	return dsn, terminate, nil
}

// getSharedPostgresDatabase returns the DSN of the shared container,
// starting it on first use. TestMain terminates it.
func getSharedPostgresDatabase(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() {
		var cleanup func()
		pgDSN, cleanup, pgErr = startPostgres(context.Background())
		if pgErr == nil {
			pgCleanup = cleanup
		}
	})

	if pgErr != nil {
		t.Fatalf("failed to start postgres: %v", pgErr)
	}
	return pgDSN
}
