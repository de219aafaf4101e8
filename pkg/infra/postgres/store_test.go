package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/infra/postgres"
	"github.com/m-mizutani/stargazer/pkg/infra/sinktest"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupDSN(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("stargazer"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	gt.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	gt.NoError(t, err)
	return dsn
}

func TestStore_Contract(t *testing.T) {
	dsn := setupDSN(t)

	store, err := postgres.New(context.Background(), dsn, postgres.WithBatchSize(2))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sinktest.Run(t, store)
}

func TestNew(t *testing.T) {
	t.Run("invalid table name", func(t *testing.T) {
		_, err := postgres.New(context.Background(), "postgres://localhost/db", postgres.WithTable("a-b"))
		gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
	})

	t.Run("malformed dsn", func(t *testing.T) {
		_, err := postgres.New(context.Background(), "postgres://%zz")
		gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
	})
}
