package duckdb_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/infra/duckdb"
	"github.com/m-mizutani/stargazer/pkg/infra/sinktest"
)

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	store, err := duckdb.New(ctx, "", duckdb.WithBatchSize(2))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sinktest.Run(t, store)
}

func TestStore_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "stars.duckdb")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	store, err := duckdb.New(ctx, path, duckdb.WithTable("stars"))
	gt.NoError(t, err)
	gt.NoError(t, store.EnsureTable(ctx))

	w, err := store.NewWriter(ctx)
	gt.NoError(t, err)
	gt.NoError(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", Login: "x", UserID: 1, StarredAt: ts, ExtractedAt: ts}))
	gt.NoError(t, w.Close(ctx))
	gt.NoError(t, store.Close())

	// data survives reopening
	store, err = duckdb.New(ctx, path, duckdb.WithTable("stars"))
	gt.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	counts, err := store.CountBySource(ctx)
	gt.NoError(t, err)
	gt.Equal(t, counts["o/a"], int64(1))
}

func TestNew_InvalidTable(t *testing.T) {
	_, err := duckdb.New(context.Background(), "", duckdb.WithTable("stars; DROP"))
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
}
