package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/infra/memory"
	"github.com/m-mizutani/stargazer/pkg/infra/sinktest"
)

func TestStore_Contract(t *testing.T) {
	sinktest.Run(t, memory.New())
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("table lifecycle", func(t *testing.T) {
		store := memory.New()

		exists, err := store.TableExists(ctx)
		gt.NoError(t, err)
		gt.False(t, exists)

		_, err = store.MaxStarredAt(ctx)
		gt.Error(t, err)

		gt.NoError(t, store.EnsureTable(ctx))
		exists, err = store.TableExists(ctx)
		gt.NoError(t, err)
		gt.True(t, exists)

		gt.NoError(t, store.DropTable(ctx))
		exists, err = store.TableExists(ctx)
		gt.NoError(t, err)
		gt.False(t, exists)
	})

	t.Run("merge keeps latest extraction per key", func(t *testing.T) {
		store := memory.New()
		gt.NoError(t, store.EnsureTable(ctx))

		w, err := store.NewWriter(ctx)
		gt.NoError(t, err)

		gt.NoError(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", Login: "old", UserID: 1, StarredAt: base, ExtractedAt: base}))
		gt.NoError(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", Login: "new", UserID: 1, StarredAt: base, ExtractedAt: base.Add(time.Hour)}))
		gt.NoError(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", Login: "stale", UserID: 1, StarredAt: base, ExtractedAt: base.Add(-time.Hour)}))
		gt.NoError(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", Login: "other", UserID: 2, StarredAt: base.Add(time.Minute), ExtractedAt: base}))
		gt.NoError(t, w.Close(ctx))
		gt.Error(t, w.Write(ctx, &model.EventRow{RepoFullName: "o/a", UserID: 3}))

		rows := store.Rows()
		gt.A(t, rows).Length(2)
		gt.Equal(t, rows[0].Login, "new")
		gt.Equal(t, store.Writes(), 4)

		counts, err := store.CountBySource(ctx)
		gt.NoError(t, err)
		gt.Equal(t, counts["o/a"], int64(2))

		groups, err := store.MaxStarredAt(ctx)
		gt.NoError(t, err)
		gt.A(t, groups).Length(1)
		gt.Equal(t, groups[0].Group, "o/a")
		gt.Equal(t, groups[0].Value, any(base.Add(time.Minute)))
	})
}
