package batch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/utils/batch"
)

func TestWriter(t *testing.T) {
	ctx := context.Background()

	t.Run("flushes when the buffer is full", func(t *testing.T) {
		var sizes []int
		w := batch.NewWriter(3, func(ctx context.Context, rows []*model.EventRow) error {
			sizes = append(sizes, len(rows))
			return nil
		})

		for i := 0; i < 7; i++ {
			gt.NoError(t, w.Write(ctx, &model.EventRow{UserID: int64(i)}))
		}
		gt.A(t, sizes).Length(2)
		gt.Equal(t, w.Flushed(), 6)

		gt.NoError(t, w.Close(ctx))
		gt.A(t, sizes).Length(3)
		gt.Equal(t, sizes[2], 1)
		gt.Equal(t, w.Flushed(), 7)
	})

	t.Run("close is idempotent and rejects later writes", func(t *testing.T) {
		calls := 0
		w := batch.NewWriter(10, func(ctx context.Context, rows []*model.EventRow) error {
			calls++
			return nil
		})
		gt.NoError(t, w.Write(ctx, &model.EventRow{}))
		gt.NoError(t, w.Close(ctx))
		gt.NoError(t, w.Close(ctx))
		gt.Equal(t, calls, 1)
		gt.Error(t, w.Write(ctx, &model.EventRow{}))
	})

	t.Run("flush error is returned and rows are kept", func(t *testing.T) {
		fail := true
		w := batch.NewWriter(2, func(ctx context.Context, rows []*model.EventRow) error {
			if fail {
				return errors.New("connection reset")
			}
			return nil
		})
		gt.NoError(t, w.Write(ctx, &model.EventRow{UserID: 1}))
		gt.Error(t, w.Write(ctx, &model.EventRow{UserID: 2}))
		gt.Equal(t, w.Flushed(), 0)

		fail = false
		gt.NoError(t, w.Close(ctx))
		gt.Equal(t, w.Flushed(), 2)
	})

	t.Run("non-positive size falls back to default", func(t *testing.T) {
		calls := 0
		w := batch.NewWriter(0, func(ctx context.Context, rows []*model.EventRow) error {
			calls++
			return nil
		})
		for i := 0; i < batch.DefaultSize-1; i++ {
			gt.NoError(t, w.Write(ctx, &model.EventRow{}))
		}
		gt.Equal(t, calls, 0)
		gt.NoError(t, w.Write(ctx, &model.EventRow{}))
		gt.Equal(t, calls, 1)
	})
}

func TestDedupe(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []*model.EventRow{
		{RepoFullName: "o/a", UserID: 1, Login: "first", ExtractedAt: base},
		{RepoFullName: "o/b", UserID: 1, Login: "other repo", ExtractedAt: base},
		{RepoFullName: "o/a", UserID: 1, Login: "newer", ExtractedAt: base.Add(time.Hour)},
		{RepoFullName: "o/a", UserID: 1, Login: "older", ExtractedAt: base.Add(-time.Hour)},
		{RepoFullName: "o/a", UserID: 2, Login: "second", ExtractedAt: base},
	}

	out := batch.Dedupe(rows)
	gt.A(t, out).Length(3)
	gt.Equal(t, out[0].Login, "newer")
	gt.Equal(t, out[1].Login, "other repo")
	gt.Equal(t, out[2].Login, "second")
}
