// Package sinktest holds the behavior every EventStore implementation must share.
package sinktest

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// Run exercises store, which must start without the event table
func Run(t *testing.T, store interfaces.EventStore) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	run1 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	run2 := run1.Add(24 * time.Hour)

	write := func(t *testing.T, rows ...*model.EventRow) {
		t.Helper()
		w, err := store.NewWriter(ctx)
		gt.NoError(t, err)
		for _, row := range rows {
			gt.NoError(t, w.Write(ctx, row))
		}
		gt.NoError(t, w.Close(ctx))
	}

	t.Run("table is created once", func(t *testing.T) {
		exists, err := store.TableExists(ctx)
		gt.NoError(t, err)
		gt.False(t, exists)

		gt.NoError(t, store.EnsureTable(ctx))
		gt.NoError(t, store.EnsureTable(ctx))

		exists, err = store.TableExists(ctx)
		gt.NoError(t, err)
		gt.True(t, exists)

		groups, err := store.MaxStarredAt(ctx)
		gt.NoError(t, err)
		gt.A(t, groups).Length(0)
	})

	t.Run("rows merge by repository and user", func(t *testing.T) {
		write(t,
			&model.EventRow{RepoFullName: "o/a", Login: "alice", UserID: 1, StarredAt: base, ExtractedAt: run1},
			&model.EventRow{RepoFullName: "o/a", Login: "bob", UserID: 2, StarredAt: base.Add(time.Hour), ExtractedAt: run1},
			&model.EventRow{RepoFullName: "o/b", Login: "alice", UserID: 1, StarredAt: base.Add(2 * time.Hour), ExtractedAt: run1},
		)
		write(t,
			&model.EventRow{RepoFullName: "o/a", Login: "alice-renamed", UserID: 1, StarredAt: base, ExtractedAt: run2},
			&model.EventRow{RepoFullName: "o/a", Login: "bob", UserID: 2, StarredAt: base.Add(time.Hour), ExtractedAt: run2},
		)

		counts, err := store.CountBySource(ctx)
		gt.NoError(t, err)
		gt.Equal(t, len(counts), 2)
		gt.Equal(t, counts["o/a"], int64(2))
		gt.Equal(t, counts["o/b"], int64(1))
	})

	t.Run("max starred_at per repository", func(t *testing.T) {
		groups, err := store.MaxStarredAt(ctx)
		gt.NoError(t, err)
		gt.A(t, groups).Length(2)

		got := map[string]any{}
		for _, g := range groups {
			got[g.Group] = g.Value
		}
		gt.True(t, sameInstant(got["o/a"], base.Add(time.Hour)))
		gt.True(t, sameInstant(got["o/b"], base.Add(2*time.Hour)))
	})

	t.Run("older extraction does not overwrite newer", func(t *testing.T) {
		write(t,
			&model.EventRow{RepoFullName: "o/b", Login: "stale", UserID: 1, StarredAt: base.Add(-time.Hour), ExtractedAt: run1.Add(-time.Hour)},
		)

		groups, err := store.MaxStarredAt(ctx)
		gt.NoError(t, err)
		for _, g := range groups {
			if g.Group == "o/b" {
				gt.True(t, sameInstant(g.Value, base.Add(2*time.Hour)))
			}
		}
	})

	t.Run("drop removes the table", func(t *testing.T) {
		gt.NoError(t, store.DropTable(ctx))
		exists, err := store.TableExists(ctx)
		gt.NoError(t, err)
		gt.False(t, exists)
	})
}

// sameInstant compares a value returned by a store against want, accepting the
// text representations stores use for timestamps
func sameInstant(v any, want time.Time) bool {
	switch value := v.(type) {
	case time.Time:
		return value.Equal(want)
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02 15:04:05.999999999Z07:00"} {
			if t, err := time.Parse(layout, value); err == nil {
				return t.Equal(want)
			}
		}
	}
	return false
}
