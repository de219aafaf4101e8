package interfaces

import (
	"context"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// EventStore is the destination of stargazer events. Rows are merged by
// (repo_full_name, user_id), keeping the most recently extracted version.
type EventStore interface {
	// TableExists reports whether the event table has been created
	TableExists(ctx context.Context) (bool, error)

	// EnsureTable creates the event table if missing
	EnsureTable(ctx context.Context) error

	// DropTable removes the event table and all its rows
	DropTable(ctx context.Context) error

	// MaxStarredAt returns max(starred_at) grouped by repo_full_name
	MaxStarredAt(ctx context.Context) ([]*model.GroupMax, error)

	// CountBySource returns count(*) grouped by repo_full_name
	CountBySource(ctx context.Context) (map[string]int64, error)

	// NewWriter opens the merge-write path
	NewWriter(ctx context.Context) (EventWriter, error)

	// Close releases the connection
	Close() error
}

// EventWriter streams rows into the store. It may hold a bounded number of
// rows before writing them; Close writes whatever is still pending.
type EventWriter interface {
	Write(ctx context.Context, row *model.EventRow) error
	Close(ctx context.Context) error
}
