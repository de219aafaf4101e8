package model

import (
	"time"

	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// EventRow is one stargazer event as persisted in the sink.
// (RepoFullName, UserID) is the natural key.
type EventRow struct {
	RepoFullName string
	Login        string
	UserID       int64
	StarredAt    time.Time // UTC, from the remote API
	ExtractedAt  time.Time // UTC, constant for a run
}

// StargazerQuery is one page request against the remote API
type StargazerQuery struct {
	Source    SourceRef
	Direction types.Direction
	After     string // empty for the first page
	First     int
}

// StargazerEdge is one event returned by the remote API
type StargazerEdge struct {
	StarredAt  time.Time
	Login      string
	DatabaseID int64
}

// StargazerPage is one page of the remote API response
type StargazerPage struct {
	// Found is false when the repository does not exist or is not visible
	Found       bool
	Edges       []StargazerEdge
	EndCursor   string
	HasNextPage bool
}
