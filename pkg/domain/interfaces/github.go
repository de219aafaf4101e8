package interfaces

import (
	"context"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// StargazerClient queries one page of stargazer events of a repository
type StargazerClient interface {
	// FetchStargazers returns the page following query.After, ordered by query.Direction.
	// Transport failures are tagged types.ErrTagTransport, error payloads types.ErrTagProtocol.
	FetchStargazers(ctx context.Context, query *model.StargazerQuery) (*model.StargazerPage, error)
}
