package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// SourceFetcher paginates the stargazer history of one source and pushes its rows to the queue
type SourceFetcher struct {
	client      interfaces.StargazerClient
	extractedAt time.Time
	opts        *options
}

// NewSourceFetcher creates a fetcher. extractedAt is stamped on every produced row.
func NewSourceFetcher(client interfaces.StargazerClient, extractedAt time.Time, opts ...Option) *SourceFetcher {
	return &SourceFetcher{
		client:      client,
		extractedAt: extractedAt.UTC(),
		opts:        newOptions(opts),
	}
}

// FetchInput is the work of one source
type FetchInput struct {
	Source model.SourceRef
	Mode   types.Mode
	// Watermark is the stop boundary. Zero means the source has no prior data.
	Watermark time.Time
}

// Direction returns the event ordering used for the input. Incremental fetch of a
// source with a watermark runs newest first so it can stop at the boundary; any
// other fetch reads the whole history oldest first.
func (x *FetchInput) Direction() types.Direction {
	if x.Mode == types.ModeIncremental && !x.Watermark.IsZero() {
		return types.DirectionDesc
	}
	return types.DirectionAsc
}

// Fetch paginates until the source is exhausted or the watermark is reached, sending
// every row to out. It sends no control message; the caller turns the result into Done
// or Error. The run context is checked before each page. A page request already
// issued is not interrupted by cancellation.
func (f *SourceFetcher) Fetch(ctx context.Context, input *FetchInput, out chan<- model.Message) (*model.WorkerMetrics, error) {
	src := input.Source
	direction := input.Direction()
	stopAtWatermark := direction == types.DirectionDesc

	metrics := &model.WorkerMetrics{
		Source:     src.FullName(),
		StopReason: model.StopExhausted,
	}

	logger := ctxlog.From(ctx).With("source", src.FullName())
	logger.Debug("Start fetching source",
		"direction", direction,
		"watermark", input.Watermark,
	)

	cursor := ""
	for {
		if err := context.Cause(ctx); err != nil {
			return metrics, goerr.Wrap(err, "fetch cancelled",
				goerr.V("source", src.FullName()),
				goerr.V("pages", metrics.Pages),
			)
		}

		query := &model.StargazerQuery{
			Source:    src,
			Direction: direction,
			After:     cursor,
			First:     f.opts.pageSize,
		}
		page, err := f.client.FetchStargazers(context.WithoutCancel(ctx), query)
		if err != nil {
			return metrics, goerr.Wrap(err, "failed to fetch stargazer page",
				goerr.V("source", src.FullName()),
				goerr.V("page", metrics.Pages+1),
			)
		}

		if !page.Found {
			logger.Warn("Repository not found, treat as exhausted")
			return metrics, nil
		}

		metrics.Pages++
		f.opts.observer.PageFetched(src.FullName())

		for _, edge := range page.Edges {
			starredAt := edge.StarredAt.UTC()
			if stopAtWatermark && !starredAt.After(input.Watermark) {
				metrics.StopReason = model.StopWatermark
				logger.Debug("Reached watermark",
					"page", metrics.Pages,
					"yielded", metrics.Yielded,
				)
				return metrics, nil
			}

			row := &model.EventRow{
				RepoFullName: src.FullName(),
				Login:        edge.Login,
				UserID:       edge.DatabaseID,
				StarredAt:    starredAt,
				ExtractedAt:  f.extractedAt,
			}
			out <- model.DataMessage(src, row)
			metrics.Yielded++
		}

		logger.Debug("Fetched page",
			"page", metrics.Pages,
			"yielded", metrics.Yielded,
			"has_next", page.HasNextPage,
		)

		if !page.HasNextPage || page.EndCursor == "" {
			return metrics, nil
		}
		cursor = page.EndCursor
	}
}
