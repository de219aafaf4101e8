package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/utils/async"
	"golang.org/x/sync/errgroup"
)

// Coordinator runs one fetch worker per source under a bounded pool and drains
// their shared queue into the sink writer
type Coordinator struct {
	client interfaces.StargazerClient
	opts   *options
}

// NewCoordinator creates a coordinator fetching from client
func NewCoordinator(client interfaces.StargazerClient, opts ...Option) *Coordinator {
	return newCoordinator(client, newOptions(opts))
}

func newCoordinator(client interfaces.StargazerClient, opts *options) *Coordinator {
	return &Coordinator{
		client: client,
		opts:   opts,
	}
}

// CoordinateInput is one fan-out over sources
type CoordinateInput struct {
	Sources     []model.SourceRef
	Mode        types.Mode
	Watermark   model.Watermark
	ExtractedAt time.Time
	Writer      interfaces.EventWriter
}

// CoordinateResult is what the drain loop observed
type CoordinateResult struct {
	// Metrics of sources that reported Done, sorted by source name
	Metrics []*model.WorkerMetrics
	// Forwarded is the number of rows handed to the writer
	Forwarded int
	// Discarded is the number of rows dropped after the run had failed
	Discarded int
}

// Run fetches every source and forwards rows to input.Writer as they arrive. The first
// worker failure cancels the run: sources not yet started are skipped, the queue keeps
// being drained until every launched worker has returned, and a *model.RunFailure is
// returned. Rows forwarded before the failure was observed stay in the writer.
func (c *Coordinator) Run(ctx context.Context, input *CoordinateInput) (*CoordinateResult, error) {
	logger := ctxlog.From(ctx)

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	workers := c.opts.workerCount(len(input.Sources))
	queue := make(chan model.Message, c.opts.queueSize)
	fetcher := &SourceFetcher{
		client:      c.client,
		extractedAt: input.ExtractedAt.UTC(),
		opts:        c.opts,
	}

	logger.Info("Start fetching sources",
		"sources", len(input.Sources),
		"workers", workers,
		"queue_size", c.opts.queueSize,
	)

	// Launcher: schedules workers in source order, joins them, then closes the queue
	// so the drain loop below terminates only after every worker has returned.
	go func() {
		defer close(queue)

		var eg errgroup.Group
		eg.SetLimit(workers)
		for _, src := range input.Sources {
			if runCtx.Err() != nil {
				break
			}
			fetchInput := &FetchInput{Source: src, Mode: input.Mode}
			if wm, ok := input.Watermark.Lookup(src); ok && input.Mode == types.ModeIncremental {
				fetchInput.Watermark = wm
			}

			eg.Go(func() error {
				c.work(runCtx, cancel, fetcher, fetchInput, queue)
				return nil
			})
		}
		_ = eg.Wait()
	}()

	agg := NewMetricsAggregator()
	pending := make(map[string]struct{}, len(input.Sources))
	for _, src := range input.Sources {
		pending[src.FullName()] = struct{}{}
	}

	var (
		result  CoordinateResult
		failure *model.WorkerFailure
		sinkErr error
	)

	for msg := range queue {
		c.opts.observer.QueueDepth(len(queue))

		switch msg.Kind {
		case model.MessageData:
			if failure != nil || sinkErr != nil {
				result.Discarded++
				continue
			}
			if err := input.Writer.Write(ctx, msg.Row); err != nil {
				sinkErr = goerr.Wrap(err, "failed to write event row", goerr.V("source", msg.Source.FullName()))
				cancel(sinkErr)
				logger.Error("Sink write failed, cancel run", "error", err)
				continue
			}
			result.Forwarded++
			c.opts.observer.RowsForwarded(1)

		case model.MessageDone:
			delete(pending, msg.Source.FullName())
			agg.Record(msg.Metrics)
			logger.Info("Source completed",
				"source", msg.Source.FullName(),
				"pages", msg.Metrics.Pages,
				"yielded", msg.Metrics.Yielded,
				"stop_reason", msg.Metrics.StopReason,
			)

		case model.MessageError:
			delete(pending, msg.Source.FullName())
			if failure == nil {
				failure = firstFailure(runCtx, msg)
				logger.Error("Source failed, cancel remaining sources",
					"source", failure.Source,
					"error", failure.Cause,
				)
			} else {
				logger.Debug("Source stopped after run failure",
					"source", msg.Source.FullName(),
					"error", msg.Err,
				)
			}
		}
	}

	result.Metrics = agg.Report()
	if result.Discarded > 0 {
		logger.Warn("Rows discarded after failure", "count", result.Discarded)
	}

	switch {
	case sinkErr != nil:
		return &result, sinkErr
	case failure != nil:
		return &result, &model.RunFailure{Failure: failure}
	case len(pending) > 0:
		// Only reachable when the caller's context ended before every source was launched
		return &result, goerr.Wrap(context.Cause(ctx), "run cancelled before all sources were fetched",
			goerr.V("pending", len(pending)),
		)
	}

	return &result, nil
}

// work runs one source and reports exactly one control message. A source whose turn
// comes after the run was cancelled is skipped without any message.
func (c *Coordinator) work(ctx context.Context, cancel context.CancelCauseFunc, fetcher *SourceFetcher, input *FetchInput, queue chan<- model.Message) {
	src := input.Source
	if ctx.Err() != nil {
		ctxlog.From(ctx).Debug("Skip source, run already cancelled", "source", src.FullName())
		return
	}

	var metrics *model.WorkerMetrics
	err := async.Protect(ctx, func(ctx context.Context) error {
		m, err := fetcher.Fetch(ctx, input, queue)
		metrics = m
		return err
	})

	if err != nil {
		cancel(&model.WorkerFailure{Source: src.FullName(), Cause: err})
		c.opts.observer.WorkerFinished(src.FullName(), "failed")
		queue <- model.ErrorMessage(src, err)
		return
	}

	c.opts.observer.WorkerFinished(src.FullName(), string(metrics.StopReason))
	queue <- model.DoneMessage(src, metrics)
}

// firstFailure picks the failure that cancelled the run. Workers stopped by that
// cancellation may report before the worker that caused it.
func firstFailure(runCtx context.Context, msg model.Message) *model.WorkerFailure {
	var failure *model.WorkerFailure
	if errors.As(context.Cause(runCtx), &failure) {
		return failure
	}
	return &model.WorkerFailure{Source: msg.Source.FullName(), Cause: msg.Err}
}
