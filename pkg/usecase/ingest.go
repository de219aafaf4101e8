package usecase

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

type ingestUseCase struct {
	store  interfaces.EventStore
	client interfaces.StargazerClient
	opts   *options
}

var _ interfaces.IngestUseCase = (*ingestUseCase)(nil)

// NewIngest creates the ingestion use case. The store is owned by the caller.
func NewIngest(store interfaces.EventStore, client interfaces.StargazerClient, opts ...Option) *ingestUseCase {
	return &ingestUseCase{
		store:  store,
		client: client,
		opts:   newOptions(opts),
	}
}

// Run executes one ingestion run. Rows forwarded before a failure are kept in the
// store; a rerun converges through the watermark and the merge key.
func (uc *ingestUseCase) Run(ctx context.Context, input *interfaces.IngestInput) (*model.RunReport, error) {
	if len(input.Sources) == 0 {
		return nil, goerr.New("no source configured", goerr.T(types.ErrTagConfig))
	}
	if input.Rebuild && input.Mode != types.ModeBackfill {
		return nil, goerr.New("rebuild is only allowed in backfill mode",
			goerr.V("mode", input.Mode),
			goerr.T(types.ErrTagConfig),
		)
	}

	startedAt := uc.opts.now().UTC()
	report := &model.RunReport{
		RunID:     uuid.NewString(),
		Mode:      input.Mode.String(),
		StartedAt: startedAt,
	}

	logger := ctxlog.From(ctx).With("run_id", report.RunID, "mode", input.Mode)
	ctx = ctxlog.With(ctx, logger)
	logger.Info("Start ingestion run", "sources", len(input.Sources))

	result, err := uc.run(ctx, input, report)
	report.Duration = uc.opts.now().Sub(startedAt)
	uc.opts.observer.RunFinished(input.Mode, err == nil, report.Duration)

	if result != nil {
		report.Forwarded = result.Forwarded
	}

	if err != nil {
		logger.Error("Ingestion run failed", "error", err, "duration", report.Duration)
		return report, err
	}

	logger.Info("Ingestion run completed",
		"duration", report.Duration,
		"rows_before", report.RowsBefore,
		"rows_after", report.RowsAfter,
		"rows_added", report.RowsAdded,
	)
	return report, nil
}

func (uc *ingestUseCase) run(ctx context.Context, input *interfaces.IngestInput, report *model.RunReport) (*CoordinateResult, error) {
	logger := ctxlog.From(ctx)

	exists, err := uc.store.TableExists(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check event table")
	}

	before := map[string]int64{}
	if exists {
		if before, err = uc.store.CountBySource(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to count rows before run")
		}
	}

	if input.Mode == types.ModeBackfill && input.Rebuild && exists {
		logger.Warn("Rebuild requested, dropping event table")
		if err := uc.store.DropTable(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to drop event table")
		}
		before = map[string]int64{}
	}
	report.RowsBefore = sumCounts(before)

	watermark := model.Watermark{}
	if input.Mode == types.ModeIncremental {
		if watermark, err = NewWatermarkResolver(uc.store).Resolve(ctx); err != nil {
			return nil, err
		}
	}

	if err := uc.store.EnsureTable(ctx); err != nil {
		return nil, goerr.Wrap(err, "failed to create event table")
	}

	writer, err := uc.store.NewWriter(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open event writer")
	}

	result, runErr := newCoordinator(uc.client, uc.opts).Run(ctx, &CoordinateInput{
		Sources:     input.Sources,
		Mode:        input.Mode,
		Watermark:   watermark,
		ExtractedAt: report.StartedAt,
		Writer:      writer,
	})

	// Forwarded rows are flushed on failure too
	finalizeCtx := context.WithoutCancel(ctx)
	if err := writer.Close(finalizeCtx); err != nil {
		if runErr != nil {
			logger.Error("Failed to flush rows of failed run", "error", err)
			return result, runErr
		}
		return result, goerr.Wrap(err, "failed to flush event rows")
	}

	after, err := uc.store.CountBySource(finalizeCtx)
	if err != nil {
		if runErr != nil {
			return result, runErr
		}
		return result, goerr.Wrap(err, "failed to count rows after run")
	}

	report.RowsAfter = sumCounts(after)
	report.RowsAdded = report.RowsAfter - report.RowsBefore
	report.Sources = buildSourceReports(input.Sources, result, before, after)

	return result, runErr
}

// Status returns the persisted state of sources. When sources is empty every source
// found in the store is listed.
func (uc *ingestUseCase) Status(ctx context.Context, sources []model.SourceRef) ([]*model.SourceStatus, error) {
	exists, err := uc.store.TableExists(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to check event table")
	}

	watermark := model.Watermark{}
	counts := map[string]int64{}
	if exists {
		if watermark, err = NewWatermarkResolver(uc.store).Resolve(ctx); err != nil {
			return nil, err
		}
		if counts, err = uc.store.CountBySource(ctx); err != nil {
			return nil, goerr.Wrap(err, "failed to count rows")
		}
	}

	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.FullName())
	}
	if len(names) == 0 {
		for name := range counts {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	statuses := make([]*model.SourceStatus, 0, len(names))
	for _, name := range names {
		statuses = append(statuses, &model.SourceStatus{
			Source:    name,
			Watermark: watermark[name],
			Rows:      counts[name],
		})
	}
	return statuses, nil
}

func sumCounts(counts map[string]int64) int64 {
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

func buildSourceReports(sources []model.SourceRef, result *CoordinateResult, before, after map[string]int64) []*model.SourceReport {
	metrics := map[string]*model.WorkerMetrics{}
	if result != nil {
		for _, m := range result.Metrics {
			metrics[m.Source] = m
		}
	}

	reports := make([]*model.SourceReport, 0, len(sources))
	for _, src := range sources {
		name := src.FullName()
		r := &model.SourceReport{
			Source:    name,
			RowsAdded: after[name] - before[name],
		}
		if m, ok := metrics[name]; ok {
			r.Pages = m.Pages
			r.Yielded = m.Yielded
			r.StopReason = m.StopReason
		}
		reports = append(reports, r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Source < reports[j].Source
	})
	return reports
}
