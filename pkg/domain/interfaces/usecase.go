package interfaces

import (
	"context"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// IngestInput selects what a run fetches
type IngestInput struct {
	Mode    types.Mode
	Sources []model.SourceRef
	// Rebuild drops the event table before a backfill
	Rebuild bool
}

// IngestUseCase defines ingestion of stargazer events into the sink
type IngestUseCase interface {
	// Run fetches all sources and merges their events into the sink. The report is
	// returned on failure too, with what could be measured.
	Run(ctx context.Context, input *IngestInput) (*model.RunReport, error)

	// Status returns watermark and row count of each source
	Status(ctx context.Context, sources []model.SourceRef) ([]*model.SourceStatus, error)
}
