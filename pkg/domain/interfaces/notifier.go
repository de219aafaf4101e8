package interfaces

import (
	"context"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// Notifier publishes the outcome of a run
type Notifier interface {
	NotifyRun(ctx context.Context, report *model.RunReport, runErr error) error
}
