package interfaces

import (
	"time"

	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// RunObserver receives run progress for metrics collection. Calls come from
// worker goroutines and the coordinator concurrently.
type RunObserver interface {
	PageFetched(source string)
	RowsForwarded(n int)
	QueueDepth(depth int)
	WorkerFinished(source string, result string)
	RunFinished(mode types.Mode, success bool, duration time.Duration)
}
