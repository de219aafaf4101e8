package usecase

import (
	"time"

	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

const (
	// DefaultMaxWorkers caps the worker count when none is configured
	DefaultMaxWorkers = 5
	// DefaultQueueSize is the capacity of the shared row queue
	DefaultQueueSize = 10_000
	// DefaultPageSize is the number of events requested per page, the remote maximum
	DefaultPageSize = 100
)

// options holds internal configuration shared by the fetch core
type options struct {
	workers   int
	queueSize int
	pageSize  int
	observer  interfaces.RunObserver
	now       func() time.Time
}

// Option is a functional option of the fetch core
type Option func(*options)

// WithWorkers bounds the number of concurrently fetched sources. 0 means min(sources, DefaultMaxWorkers).
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithQueueSize sets the capacity of the shared queue
func WithQueueSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueSize = n
		}
	}
}

// WithPageSize sets events per page, capped at DefaultPageSize
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= DefaultPageSize {
			o.pageSize = n
		}
	}
}

// WithObserver sets the receiver of run progress metrics
func WithObserver(observer interfaces.RunObserver) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		queueSize: DefaultQueueSize,
		pageSize:  DefaultPageSize,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// workerCount resolves the pool size for n sources
func (o *options) workerCount(n int) int {
	if o.workers > 0 {
		return o.workers
	}
	return max(1, min(n, DefaultMaxWorkers))
}

type nopObserver struct{}

func (nopObserver) PageFetched(string)                          {}
func (nopObserver) RowsForwarded(int)                           {}
func (nopObserver) QueueDepth(int)                              {}
func (nopObserver) WorkerFinished(string, string)               {}
func (nopObserver) RunFinished(types.Mode, bool, time.Duration) {}
