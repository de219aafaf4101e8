package usecase

import (
	"sort"
	"sync"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

// MetricsAggregator collects per-source worker metrics. Each source is
// recorded once, after the coordinator has consumed its Done message.
type MetricsAggregator struct {
	mu      sync.Mutex
	metrics map[string]*model.WorkerMetrics
}

// NewMetricsAggregator creates an empty aggregator
func NewMetricsAggregator() *MetricsAggregator {
	return &MetricsAggregator{
		metrics: make(map[string]*model.WorkerMetrics),
	}
}

// Record stores metrics of a source. A later record for the same source replaces the earlier one.
func (a *MetricsAggregator) Record(m *model.WorkerMetrics) {
	copied := *m

	a.mu.Lock()
	a.metrics[m.Source] = &copied
	a.mu.Unlock()
}

// Get returns metrics of a source
func (a *MetricsAggregator) Get(source string) (*model.WorkerMetrics, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.metrics[source]
	if !ok {
		return nil, false
	}
	copied := *m
	return &copied, true
}

// Report returns all recorded metrics sorted by source name
func (a *MetricsAggregator) Report() []*model.WorkerMetrics {
	a.mu.Lock()
	out := make([]*model.WorkerMetrics, 0, len(a.metrics))
	for _, m := range a.metrics {
		copied := *m
		out = append(out, &copied)
	}
	a.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Source < out[j].Source
	})
	return out
}
