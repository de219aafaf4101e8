package usecase_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/usecase"
)

func TestMetricsAggregator(t *testing.T) {
	agg := usecase.NewMetricsAggregator()

	var wg sync.WaitGroup
	for i := 9; i >= 0; i-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			agg.Record(&model.WorkerMetrics{
				Source:     fmt.Sprintf("o/r%d", i),
				Pages:      i,
				Yielded:    i * 10,
				StopReason: model.StopExhausted,
			})
		}()
	}
	wg.Wait()

	report := agg.Report()
	gt.A(t, report).Length(10)
	for i, m := range report {
		gt.Equal(t, m.Source, fmt.Sprintf("o/r%d", i))
		gt.Equal(t, m.Yielded, i*10)
	}

	m, ok := agg.Get("o/r3")
	gt.True(t, ok)
	gt.Equal(t, m.Pages, 3)

	_, ok = agg.Get("o/none")
	gt.False(t, ok)

	// last write wins
	agg.Record(&model.WorkerMetrics{Source: "o/r3", Pages: 99})
	m, _ = agg.Get("o/r3")
	gt.Equal(t, m.Pages, 99)
}
