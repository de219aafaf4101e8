package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// fakeRepo is the remote stargazer history of one repository, oldest first
type fakeRepo struct {
	events []model.StargazerEdge
	err    error
}

// fakeClient serves stargazer pages from memory. The cursor is the offset of the next edge.
type fakeClient struct {
	repos map[string]*fakeRepo
	delay time.Duration

	mu    sync.Mutex
	calls []model.StargazerQuery

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeClient(repos map[string]*fakeRepo) *fakeClient {
	return &fakeClient{repos: repos}
}

func (c *fakeClient) FetchStargazers(ctx context.Context, q *model.StargazerQuery) (*model.StargazerPage, error) {
	c.mu.Lock()
	c.calls = append(c.calls, *q)
	c.mu.Unlock()

	n := c.inflight.Add(1)
	defer c.inflight.Add(-1)
	for {
		cur := c.maxInflight.Load()
		if n <= cur || c.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}
	if c.delay > 0 {
		time.Sleep(c.delay)
	}

	repo, ok := c.repos[q.Source.FullName()]
	if !ok {
		return &model.StargazerPage{Found: false}, nil
	}
	if repo.err != nil {
		return nil, repo.err
	}

	events := make([]model.StargazerEdge, len(repo.events))
	copy(events, repo.events)
	if q.Direction == types.DirectionDesc {
		sort.SliceStable(events, func(i, j int) bool {
			return events[i].StarredAt.After(events[j].StarredAt)
		})
	}

	offset := 0
	if q.After != "" {
		v, err := strconv.Atoi(q.After)
		if err != nil {
			return nil, fmt.Errorf("bad cursor: %s", q.After)
		}
		offset = v
	}
	end := min(offset+q.First, len(events))

	return &model.StargazerPage{
		Found:       true,
		Edges:       events[offset:end],
		EndCursor:   strconv.Itoa(end),
		HasNextPage: end < len(events),
	}, nil
}

func (c *fakeClient) callsFor(source string) []model.StargazerQuery {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.StargazerQuery
	for _, q := range c.calls {
		if q.Source.FullName() == source {
			out = append(out, q)
		}
	}
	return out
}

// genEvents returns n events starred one minute apart from start, user ids from firstID
func genEvents(start time.Time, n int, firstID int64) []model.StargazerEdge {
	events := make([]model.StargazerEdge, 0, n)
	for i := 0; i < n; i++ {
		id := firstID + int64(i)
		events = append(events, model.StargazerEdge{
			StarredAt:  start.Add(time.Duration(i) * time.Minute),
			Login:      fmt.Sprintf("user%d", id),
			DatabaseID: id,
		})
	}
	return events
}

func mustRef(s string) model.SourceRef {
	ref, err := model.ParseSourceRef(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// recordWriter collects rows handed to the sink
type recordWriter struct {
	mu       sync.Mutex
	rows     []*model.EventRow
	delay    time.Duration
	failAt   int
	closed   bool
	closeErr error
}

func (w *recordWriter) Write(ctx context.Context, row *model.EventRow) error {
	if w.delay > 0 {
		time.Sleep(w.delay)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failAt > 0 && len(w.rows)+1 >= w.failAt {
		return fmt.Errorf("sink unavailable")
	}
	w.rows = append(w.rows, row)
	return nil
}

func (w *recordWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.closeErr
}

func (w *recordWriter) rowsFor(source string) []*model.EventRow {
	w.mu.Lock()
	defer w.mu.Unlock()

	var out []*model.EventRow
	for _, r := range w.rows {
		if r.RepoFullName == source {
			out = append(out, r)
		}
	}
	return out
}

// recordObserver keeps the highest queue depth and counters reported during a run
type recordObserver struct {
	mu        sync.Mutex
	maxDepth  int
	pages     map[string]int
	forwarded int
	finished  map[string]string
	runOK     *bool
}

func newRecordObserver() *recordObserver {
	return &recordObserver{
		pages:    map[string]int{},
		finished: map[string]string{},
	}
}

func (o *recordObserver) PageFetched(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[source]++
}

func (o *recordObserver) RowsForwarded(n int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.forwarded += n
}

func (o *recordObserver) QueueDepth(depth int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.maxDepth = max(o.maxDepth, depth)
}

func (o *recordObserver) WorkerFinished(source string, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished[source] = result
}

func (o *recordObserver) RunFinished(mode types.Mode, success bool, duration time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runOK = &success
}
