package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
)

type rowKey struct {
	repo   string
	userID int64
}

// Store keeps events in process memory with the same merge semantics as the
// database sinks. Used for dry runs and tests.
type Store struct {
	mu     sync.Mutex
	exists bool
	rows   map[rowKey]*model.EventRow
	writes int
}

var _ interfaces.EventStore = (*Store)(nil)

// New creates an empty store without event table
func New() *Store {
	return &Store{
		rows: make(map[rowKey]*model.EventRow),
	}
}

func (s *Store) TableExists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exists, nil
}

func (s *Store) EnsureTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
	return nil
}

func (s *Store) DropTable(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = false
	s.rows = make(map[rowKey]*model.EventRow)
	return nil
}

func (s *Store) MaxStarredAt(ctx context.Context) ([]*model.GroupMax, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil, goerr.New("event table does not exist")
	}

	latest := make(map[string]*model.EventRow)
	for _, row := range s.rows {
		if cur, ok := latest[row.RepoFullName]; !ok || row.StarredAt.After(cur.StarredAt) {
			latest[row.RepoFullName] = row
		}
	}

	groups := make([]*model.GroupMax, 0, len(latest))
	for repo, row := range latest {
		groups = append(groups, &model.GroupMax{Group: repo, Value: row.StarredAt})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Group < groups[j].Group
	})
	return groups, nil
}

func (s *Store) CountBySource(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return nil, goerr.New("event table does not exist")
	}

	counts := make(map[string]int64)
	for _, row := range s.rows {
		counts[row.RepoFullName]++
	}
	return counts, nil
}

func (s *Store) NewWriter(ctx context.Context) (interfaces.EventWriter, error) {
	return &writer{store: s}, nil
}

func (s *Store) Close() error {
	return nil
}

// Rows returns a snapshot of persisted rows ordered by repository, then user id
func (s *Store) Rows() []*model.EventRow {
	s.mu.Lock()
	out := make([]*model.EventRow, 0, len(s.rows))
	for _, row := range s.rows {
		copied := *row
		out = append(out, &copied)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RepoFullName != out[j].RepoFullName {
			return out[i].RepoFullName < out[j].RepoFullName
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Writes returns the number of rows written since the store was created, merged or not
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) merge(row *model.EventRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.exists {
		return goerr.New("event table does not exist")
	}

	s.writes++
	key := rowKey{repo: row.RepoFullName, userID: row.UserID}
	if cur, ok := s.rows[key]; ok && cur.ExtractedAt.After(row.ExtractedAt) {
		return nil
	}
	copied := *row
	s.rows[key] = &copied
	return nil
}

type writer struct {
	store  *Store
	closed bool
}

func (w *writer) Write(ctx context.Context, row *model.EventRow) error {
	if w.closed {
		return goerr.New("writer already closed")
	}
	return w.store.merge(row)
}

func (w *writer) Close(ctx context.Context) error {
	w.closed = true
	return nil
}
