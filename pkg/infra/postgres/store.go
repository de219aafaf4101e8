package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/utils/batch"
)

// Store is the PostgreSQL event sink
type Store struct {
	pool      *pgxpool.Pool
	table     string
	batchSize int
}

var _ interfaces.EventStore = (*Store)(nil)

// Option configures Store
type Option func(*Store)

// WithTable sets the event table name
func WithTable(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// WithBatchSize sets rows per flush of writers
func WithBatchSize(n int) Option {
	return func(s *Store) {
		s.batchSize = n
	}
}

// New connects to PostgreSQL and verifies the connection
func New(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		table:     types.DefaultTableName,
		batchSize: batch.DefaultSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := types.ValidateTableName(s.table); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse postgres dsn", goerr.T(types.ErrTagConfig))
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres",
			goerr.V("host", config.ConnConfig.Host),
			goerr.V("database", config.ConnConfig.Database),
		)
	}

	ctxlog.From(ctx).Debug("Connected to postgres",
		"host", config.ConnConfig.Host,
		"database", config.ConnConfig.Database,
		"table", s.table,
	)
	s.pool = pool
	return s, nil
}

func (s *Store) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = current_schema() AND table_name = lower($1)
	)`, s.table).Scan(&exists); err != nil {
		return false, goerr.Wrap(err, "failed to look up table", goerr.V("table", s.table))
	}
	return exists, nil
}

func (s *Store) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		repo_full_name TEXT NOT NULL,
		login TEXT NOT NULL,
		user_id BIGINT NOT NULL,
		starred_at TIMESTAMPTZ NOT NULL,
		extracted_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (repo_full_name, user_id)
	)`, s.table)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return goerr.Wrap(err, "failed to create table", goerr.V("table", s.table))
	}
	return nil
}

func (s *Store) DropTable(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
		return goerr.Wrap(err, "failed to drop table", goerr.V("table", s.table))
	}
	return nil
}

func (s *Store) MaxStarredAt(ctx context.Context) ([]*model.GroupMax, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT repo_full_name, max(starred_at) FROM %s GROUP BY repo_full_name ORDER BY repo_full_name`, s.table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query max starred_at", goerr.V("table", s.table))
	}

	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.GroupMax, error) {
		g := &model.GroupMax{}
		var ts *time.Time
		if err := row.Scan(&g.Group, &ts); err != nil {
			return nil, err
		}
		if ts != nil {
			g.Value = *ts
		}
		return g, nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan max starred_at")
	}
	return groups, nil
}

func (s *Store) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, fmt.Sprintf(
		`SELECT repo_full_name, count(*) FROM %s GROUP BY repo_full_name`, s.table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count rows", goerr.V("table", s.table))
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			repo string
			n    int64
		)
		if err := rows.Scan(&repo, &n); err != nil {
			return nil, goerr.Wrap(err, "failed to scan row count")
		}
		counts[repo] = n
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate row counts")
	}
	return counts, nil
}

func (s *Store) NewWriter(ctx context.Context) (interfaces.EventWriter, error) {
	return batch.NewWriter(s.batchSize, s.upsert), nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// upsert sends rows as one batch inside a transaction. A conflicting row is
// replaced only by a version extracted at the same time or later.
func (s *Store) upsert(ctx context.Context, rows []*model.EventRow) error {
	query := fmt.Sprintf(`INSERT INTO %s AS cur
		(repo_full_name, login, user_id, starred_at, extracted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (repo_full_name, user_id) DO UPDATE SET
			login = excluded.login,
			starred_at = excluded.starred_at,
			extracted_at = excluded.extracted_at
		WHERE cur.extracted_at <= excluded.extracted_at`, s.table)

	deduped := batch.Dedupe(rows)
	b := &pgx.Batch{}
	for _, row := range deduped {
		b.Queue(query, row.RepoFullName, row.Login, row.UserID, row.StarredAt.UTC(), row.ExtractedAt.UTC())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, b)
	for range deduped {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return goerr.Wrap(err, "failed to upsert row", goerr.V("rows", len(deduped)))
		}
	}
	if err := br.Close(); err != nil {
		return goerr.Wrap(err, "failed to close batch")
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit upsert", goerr.V("rows", len(deduped)))
	}
	return nil
}
