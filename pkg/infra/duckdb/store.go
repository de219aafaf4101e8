package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/utils/batch"
)

// Store is the DuckDB event sink
type Store struct {
	db        *sql.DB
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

// New opens a DuckDB database file. An empty dsn opens an in-memory database.
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

	if path, _, _ := strings.Cut(dsn, "?"); path != "" && path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("dir", dir))
			}
		}
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open duckdb", goerr.V("dsn", dsn))
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerr.Wrap(err, "failed to ping duckdb", goerr.V("dsn", dsn))
	}

	ctxlog.From(ctx).Debug("Opened duckdb", "dsn", dsn, "table", s.table)
	s.db = db
	return s, nil
}

func (s *Store) TableExists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM information_schema.tables WHERE table_schema = 'main' AND table_name = ?`,
		s.table,
	).Scan(&n)
	if err != nil {
		return false, goerr.Wrap(err, "failed to look up table", goerr.V("table", s.table))
	}
	return n > 0, nil
}

func (s *Store) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		repo_full_name VARCHAR NOT NULL,
		login VARCHAR NOT NULL,
		user_id BIGINT NOT NULL,
		starred_at TIMESTAMP NOT NULL,
		extracted_at TIMESTAMP NOT NULL,
		PRIMARY KEY (repo_full_name, user_id)
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return goerr.Wrap(err, "failed to create table", goerr.V("table", s.table))
	}
	return nil
}

func (s *Store) DropTable(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table)); err != nil {
		return goerr.Wrap(err, "failed to drop table", goerr.V("table", s.table))
	}
	return nil
}

func (s *Store) MaxStarredAt(ctx context.Context) ([]*model.GroupMax, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT repo_full_name, max(starred_at) FROM %s GROUP BY repo_full_name ORDER BY repo_full_name`, s.table))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query max starred_at", goerr.V("table", s.table))
	}
	defer rows.Close()

	var groups []*model.GroupMax
	for rows.Next() {
		g := &model.GroupMax{}
		if err := rows.Scan(&g.Group, &g.Value); err != nil {
			return nil, goerr.Wrap(err, "failed to scan max starred_at")
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate max starred_at")
	}
	return groups, nil
}

func (s *Store) CountBySource(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
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
	return s.db.Close()
}

// upsert merges rows by (repo_full_name, user_id) in one transaction, keeping the
// most recently extracted version
func (s *Store) upsert(ctx context.Context, rows []*model.EventRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s
		(repo_full_name, login, user_id, starred_at, extracted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (repo_full_name, user_id) DO UPDATE SET
			login = excluded.login,
			starred_at = excluded.starred_at,
			extracted_at = excluded.extracted_at
		WHERE extracted_at <= excluded.extracted_at`, s.table))
	if err != nil {
		return goerr.Wrap(err, "failed to prepare upsert")
	}
	defer stmt.Close()

	for _, row := range batch.Dedupe(rows) {
		if _, err := stmt.ExecContext(ctx,
			row.RepoFullName,
			row.Login,
			row.UserID,
			row.StarredAt.UTC(),
			row.ExtractedAt.UTC(),
		); err != nil {
			return goerr.Wrap(err, "failed to upsert row",
				goerr.V("repo", row.RepoFullName),
				goerr.V("user_id", row.UserID),
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit upsert", goerr.V("rows", len(rows)))
	}
	return nil
}
