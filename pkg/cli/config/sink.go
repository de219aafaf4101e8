package config

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/infra/clickhouse"
	"github.com/m-mizutani/stargazer/pkg/infra/duckdb"
	"github.com/m-mizutani/stargazer/pkg/infra/memory"
	"github.com/m-mizutani/stargazer/pkg/infra/postgres"
	"github.com/m-mizutani/stargazer/pkg/utils/batch"
	"github.com/urfave/cli/v3"
)

const (
	SinkDuckDB     = "duckdb"
	SinkPostgres   = "postgres"
	SinkClickHouse = "clickhouse"
	SinkMemory     = "memory"

	// DefaultSinkDSN is the DuckDB file used when no DSN is given
	DefaultSinkDSN = "data/github_stars.duckdb"
)

// Sink holds destination database configuration
type Sink struct {
	Driver    string
	DSN       string
	Table     string
	BatchSize int
}

// Flags returns CLI flags for sink configuration
func (c *Sink) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sink-driver",
			Usage:       "Sink database (duckdb, postgres, clickhouse, memory)",
			Value:       SinkDuckDB,
			Destination: &c.Driver,
			Sources:     cli.EnvVars("STARGAZER_SINK_DRIVER"),
		},
		&cli.StringFlag{
			Name:        "sink-dsn",
			Usage:       "Sink DSN: DuckDB file path, postgres:// or clickhouse:// URL",
			Value:       DefaultSinkDSN,
			Destination: &c.DSN,
			Sources:     cli.EnvVars("STARGAZER_SINK_DSN"),
		},
		&cli.StringFlag{
			Name:        "sink-table",
			Usage:       "Event table name",
			Value:       types.DefaultTableName,
			Destination: &c.Table,
			Sources:     cli.EnvVars("STARGAZER_SINK_TABLE"),
		},
		&cli.IntFlag{
			Name:        "sink-batch-size",
			Usage:       "Rows per write to the sink",
			Value:       batch.DefaultSize,
			Destination: &c.BatchSize,
			Sources:     cli.EnvVars("STARGAZER_SINK_BATCH_SIZE"),
		},
	}
}

// Open connects to the configured sink. The caller closes it.
func (c *Sink) Open(ctx context.Context) (interfaces.EventStore, error) {
	if err := types.ValidateTableName(c.Table); err != nil {
		return nil, err
	}

	var (
		store interfaces.EventStore
		err   error
	)
	switch strings.ToLower(c.Driver) {
	case SinkDuckDB:
		store, err = duckdb.New(ctx, c.DSN,
			duckdb.WithTable(c.Table),
			duckdb.WithBatchSize(c.BatchSize),
		)
	case SinkPostgres:
		store, err = postgres.New(ctx, c.DSN,
			postgres.WithTable(c.Table),
			postgres.WithBatchSize(c.BatchSize),
		)
	case SinkClickHouse:
		store, err = clickhouse.New(ctx, c.DSN,
			clickhouse.WithTable(c.Table),
			clickhouse.WithBatchSize(c.BatchSize),
		)
	case SinkMemory:
		store = memory.New()
	default:
		return nil, goerr.New("unknown sink driver",
			goerr.V("driver", c.Driver),
			goerr.T(types.ErrTagConfig),
		)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sink", goerr.V("driver", c.Driver))
	}

	return store, nil
}
