package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/m-mizutani/stargazer/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Ingest holds fetch core configuration
type Ingest struct {
	Mode      string
	Workers   int
	QueueSize int
	PageSize  int
	Rebuild   bool
}

// Flags returns CLI flags for ingestion
func (c *Ingest) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "mode",
			Aliases:     []string{"m"},
			Usage:       "Ingestion mode (backfill, incremental)",
			Value:       types.ModeIncremental.String(),
			Destination: &c.Mode,
			Sources:     cli.EnvVars("STARGAZER_MODE"),
		},
		&cli.IntFlag{
			Name:        "workers",
			Usage:       "Sources fetched concurrently (0: min(sources, 5))",
			Destination: &c.Workers,
			Sources:     cli.EnvVars("STARGAZER_WORKERS"),
		},
		&cli.IntFlag{
			Name:        "queue-size",
			Usage:       "Capacity of the row queue between fetchers and the sink",
			Value:       usecase.DefaultQueueSize,
			Destination: &c.QueueSize,
			Sources:     cli.EnvVars("STARGAZER_QUEUE_SIZE"),
		},
		&cli.IntFlag{
			Name:        "page-size",
			Usage:       "Events per page (1-100)",
			Value:       usecase.DefaultPageSize,
			Hidden:      true,
			Destination: &c.PageSize,
		},
		&cli.BoolFlag{
			Name:        "rebuild",
			Usage:       "Drop the event table before a backfill",
			Destination: &c.Rebuild,
		},
	}
}

// Validate checks values and returns the parsed mode
func (c *Ingest) Validate() (types.Mode, error) {
	mode, err := types.ParseMode(c.Mode)
	if err != nil {
		return "", err
	}
	if c.Workers < 0 {
		return "", goerr.New("workers must not be negative", goerr.V("workers", c.Workers), goerr.T(types.ErrTagConfig))
	}
	if c.QueueSize < 1 {
		return "", goerr.New("queue size must be positive", goerr.V("queue_size", c.QueueSize), goerr.T(types.ErrTagConfig))
	}
	if c.PageSize < 1 || c.PageSize > usecase.DefaultPageSize {
		return "", goerr.New("page size must be within 1-100", goerr.V("page_size", c.PageSize), goerr.T(types.ErrTagConfig))
	}
	if c.Rebuild && mode != types.ModeBackfill {
		return "", goerr.New("--rebuild requires backfill mode", goerr.T(types.ErrTagConfig))
	}
	return mode, nil
}

// Options converts the configuration into fetch core options
func (c *Ingest) Options() []usecase.Option {
	return []usecase.Option{
		usecase.WithWorkers(c.Workers),
		usecase.WithQueueSize(c.QueueSize),
		usecase.WithPageSize(c.PageSize),
	}
}
