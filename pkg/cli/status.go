package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/cli/config"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdStatus() *cli.Command {
	var (
		sourcesCfg config.Sources
		sinkCfg    config.Sink
		all        bool
	)

	flags := append(sourcesCfg.Flags(), sinkCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "all",
		Usage:       "List every repository found in the sink instead of the configured ones",
		Destination: &all,
	})

	return &cli.Command{
		Name:  "status",
		Usage: "Show watermark and row count per repository from the sink",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var sources []model.SourceRef
			if !all {
				var err error
				if sources, err = sourcesCfg.Load(); err != nil {
					return err
				}
			}

			store, err := sinkCfg.Open(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Status never reaches the remote API
			uc := usecase.NewIngest(store, nil)
			statuses, err := uc.Status(ctx, sources)
			if err != nil {
				return goerr.Wrap(err, "failed to read status")
			}

			printStatus(c.Root().Writer, statuses)
			return nil
		},
	}
}
