package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/cli/config"
	controller "github.com/m-mizutani/stargazer/pkg/controller/http"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	promobs "github.com/m-mizutani/stargazer/pkg/infra/prometheus"
	"github.com/m-mizutani/stargazer/pkg/usecase"
	"github.com/m-mizutani/stargazer/pkg/utils/async"
	"github.com/urfave/cli/v3"
)

func cmdIngest() *cli.Command {
	var (
		ingestCfg  config.Ingest
		sourcesCfg config.Sources
		githubCfg  config.GitHub
		sinkCfg    config.Sink
		serverCfg  config.Server
		slackCfg   config.Slack
	)

	var flags []cli.Flag
	flags = append(flags, ingestCfg.Flags()...)
	flags = append(flags, sourcesCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, sinkCfg.Flags()...)
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "ingest",
		Aliases: []string{"i"},
		Usage:   "Fetch stargazers of configured repositories into the sink",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctxlog.From(ctx)

			// Configuration errors are raised before any worker starts
			mode, err := ingestCfg.Validate()
			if err != nil {
				return err
			}
			sources, err := sourcesCfg.Load()
			if err != nil {
				return err
			}
			client, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			logger.Info("Starting ingestion",
				slog.String("mode", mode.String()),
				slog.Int("sources", len(sources)),
				slog.String("github_auth", githubCfg.AuthMethod()),
				slog.String("sink", sinkCfg.Driver),
				slog.Any("dsn", types.Secret(sinkCfg.DSN)),
			)

			store, err := sinkCfg.Open(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Warn("Failed to close sink", slog.Any("error", err))
				}
			}()

			opts := ingestCfg.Options()
			if serverCfg.Enabled() {
				observer := promobs.NewObserver()
				opts = append(opts, usecase.WithObserver(observer))

				server, err := controller.NewServer(ctx,
					controller.WithAddr(serverCfg.MetricsAddr),
					controller.WithMetrics(observer.Handler()),
					controller.WithRunStatus(&model.RunStatus{
						Mode:      mode.String(),
						Sources:   len(sources),
						StartedAt: time.Now().UTC(),
					}),
				)
				if err != nil {
					return goerr.Wrap(err, "failed to create metrics server")
				}

				serving := async.Dispatch(ctx, "metrics-server", func(ctx context.Context) error {
					ctxlog.From(ctx).Info("Metrics server starting", slog.String("addr", serverCfg.MetricsAddr))
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return goerr.Wrap(err, "metrics server failed", goerr.V("addr", serverCfg.MetricsAddr))
					}
					return nil
				})
				defer func() {
					if err := server.ShutdownWithTimeout(ctx, 5*time.Second); err != nil {
						logger.Warn("Failed to stop metrics server", slog.Any("error", err))
					}
					waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
					defer cancel()
					_ = serving.Wait(waitCtx)
				}()
			}

			uc := usecase.NewIngest(store, client, opts...)
			report, runErr := uc.Run(ctx, &interfaces.IngestInput{
				Mode:    mode,
				Sources: sources,
				Rebuild: ingestCfg.Rebuild,
			})

			if report != nil {
				printReport(c.Root().Writer, report, runErr)
				notify(ctx, slackCfg.Notifier(), report, runErr)
			}

			return runErr
		},
	}
}

func notify(ctx context.Context, notifier interfaces.Notifier, report *model.RunReport, runErr error) {
	if notifier == nil {
		return
	}
	if err := notifier.NotifyRun(context.WithoutCancel(ctx), report, runErr); err != nil {
		ctxlog.From(ctx).Warn("Failed to notify run report", slog.Any("error", err))
	}
}
