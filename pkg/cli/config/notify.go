package config

import (
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	slackinfra "github.com/m-mizutani/stargazer/pkg/infra/slack"
	"github.com/urfave/cli/v3"
)

// Slack holds run notification configuration
type Slack struct {
	WebhookURL string
}

// Flags returns CLI flags for Slack notification
func (c *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL to post run reports",
			Destination: &c.WebhookURL,
			Sources:     cli.EnvVars("STARGAZER_SLACK_WEBHOOK_URL"),
		},
	}
}

// Notifier returns nil when no webhook is configured
func (c *Slack) Notifier() interfaces.Notifier {
	if c.WebhookURL == "" {
		return nil
	}
	return slackinfra.NewNotifier(c.WebhookURL)
}

// Sentry holds error reporting configuration
type Sentry struct {
	DSN string
	Env string
}

// Flags returns CLI flags for Sentry
func (c *Sentry) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN to report failed runs",
			Destination: &c.DSN,
			Sources:     cli.EnvVars("STARGAZER_SENTRY_DSN"),
		},
		&cli.StringFlag{
			Name:        "sentry-env",
			Usage:       "Sentry environment",
			Destination: &c.Env,
			Sources:     cli.EnvVars("STARGAZER_SENTRY_ENV"),
		},
	}
}

// Enabled reports whether a DSN is configured
func (c *Sentry) Enabled() bool {
	return c.DSN != ""
}

// Configure initializes the Sentry client. No-op without DSN.
func (c *Sentry) Configure() error {
	if !c.Enabled() {
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         c.DSN,
		Environment: c.Env,
		Release:     "stargazer@" + types.Version,
	}); err != nil {
		return goerr.Wrap(err, "failed to initialize sentry", goerr.T(types.ErrTagConfig))
	}
	return nil
}

// Capture reports err and waits for delivery
func (c *Sentry) Capture(err error) {
	if !c.Enabled() || err == nil {
		return
	}
	sentry.CaptureException(err)
	sentry.Flush(2 * time.Second)
}
