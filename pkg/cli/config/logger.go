package config

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Logger holds logger configuration
type Logger struct {
	Level  string
	Format string
	Output io.Writer
}

// Flags returns CLI flags for logger configuration
func (c *Logger) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &c.Level,
			Sources:     cli.EnvVars("STARGAZER_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format (console, json, text)",
			Value:       "console",
			Destination: &c.Format,
			Sources:     cli.EnvVars("STARGAZER_LOG_FORMAT"),
		},
	}
}

// Configure configures and returns a logger. Secrets are redacted from every record.
func (c *Logger) Configure() (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, goerr.New("invalid log level",
			goerr.V("level", c.Level),
			goerr.T(types.ErrTagConfig),
		)
	}

	w := c.Output
	if w == nil {
		w = os.Stderr
	}

	filter := masq.New(
		masq.WithType[types.Secret](),
		masq.WithFieldName("Token"),
		masq.WithFieldName("PrivateKey"),
		masq.WithFieldName("DSN"),
		masq.WithFieldName("WebhookURL"),
		masq.WithContain("ghp_"),
		masq.WithContain("github_pat_"),
	)

	var handler slog.Handler
	switch strings.ToLower(c.Format) {
	case "", "console":
		handler = clog.New(
			clog.WithWriter(w),
			clog.WithLevel(level),
			clog.WithReplaceAttr(filter),
		)
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	case "text":
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:       level,
			ReplaceAttr: filter,
		})
	default:
		return nil, goerr.New("invalid log format",
			goerr.V("format", c.Format),
			goerr.T(types.ErrTagConfig),
		)
	}

	return slog.New(handler), nil
}
