package config

import (
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/interfaces"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	githubinfra "github.com/m-mizutani/stargazer/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub API configuration. Either a token or App credentials are required.
type GitHub struct {
	Token          string
	AppID          int64
	InstallationID int64
	PrivateKey     string
	PrivateKeyFile string
	GraphQLURL     string
	Timeout        time.Duration
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-token",
			Usage:       "GitHub token used as bearer credential",
			Destination: &c.Token,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_TOKEN", "GITHUB_TOKEN"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Destination: &c.AppID,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-app-installation-id",
			Usage:       "GitHub App installation ID",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_APP_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_APP_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-app-private-key-file",
			Usage:       "Path to GitHub App private key (PEM)",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_APP_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "github-graphql-url",
			Usage:       "GitHub GraphQL endpoint",
			Value:       githubinfra.DefaultGraphQLURL,
			Destination: &c.GraphQLURL,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_GRAPHQL_URL"),
		},
		&cli.DurationFlag{
			Name:        "github-timeout",
			Usage:       "Timeout of one page request",
			Value:       githubinfra.DefaultTimeout,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("STARGAZER_GITHUB_TIMEOUT"),
		},
	}
}

// AuthMethod returns "token", "app" or "" when no credential is configured
func (c *GitHub) AuthMethod() string {
	switch {
	case c.Token != "":
		return "token"
	case c.AppID != 0 && c.InstallationID != 0 && (c.PrivateKey != "" || c.PrivateKeyFile != ""):
		return "app"
	default:
		return ""
	}
}

// NewClient creates the stargazer client. A missing credential is a configuration error.
func (c *GitHub) NewClient() (interfaces.StargazerClient, error) {
	opts := []githubinfra.Option{
		githubinfra.WithGraphQLURL(c.GraphQLURL),
		githubinfra.WithTimeout(c.Timeout),
	}

	switch c.AuthMethod() {
	case "token":
		client, err := githubinfra.NewClient(c.Token, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil

	case "app":
		key := []byte(c.PrivateKey)
		if c.PrivateKeyFile != "" {
			data, err := os.ReadFile(c.PrivateKeyFile)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read GitHub App private key",
					goerr.V("path", c.PrivateKeyFile),
					goerr.T(types.ErrTagConfig),
				)
			}
			key = data
		}
		client, err := githubinfra.NewAppClient(c.AppID, c.InstallationID, key, opts...)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, goerr.New("GitHub credential is required: set GITHUB_TOKEN or GitHub App credentials",
			goerr.T(types.ErrTagConfig),
		)
	}
}
