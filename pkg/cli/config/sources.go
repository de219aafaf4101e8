package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

// DefaultConfigFile is read when present and --config is not given
const DefaultConfigFile = "config/config.toml"

// Sources holds the repositories to ingest
type Sources struct {
	ConfigFile string
	Repos      []string
}

// sourceFile is the layout of the TOML config file
type sourceFile struct {
	Repos []string `toml:"repos"`
}

// Flags returns CLI flags for source configuration
func (c *Sources) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "TOML file listing repositories as repos = [\"owner/name\"]",
			Value:       DefaultConfigFile,
			Destination: &c.ConfigFile,
			Sources:     cli.EnvVars("STARGAZER_CONFIG"),
		},
		&cli.StringSliceFlag{
			Name:        "repo",
			Aliases:     []string{"r"},
			Usage:       "Repository to ingest as owner/name (repeatable)",
			Destination: &c.Repos,
			Sources:     cli.EnvVars("STARGAZER_REPOS"),
		},
	}
}

// Load returns the configured sources: repositories of the config file followed by
// --repo values, without duplicates. A missing config file is an error only when
// no --repo is given.
func (c *Sources) Load() ([]model.SourceRef, error) {
	var list []string

	if c.ConfigFile != "" {
		repos, err := readSourceFile(c.ConfigFile)
		switch {
		case err == nil:
			list = append(list, repos...)
		case errors.Is(err, fs.ErrNotExist) && len(c.Repos) > 0:
			// --repo alone is enough
		default:
			return nil, goerr.Wrap(err, "failed to load source list",
				goerr.V("path", c.ConfigFile),
				goerr.T(types.ErrTagConfig),
			)
		}
	}

	list = append(list, c.Repos...)
	return model.ParseSourceRefs(list)
}

func readSourceFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f sourceFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, goerr.Wrap(err, "invalid TOML")
	}
	return f.Repos, nil
}
