package config

import "github.com/urfave/cli/v3"

// Server holds configuration of the optional metrics server
type Server struct {
	MetricsAddr string
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "metrics-addr",
			Usage:       "Serve /metrics and /health on this address during the run (disabled when empty)",
			Destination: &c.MetricsAddr,
			Sources:     cli.EnvVars("STARGAZER_METRICS_ADDR"),
		},
	}
}

// Enabled reports whether the metrics server should run
func (c *Server) Enabled() bool {
	return c.MetricsAddr != ""
}
