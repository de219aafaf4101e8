package config_test

import (
	"bytes"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/stargazer/pkg/cli/config"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "Valid level: debug", level: "debug"},
		{name: "Valid level: DEBUG (case insensitive)", level: "DEBUG"},
		{name: "Valid level: info", level: "info"},
		{name: "Valid level: INFO", level: "INFO"},
		{name: "Valid level: warn", level: "warn"},
		{name: "Valid level: WARN", level: "WARN"},
		{name: "Valid level: error", level: "error"},
		{name: "Valid level: ERROR", level: "ERROR"},
		{name: "Invalid level: invalid", level: "invalid", wantErr: true},
		{name: "Invalid level: empty string", level: "", wantErr: true},
		{name: "Invalid level: random", level: "random", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &config.Logger{
				Level:  tt.level,
				Format: "text",
				Output: &bytes.Buffer{},
			}

			result, err := logger.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, types.ErrTagConfig))
				return
			}
			gt.NoError(t, err)
			gt.Value(t, result).NotNil()
		})
	}
}

func TestLogger_Configure_Format(t *testing.T) {
	for _, format := range []string{"console", "json", "text", "JSON"} {
		t.Run("Format: "+format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := &config.Logger{Level: "info", Format: format, Output: &buf}

			result, err := logger.Configure()
			gt.NoError(t, err)

			result.Info("test log message")
			gt.String(t, buf.String()).Contains("test log message")
		})
	}

	t.Run("Format: unknown", func(t *testing.T) {
		_, err := (&config.Logger{Level: "info", Format: "xml"}).Configure()
		gt.Error(t, err)
	})
}

func TestLogger_Configure_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := &config.Logger{Level: "debug", Format: "json", Output: &buf}
	result, err := logger.Configure()
	gt.NoError(t, err)

	result.Info("auth configured",
		"token", types.Secret("ghp_supersecretvalue"),
		"header", "Bearer github_pat_anothersecret",
		"source", "octo/repo",
	)

	out := buf.String()
	gt.String(t, out).NotContains("supersecretvalue")
	gt.String(t, out).NotContains("anothersecret")
	gt.String(t, out).Contains("octo/repo")
}

func TestLogger_Flags(t *testing.T) {
	logger := &config.Logger{}
	flags := logger.Flags()
	gt.A(t, flags).Length(2)

	flagNames := make(map[string]bool)
	for _, flag := range flags {
		flagNames[flag.Names()[0]] = true
	}
	gt.True(t, flagNames["log-level"])
	gt.True(t, flagNames["log-format"])
}
