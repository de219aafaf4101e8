package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	controller "github.com/m-mizutani/stargazer/pkg/controller/http"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
	promobs "github.com/m-mizutani/stargazer/pkg/infra/prometheus"
)

func TestHealthEndpoint(t *testing.T) {
	ctx := context.Background()
	startedAt := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	server, err := controller.NewServer(ctx,
		controller.WithAddr("localhost:0"),
		controller.WithRunStatus(&model.RunStatus{
			Mode:      types.ModeIncremental.String(),
			Sources:   3,
			StartedAt: startedAt,
		}),
	)
	gt.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, req)

	gt.Equal(t, w.Code, http.StatusOK)

	var status model.HealthStatus
	gt.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	gt.Equal(t, status.Status, "healthy")
	gt.Equal(t, status.Service, "stargazer")
	gt.Value(t, status.Version).NotEqual("")
	gt.Value(t, status.Run).NotNil()
	gt.Equal(t, status.Run.Sources, 3)
	gt.True(t, status.Run.StartedAt.Equal(startedAt))
}

func TestMetricsEndpoint(t *testing.T) {
	ctx := context.Background()
	obs := promobs.NewObserver()
	obs.RowsForwarded(5)

	t.Run("metrics served when configured", func(t *testing.T) {
		server, err := controller.NewServer(ctx, controller.WithMetrics(obs.Handler()))
		gt.NoError(t, err)

		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		gt.Equal(t, w.Code, http.StatusOK)

		body, err := io.ReadAll(w.Body)
		gt.NoError(t, err)
		gt.String(t, string(body)).Contains("stargazer_sink_rows_forwarded_total 5")
	})

	t.Run("unknown path returns json error", func(t *testing.T) {
		server, err := controller.NewServer(ctx)
		gt.NoError(t, err)

		w := httptest.NewRecorder()
		server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		gt.Equal(t, w.Code, http.StatusNotFound)

		var body map[string]string
		gt.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		gt.String(t, body["error"]).Contains("not found")
	})
}
