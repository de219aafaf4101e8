package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/stargazer/pkg/domain/model"
	"github.com/m-mizutani/stargazer/pkg/domain/types"
)

// healthHandler reports liveness and the run this process executes
func healthHandler(run *model.RunStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &model.HealthStatus{
			Status:  "healthy",
			Service: "stargazer",
			Version: types.Version,
			Run:     run,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}
