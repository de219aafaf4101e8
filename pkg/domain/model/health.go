package model

import "time"

// HealthStatus represents the health check status
type HealthStatus struct {
	Status  string     `json:"status"`
	Service string     `json:"service"`
	Version string     `json:"version"`
	Run     *RunStatus `json:"run,omitempty"`
}

// RunStatus describes the ingestion run served by the process
type RunStatus struct {
	Mode      string    `json:"mode"`
	Sources   int       `json:"sources"`
	StartedAt time.Time `json:"started_at"`
}
