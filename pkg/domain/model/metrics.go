package model

import "time"

// StopReason tells why a source worker stopped paginating
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopWatermark StopReason = "watermark"
)

// WorkerMetrics holds per-source counters. Written once by the owning worker.
type WorkerMetrics struct {
	Source     string
	Pages      int
	Yielded    int
	StopReason StopReason
}

// SourceReport is the per-source part of RunReport
type SourceReport struct {
	Source     string     `json:"source"`
	Pages      int        `json:"pages"`
	Yielded    int        `json:"yielded"`
	StopReason StopReason `json:"stop_reason,omitempty"`
	RowsAdded  int64      `json:"rows_added"`
}

// RunReport summarizes one ingestion run
type RunReport struct {
	RunID      string          `json:"run_id"`
	Mode       string          `json:"mode"`
	StartedAt  time.Time       `json:"started_at"`
	Duration   time.Duration   `json:"duration"`
	RowsBefore int64           `json:"rows_before"`
	RowsAfter  int64           `json:"rows_after"`
	RowsAdded  int64           `json:"rows_added"`
	Forwarded  int             `json:"forwarded"`
	Sources    []*SourceReport `json:"sources"`
}

// SourceStatus is the persisted state of one source
type SourceStatus struct {
	Source    string
	Watermark time.Time // zero when the source has no data
	Rows      int64
}
