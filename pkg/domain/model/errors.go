package model

import "fmt"

// WorkerFailure is the failure of one source worker
type WorkerFailure struct {
	Source string
	Cause  error
}

func (e *WorkerFailure) Error() string {
	return fmt.Sprintf("worker failed for %s: %v", e.Source, e.Cause)
}

func (e *WorkerFailure) Unwrap() error {
	return e.Cause
}

// RunFailure terminates a run. It wraps the first worker failure observed by the coordinator.
type RunFailure struct {
	Failure *WorkerFailure
}

func (e *RunFailure) Error() string {
	return "ingestion run failed: " + e.Failure.Error()
}

func (e *RunFailure) Unwrap() error {
	return e.Failure
}
