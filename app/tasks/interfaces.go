package tasks

import "time"

// OrchestratorInterface drives the fetch/process/write cycle. Done is
// closed when the configured iteration budget is exhausted.
type OrchestratorInterface interface {
	Start()
	Stop()
	Done() <-chan struct{}
	GetStats() Stats
}

// Stats is a snapshot of the orchestrator state for the stats endpoint.
type Stats struct {
	Feeds      int
	Claims     int
	Iterations uint64
	LastPurge  time.Time
}
