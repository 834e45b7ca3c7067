// Package store persists pipeline runs and feeds the extraction job
// queue. It is a downstream collaborator of the core: the pipeline
// itself performs no I/O.
package store

import (
	"context"

	"github.com/sells-group/tpscan/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Runs. filingID links the run back to the filing (or queue job)
	// it was produced from; empty when the caller has none.
	CreateRun(ctx context.Context, filingID string, company model.CompanyContext) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	SaveOutcome(ctx context.Context, runID string, outcome *model.RunOutcome) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Job queue
	EnqueueJob(ctx context.Context, storagePath, filingID string) (*model.Job, error)
	DequeueJob(ctx context.Context) (*model.Job, error)
	MarkJob(ctx context.Context, jobID string, status model.RunStatus, errMsg string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
