//go:build !integration

package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/register"
	"github.com/sells-group/tpscan/internal/store"
)

func init() {
	// Replace global logger with a no-op to avoid nil pointer panics in tests.
	zap.ReplaceGlobals(zap.NewNop())
}

// memStore is an in-memory store.Store for command tests.
type memStore struct {
	mu        sync.Mutex
	runs      map[string]*model.Run
	jobs      []*model.Job
	nextID    int
	createErr error
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{runs: map[string]*model.Run{}}
}

func (m *memStore) CreateRun(_ context.Context, filingID string, company model.CompanyContext) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	run := &model.Run{
		ID:       fmt.Sprintf("run-%d", m.nextID),
		FilingID: filingID,
		Company:  company,
		Status:   model.RunStatusQueued,
	}
	m.runs[run.ID] = run
	return run, nil
}

func (m *memStore) UpdateRunStatus(_ context.Context, runID string, status model.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if run, ok := m.runs[runID]; ok {
		run.Status = status
	}
	return nil
}

func (m *memStore) SaveOutcome(_ context.Context, runID string, outcome *model.RunOutcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if run, ok := m.runs[runID]; ok {
		run.Status = model.RunStatusSucceeded
		run.Outcome = outcome
	}
	return nil
}

func (m *memStore) GetRun(_ context.Context, runID string) (*model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return nil, errors.New("store: run not found")
	}
	return run, nil
}

func (m *memStore) ListRuns(_ context.Context, _ store.RunFilter) ([]model.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memStore) EnqueueJob(_ context.Context, storagePath, filingID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	job := &model.Job{
		ID:          fmt.Sprintf("job-%d", m.nextID),
		StoragePath: storagePath,
		FilingID:    filingID,
		Status:      model.RunStatusQueued,
	}
	m.jobs = append(m.jobs, job)
	return job, nil
}

func (m *memStore) DequeueJob(_ context.Context) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.Status == model.RunStatusQueued {
			j.Status = model.RunStatusProcessing
			return j, nil
		}
	}
	return nil, nil
}

func (m *memStore) MarkJob(_ context.Context, jobID string, status model.RunStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.ID == jobID {
			j.Status = status
			j.Error = errMsg
		}
	}
	return nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }

func (m *memStore) runsByStatus(status model.RunStatus) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.runs {
		if r.Status == status {
			n++
		}
	}
	return n
}

func makeEntries(n int) []register.Entry {
	entries := make([]register.Entry, n)
	for i := range entries {
		entries[i] = register.Entry{
			Path:    fmt.Sprintf("filings/company-%d.txt", i),
			Company: model.CompanyContext{Name: fmt.Sprintf("Company %d S.A.", i)},
		}
	}
	return entries
}

func okOutcome() *model.RunOutcome {
	return &model.RunOutcome{
		Validation: model.ValidationResult{
			IsValid: true,
			Quality: model.QualityMetrics{OverallConfidence: model.ConfidenceHigh},
		},
	}
}

func TestProcessBatch_EmptyRegister(t *testing.T) {
	err := processBatch(context.Background(), nil, 0, 2, nil, func(_ register.Entry) (*model.RunOutcome, error) {
		t.Fatal("scan should not be called for an empty register")
		return nil, nil
	})
	require.NoError(t, err)
}

func TestProcessBatch_AllSucceed(t *testing.T) {
	st := newMemStore()
	var count atomic.Int64

	err := processBatch(context.Background(), makeEntries(3), 0, 2, st, func(_ register.Entry) (*model.RunOutcome, error) {
		count.Add(1)
		return okOutcome(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count.Load())
	assert.Equal(t, 3, st.runsByStatus(model.RunStatusSucceeded))

	// Every run is traceable back to the register entry it came from.
	var filingIDs []string
	for _, r := range st.runs {
		filingIDs = append(filingIDs, r.FilingID)
	}
	assert.ElementsMatch(t, []string{"company-0.txt", "company-1.txt", "company-2.txt"}, filingIDs)
}

func TestProcessBatch_ScanFailureDoesNotAbort(t *testing.T) {
	st := newMemStore()

	err := processBatch(context.Background(), makeEntries(2), 0, 1, st, func(entry register.Entry) (*model.RunOutcome, error) {
		if entry.Path == "filings/company-0.txt" {
			return nil, errors.New("document unreadable")
		}
		return okOutcome(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.runsByStatus(model.RunStatusSucceeded))
	assert.Equal(t, 1, st.runsByStatus(model.RunStatusFailed))
}

func TestProcessBatch_LimitApplied(t *testing.T) {
	st := newMemStore()
	var count atomic.Int64

	err := processBatch(context.Background(), makeEntries(5), 2, 2, st, func(_ register.Entry) (*model.RunOutcome, error) {
		count.Add(1)
		return okOutcome(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), count.Load())
}

func TestProcessBatch_CreateRunErrorAborts(t *testing.T) {
	st := newMemStore()
	st.createErr = errors.New("database down")

	err := processBatch(context.Background(), makeEntries(1), 0, 1, st, func(_ register.Entry) (*model.RunOutcome, error) {
		return okOutcome(), nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create run")
}
