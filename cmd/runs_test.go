//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tpscan/internal/model"
)

func statsFixtureRuns() []model.Run {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	flagged := &model.RunOutcome{
		Validation: model.ValidationResult{
			IsValid: true,
			Flags:   []model.TPOpportunityFlag{{Type: model.FlagZeroSpread, Priority: model.PriorityHigh}},
			Quality: model.QualityMetrics{OverallConfidence: model.ConfidenceHigh},
		},
	}
	clean := &model.RunOutcome{
		Validation: model.ValidationResult{
			IsValid: true,
			Quality: model.QualityMetrics{OverallConfidence: model.ConfidenceMedium},
		},
	}
	return []model.Run{
		{
			ID: "run-1", Company: model.CompanyContext{Name: "Holdco Luxembourg S.A."},
			Status: model.RunStatusSucceeded, Outcome: flagged,
			CreatedAt: base, UpdatedAt: base.Add(4 * time.Second),
		},
		{
			ID: "run-2", Company: model.CompanyContext{Name: "Beta Finance S.à r.l."},
			Status: model.RunStatusSucceeded, Outcome: clean,
			CreatedAt: base, UpdatedAt: base.Add(2 * time.Second),
		},
		{
			ID: "run-3", Company: model.CompanyContext{Name: "Gamma S.A."},
			Status:    model.RunStatusFailed,
			CreatedAt: base, UpdatedAt: base.Add(time.Second),
		},
		{
			ID: "run-4", Company: model.CompanyContext{Name: "Delta S.A."},
			Status:    model.RunStatusQueued,
			CreatedAt: base, UpdatedAt: base,
		},
	}
}

func TestComputeRunStats(t *testing.T) {
	s := computeRunStats(statsFixtureRuns())

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 1, s.Flagged)
	// Average over succeeded runs only: (4s + 2s) / 2.
	assert.InDelta(t, 3.0, s.AvgDurSecs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	s := computeRunStats(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AvgDurSecs)
}

func TestFormatRunsList(t *testing.T) {
	var buf bytes.Buffer
	formatRunsList(&buf, statsFixtureRuns())

	out := buf.String()
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "CONFIDENCE")
	assert.Contains(t, out, "Holdco Luxembourg S.A.")
	assert.Contains(t, out, "high")
	// Runs without an outcome render a placeholder confidence.
	assert.Contains(t, out, "-")
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{Total: 4, Succeeded: 2, Failed: 1, Other: 1, Flagged: 1, AvgDurSecs: 3})

	out := buf.String()
	assert.Contains(t, out, "Total runs:")
	assert.Contains(t, out, "With flags:")
	assert.Contains(t, out, "3.0s")
}
