package model

import "time"

// CompanyContext is the minimal company record supplied by the caller
// alongside the document text. Total assets and equity may come from a
// prior extraction pass; zero means unknown.
type CompanyContext struct {
	Name           string  `json:"name,omitempty"`
	RegistryNumber string  `json:"registry_number,omitempty"`
	TotalAssets    float64 `json:"total_assets,omitempty"`
	TotalEquity    float64 `json:"total_equity,omitempty"`
	Currency       string  `json:"currency,omitempty"`
}

// Filing is one document submitted to the pipeline: linearised text
// plus company context.
type Filing struct {
	ID      string         `json:"id,omitempty"`
	Text    string         `json:"-"`
	Company CompanyContext `json:"company"`
}

// RunStatus tracks a pipeline run through the store.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusProcessing RunStatus = "processing"
	RunStatusSucceeded  RunStatus = "succeeded"
	RunStatusFailed     RunStatus = "failed"
)

// Run is a persisted record of one pipeline invocation.
type Run struct {
	ID        string         `json:"id"`
	FilingID  string         `json:"filing_id,omitempty"`
	Company   CompanyContext `json:"company"`
	Status    RunStatus      `json:"status"`
	Outcome   *RunOutcome    `json:"outcome,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Job is a queued extraction request, mirroring the worker queue the
// pipeline is fed from.
type Job struct {
	ID          string    `json:"id"`
	StoragePath string    `json:"storage_path"`
	FilingID    string    `json:"filing_id"`
	Status      RunStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RunOutcome bundles every layer's output for one document.
type RunOutcome struct {
	Company      CompanyInfo            `json:"company_info"`
	BalanceSheet BalanceSheetExtraction `json:"balance_sheet"`
	PL           PLExtraction           `json:"profit_and_loss"`
	Notes        []NoteParsingResult    `json:"notes,omitempty"`
	Validation   ValidationResult       `json:"validation"`
}
