package model

// ICBreakdownItem is one line within a statutory note confirmed to
// concern an affiliated undertaking. Lines without a nearby
// intercompany keyword are excluded from the breakdown entirely, never
// included with a false flag.
type ICBreakdownItem struct {
	Description           string  `json:"description"`
	Amount                float64 `json:"amount"`
	CounterpartyName      string  `json:"counterparty_name,omitempty"`
	SourceText            string  `json:"source_text"`
	ConfirmedIntercompany bool    `json:"confirmed_intercompany"`
	MatchedKeyword        string  `json:"matched_keyword"`
}

// ICBreakdown aggregates a note's confirmed intercompany items.
type ICBreakdown struct {
	Items           []ICBreakdownItem `json:"items"`
	CalculatedTotal float64           `json:"calculated_total"`
	ExplicitTotal   *float64          `json:"explicit_total,omitempty"`
	TotalsReconcile bool              `json:"totals_reconcile"`
}

// NoteParsingResult is produced on demand for each note identifier the
// earlier layers actually requested.
type NoteParsingResult struct {
	NoteNumber   string       `json:"note_number"`
	Accessible   bool         `json:"accessible"`
	RawContent   string       `json:"raw_content,omitempty"`
	ICBreakdown  *ICBreakdown `json:"ic_breakdown,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
	PageEstimate int          `json:"page_estimate,omitempty"`
}
