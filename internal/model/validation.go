package model

// Severity grades validation findings.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// ValidationError is a data-integrity finding: a violated accounting
// identity or a broken provenance trail.
type ValidationError struct {
	Severity              Severity `json:"severity"`
	Field                 string   `json:"field"`
	Issue                 string   `json:"issue"`
	Detail                string   `json:"detail"`
	PossibleHallucination bool     `json:"possible_hallucination"`
}

// ValidationWarning is an advisory finding needing human judgement.
type ValidationWarning struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Issue    string   `json:"issue"`
	Detail   string   `json:"detail"`
}

// FlagType is the closed set of transfer-pricing opportunity patterns.
type FlagType string

const (
	FlagZeroSpread            FlagType = "zero_spread"
	FlagRateBelowMarket       FlagType = "rate_below_market"
	FlagRateAboveMarket       FlagType = "rate_above_market"
	FlagUndocumentedICService FlagType = "undocumented_ic_service"
	FlagLoanWithoutInterest   FlagType = "loan_without_interest"
	FlagThinCapitalisation    FlagType = "thin_capitalisation"
)

// FlagPriority orders opportunity flags for outreach triage.
type FlagPriority string

const (
	PriorityHigh   FlagPriority = "high"
	PriorityMedium FlagPriority = "medium"
	PriorityLow    FlagPriority = "low"
)

// TPOpportunityFlag is a commercial finding, not an error: a pattern in
// the filing that suggests a transfer-pricing exposure worth pursuing.
type TPOpportunityFlag struct {
	Type            FlagType     `json:"type"`
	Priority        FlagPriority `json:"priority"`
	Description     string       `json:"description"`
	EstimatedImpact string       `json:"estimated_impact,omitempty"`
	OECDReference   string       `json:"oecd_reference,omitempty"`
}

// CrossValidationResult holds the derived figures the validator
// computes from the extracted facts.
type CrossValidationResult struct {
	ICLoansProvided      *float64 `json:"ic_loans_provided,omitempty"`
	ICLoansReceived      *float64 `json:"ic_loans_received,omitempty"`
	ICInterestIncome     *float64 `json:"ic_interest_income,omitempty"`
	ICInterestExpense    *float64 `json:"ic_interest_expense,omitempty"`
	ImpliedLendingRate   *float64 `json:"implied_lending_rate,omitempty"`
	ImpliedBorrowingRate *float64 `json:"implied_borrowing_rate,omitempty"`
	SpreadBps            *float64 `json:"spread_bps,omitempty"`
	ICLoansToAssets      *float64 `json:"ic_loans_to_assets,omitempty"`
	ICDebtToEquity       *float64 `json:"ic_debt_to_equity,omitempty"`
}

// QualityMetrics summarises how much of the extraction is backed by
// verbatim sources.
type QualityMetrics struct {
	SourcedFraction   float64    `json:"sourced_fraction"`
	NotesRequested    int        `json:"notes_requested"`
	NotesAccessible   int        `json:"notes_accessible"`
	NoteCoverage      float64    `json:"note_coverage"`
	OverallConfidence Confidence `json:"overall_confidence"`
}

// ValidationResult is the terminal artifact of the pipeline. It is
// never mutated after construction.
type ValidationResult struct {
	IsValid  bool                  `json:"is_valid"`
	Errors   []ValidationError     `json:"errors,omitempty"`
	Warnings []ValidationWarning   `json:"warnings,omitempty"`
	Flags    []TPOpportunityFlag   `json:"flags,omitempty"`
	Cross    CrossValidationResult `json:"cross_validation"`
	Quality  QualityMetrics        `json:"quality"`
}

// CriticalCount returns the number of critical errors.
func (r ValidationResult) CriticalCount() int {
	n := 0
	for _, e := range r.Errors {
		if e.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
