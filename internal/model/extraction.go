package model

// Confidence grades how directly an extracted value was observed in the
// document text.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// confidenceRank orders confidence levels for comparison.
var confidenceRank = map[Confidence]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// AtLeast reports whether c is at or above the given level.
func (c Confidence) AtLeast(min Confidence) bool {
	return confidenceRank[c] >= confidenceRank[min]
}

// ExtractedValue is the atomic unit of provenance. Every number the
// pipeline reports is carried inside one of these, together with the
// verbatim excerpt that justifies it. A nil Amount means "not found",
// which is a distinct state from "found, value zero" — amounts are
// never defaulted.
type ExtractedValue struct {
	Amount         *float64   `json:"amount,omitempty"`
	SourceText     string     `json:"source_text,omitempty"`
	PageEstimate   int        `json:"page_estimate,omitempty"`
	LineContext    string     `json:"line_context,omitempty"`
	NoteReference  string     `json:"note_reference,omitempty"`
	Confidence     Confidence `json:"confidence"`
	MatchedPattern string     `json:"matched_pattern,omitempty"`
	Warning        string     `json:"warning,omitempty"`
}

// Found reports whether an amount was extracted.
func (v ExtractedValue) Found() bool {
	return v.Amount != nil
}

// Value returns the extracted amount, or 0 when absent. Callers must
// check Found first; this accessor exists for arithmetic over values
// already known to be present.
func (v ExtractedValue) Value() float64 {
	if v.Amount == nil {
		return 0
	}
	return *v.Amount
}

// Sourced reports whether the value carries a verbatim source excerpt.
// An amount without a source violates the provenance invariant and is
// treated by the validator as a possible hallucination.
func (v ExtractedValue) Sourced() bool {
	return v.SourceText != ""
}

// NotFound builds an absent value with a diagnostic warning naming the
// pattern that failed to match.
func NotFound(pattern, warning string) ExtractedValue {
	return ExtractedValue{
		Confidence:     ConfidenceLow,
		MatchedPattern: pattern,
		Warning:        warning,
	}
}

// BalanceSheetExtraction aggregates the statutory balance-sheet line
// items relevant to intercompany financing. Created once per document
// by the structured extractor and immutable thereafter.
type BalanceSheetExtraction struct {
	SharesInAffiliates   ExtractedValue `json:"shares_in_affiliates"`
	ICLoansProvidedLong  ExtractedValue `json:"ic_loans_provided_long"`
	ICLoansProvidedShort ExtractedValue `json:"ic_loans_provided_short"`
	ICLoansReceivedLong  ExtractedValue `json:"ic_loans_received_long"`
	ICLoansReceivedShort ExtractedValue `json:"ic_loans_received_short"`
	TotalAssets          ExtractedValue `json:"total_assets"`
	TotalEquity          ExtractedValue `json:"total_equity"`
	ScaleFactor          float64        `json:"scale_factor"`
}

// Values returns the named balance-sheet values for iteration.
func (b BalanceSheetExtraction) Values() map[string]ExtractedValue {
	return map[string]ExtractedValue{
		"shares_in_affiliates":    b.SharesInAffiliates,
		"ic_loans_provided_long":  b.ICLoansProvidedLong,
		"ic_loans_provided_short": b.ICLoansProvidedShort,
		"ic_loans_received_long":  b.ICLoansReceivedLong,
		"ic_loans_received_short": b.ICLoansReceivedShort,
		"total_assets":            b.TotalAssets,
		"total_equity":            b.TotalEquity,
	}
}

// PLExtraction aggregates the profit-and-loss line items relevant to
// intercompany financing: each statutory parent line together with its
// "of which from affiliated undertakings" sub-item.
type PLExtraction struct {
	OtherOperatingIncome ExtractedValue `json:"other_operating_income"`

	ParticipationIncome   ExtractedValue `json:"participation_income"`
	ParticipationIncomeIC ExtractedValue `json:"participation_income_ic"`

	FixedAssetInterestIncome   ExtractedValue `json:"fixed_asset_interest_income"`
	FixedAssetInterestIncomeIC ExtractedValue `json:"fixed_asset_interest_income_ic"`

	OtherInterestIncome   ExtractedValue `json:"other_interest_income"`
	OtherInterestIncomeIC ExtractedValue `json:"other_interest_income_ic"`

	InterestExpense   ExtractedValue `json:"interest_expense"`
	InterestExpenseIC ExtractedValue `json:"interest_expense_ic"`

	Turnover  ExtractedValue `json:"turnover"`
	NetResult ExtractedValue `json:"net_result"`
}

// Values returns the named P&L values for iteration.
func (p PLExtraction) Values() map[string]ExtractedValue {
	return map[string]ExtractedValue{
		"other_operating_income":         p.OtherOperatingIncome,
		"participation_income":           p.ParticipationIncome,
		"participation_income_ic":        p.ParticipationIncomeIC,
		"fixed_asset_interest_income":    p.FixedAssetInterestIncome,
		"fixed_asset_interest_income_ic": p.FixedAssetInterestIncomeIC,
		"other_interest_income":          p.OtherInterestIncome,
		"other_interest_income_ic":       p.OtherInterestIncomeIC,
		"interest_expense":               p.InterestExpense,
		"interest_expense_ic":            p.InterestExpenseIC,
		"turnover":                       p.Turnover,
		"net_result":                     p.NetResult,
	}
}

// CompanyInfo holds identity fields extracted from the filing header.
type CompanyInfo struct {
	Name           string `json:"name,omitempty"`
	RegistryNumber string `json:"registry_number,omitempty"`
	FiscalYearEnd  string `json:"fiscal_year_end,omitempty"`
	Currency       string `json:"currency,omitempty"`
}
