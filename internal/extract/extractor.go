// Package extract implements the structured line-item extractor: the
// first pipeline layer, which locates bilingual statutory line items in
// linearised filing text using only the pattern library. It performs no
// inference and never defaults a missing amount to zero.
package extract

import (
	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
	"github.com/sells-group/tpscan/internal/textutil"
)

// Extractor scans document text against the pattern library. Safe for
// concurrent use; the library is read-only.
type Extractor struct {
	lib *patterns.Library
}

// New creates an Extractor over the given library.
func New(lib *patterns.Library) *Extractor {
	return &Extractor{lib: lib}
}

// ExtractBalanceSheet extracts the intercompany-relevant balance-sheet
// line items.
func (e *Extractor) ExtractBalanceSheet(text string) model.BalanceSheetExtraction {
	lines := textutil.SplitLines(text)
	scale := patterns.DetectScale(lines)

	out := model.BalanceSheetExtraction{ScaleFactor: scale}
	for _, item := range e.lib.BalanceSheet {
		val, _ := e.findLineItem(lines, scale, item)
		switch item.Key {
		case "shares_in_affiliates":
			out.SharesInAffiliates = val
		case "ic_loans_provided_long":
			out.ICLoansProvidedLong = val
		case "ic_loans_provided_short":
			out.ICLoansProvidedShort = val
		case "ic_loans_received_long":
			out.ICLoansReceivedLong = val
		case "ic_loans_received_short":
			out.ICLoansReceivedShort = val
		case "total_assets":
			out.TotalAssets = val
		case "total_equity":
			out.TotalEquity = val
		}
	}
	return out
}

// ExtractPL extracts the intercompany-relevant profit-and-loss line
// items, including the affiliate sub-item beneath each parent line that
// carries one.
func (e *Extractor) ExtractPL(text string) model.PLExtraction {
	lines := textutil.SplitLines(text)
	scale := patterns.DetectScale(lines)

	var out model.PLExtraction
	for _, item := range e.lib.ProfitLoss {
		val, idx := e.findLineItem(lines, scale, item)

		var sub model.ExtractedValue
		if item.HasICSubItem {
			sub = e.findICSubItem(lines, scale, item.Key, idx)
		}

		switch item.Key {
		case "other_operating_income":
			out.OtherOperatingIncome = val
		case "participation_income":
			out.ParticipationIncome = val
			out.ParticipationIncomeIC = sub
		case "fixed_asset_interest_income":
			out.FixedAssetInterestIncome = val
			out.FixedAssetInterestIncomeIC = sub
		case "other_interest_income":
			out.OtherInterestIncome = val
			out.OtherInterestIncomeIC = sub
		case "interest_expense":
			out.InterestExpense = val
			out.InterestExpenseIC = sub
		case "turnover":
			out.Turnover = val
		case "net_result":
			out.NetResult = val
		}
	}
	return out
}

// NoteReferences collects every explicit note reference in the
// document, normalised, de-duplicated, in order of first appearance.
func (e *Extractor) NoteReferences(text string) []string {
	lines := textutil.SplitLines(text)
	seen := make(map[string]bool)
	var refs []string
	for _, line := range lines {
		for _, r := range patterns.NoteReferences(line) {
			norm := patterns.NormalizeNoteRef(r)
			if !seen[norm] {
				seen[norm] = true
				refs = append(refs, norm)
			}
		}
	}
	return refs
}
