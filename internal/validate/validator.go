// Package validate implements the cross-validator and transfer-pricing
// opportunity flagger: the third pipeline layer. It is a pure function
// of the earlier layers' outputs plus minimal company context; every
// check runs independently with no short-circuiting.
package validate

import (
	"fmt"
	"math"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
)

// Validator runs the cross-identity checks against the library's
// numeric thresholds.
type Validator struct {
	lib *patterns.Library
}

// New creates a Validator over the given library.
func New(lib *patterns.Library) *Validator {
	return &Validator{lib: lib}
}

// Validate runs all checks and assembles the terminal result. The
// result is fully populated for every input, including degenerate ones,
// and is never mutated afterwards.
func (v *Validator) Validate(bs model.BalanceSheetExtraction, pl model.PLExtraction, noteResults []model.NoteParsingResult, company model.CompanyContext) model.ValidationResult {
	var result model.ValidationResult

	v.checkSourceInvariant(&result, bs, pl)

	result.Cross = crossValidate(bs, pl)
	v.checkLoanInterest(&result, pl, company)
	v.checkRatePlausibility(&result, company)
	v.checkSpread(&result)
	v.checkReasonableness(&result, bs, company)
	v.checkICServices(&result, pl, noteResults, company)
	v.checkThinCap(&result, bs, company)
	v.checkNoteCoverage(&result, noteResults)

	result.Quality = v.qualityMetrics(&result, bs, pl, noteResults)
	result.IsValid = result.CriticalCount() == 0
	return result
}

// checkSourceInvariant enforces the anti-hallucination invariant: an
// amount with no verbatim source excerpt is a critical defect. This is
// the single most important check in the system.
func (v *Validator) checkSourceInvariant(result *model.ValidationResult, bs model.BalanceSheetExtraction, pl model.PLExtraction) {
	check := func(field string, val model.ExtractedValue) {
		if val.Found() && !val.Sourced() {
			result.Errors = append(result.Errors, model.ValidationError{
				Severity:              model.SeverityCritical,
				Field:                 field,
				Issue:                 "amount_without_source",
				Detail:                fmt.Sprintf("%s carries amount %.2f with no source excerpt", field, val.Value()),
				PossibleHallucination: true,
			})
		}
	}
	for field, val := range bs.Values() {
		check(field, val)
	}
	for field, val := range pl.Values() {
		check(field, val)
	}
}

// checkLoanInterest cross-checks loan principals against derived
// interest. A loan with no matching interest is a commercial finding,
// not a data defect; interest with no matching principal is advisory,
// and only when the interest figure itself is sourced.
func (v *Validator) checkLoanInterest(result *model.ValidationResult, pl model.PLExtraction, company model.CompanyContext) {
	cross := &result.Cross

	if p := cross.ICLoansProvided; p != nil && *p > 0 {
		income := cross.ICInterestIncome
		if income == nil || *income == 0 {
			result.Flags = append(result.Flags, model.TPOpportunityFlag{
				Type:     model.FlagLoanWithoutInterest,
				Priority: model.PriorityHigh,
				Description: fmt.Sprintf("intercompany loans provided of %s show no matching interest income; interest-free intercompany lending",
					formatAmount(*p, company.Currency)),
				EstimatedImpact: fmt.Sprintf("arm's-length interest of ~%s p.a. forgone",
					formatAmount(*p*v.lib.Thresholds.ArmsLengthRate, company.Currency)),
				OECDReference: "OECD TPG Chapter X, B.1 (intra-group loans)",
			})
		}
	}
	if r := cross.ICLoansReceived; r != nil && *r > 0 {
		expense := cross.ICInterestExpense
		if expense == nil || *expense == 0 {
			result.Flags = append(result.Flags, model.TPOpportunityFlag{
				Type:     model.FlagLoanWithoutInterest,
				Priority: model.PriorityHigh,
				Description: fmt.Sprintf("intercompany loans received of %s show no matching interest expense; interest-free intercompany borrowing",
					formatAmount(*r, company.Currency)),
				OECDReference: "OECD TPG Chapter X, B.1 (intra-group loans)",
			})
		}
	}

	warnOrphanInterest(result, "ic_interest_income", cross.ICInterestIncome, cross.ICLoansProvided,
		anySourced(pl.FixedAssetInterestIncomeIC, pl.OtherInterestIncomeIC))
	warnOrphanInterest(result, "ic_interest_expense", cross.ICInterestExpense, cross.ICLoansReceived,
		anySourced(pl.InterestExpenseIC))
}

// warnOrphanInterest raises an advisory when sourced interest has no
// matching balance-sheet principal. Unsourced interest is skipped: the
// warning must not compound one suspect figure with another.
func warnOrphanInterest(result *model.ValidationResult, field string, interest *float64, principal *float64, sourced bool) {
	if interest == nil || *interest == 0 {
		return
	}
	if principal != nil && *principal > 0 {
		return
	}
	if !sourced {
		return
	}
	result.Warnings = append(result.Warnings, model.ValidationWarning{
		Severity: model.SeverityMedium,
		Field:    field,
		Issue:    "interest_without_principal",
		Detail:   fmt.Sprintf("%s of %.0f has no matching intercompany loan principal on the balance sheet", field, *interest),
	})
}

// checkRatePlausibility compares the implied rates against the
// library's plausible range and market sub-range. Below-market lending
// escalates to a flag with an estimated adjustment; implausibly high
// rates are data-quality warnings, not findings.
func (v *Validator) checkRatePlausibility(result *model.ValidationResult, company model.CompanyContext) {
	t := v.lib.Thresholds
	cross := &result.Cross

	if lr := cross.ImpliedLendingRate; lr != nil {
		switch {
		case *lr > t.RateMax:
			result.Warnings = append(result.Warnings, model.ValidationWarning{
				Severity: model.SeverityHigh,
				Field:    "implied_lending_rate",
				Issue:    "rate_implausibly_high",
				Detail:   fmt.Sprintf("implied lending rate %.2f%% exceeds the plausible ceiling of %.1f%%; extraction quality suspect", *lr*100, t.RateMax*100),
			})
		case *lr < t.MarketRateMin && cross.ICLoansProvided != nil:
			adj := (t.ArmsLengthRate - *lr) * *cross.ICLoansProvided
			result.Flags = append(result.Flags, model.TPOpportunityFlag{
				Type:     model.FlagRateBelowMarket,
				Priority: priorityForRate(*lr, t),
				Description: fmt.Sprintf("implied intercompany lending rate of %.2f%% is below the market range (%.1f%%-%.1f%%)",
					*lr*100, t.MarketRateMin*100, t.MarketRateMax*100),
				EstimatedImpact: fmt.Sprintf("potential upward adjustment ~%s p.a. at a %.1f%% arm's-length rate",
					formatAmount(adj, company.Currency), t.ArmsLengthRate*100),
				OECDReference: "OECD TPG Chapter X, C.1 (arm's-length interest rates)",
			})
		}
	}

	if br := cross.ImpliedBorrowingRate; br != nil {
		switch {
		case *br > t.RateMax:
			result.Warnings = append(result.Warnings, model.ValidationWarning{
				Severity: model.SeverityHigh,
				Field:    "implied_borrowing_rate",
				Issue:    "rate_implausibly_high",
				Detail:   fmt.Sprintf("implied borrowing rate %.2f%% exceeds the plausible ceiling of %.1f%%; extraction quality suspect", *br*100, t.RateMax*100),
			})
		case *br > t.MarketRateMax && cross.ICLoansReceived != nil:
			excess := (*br - t.MarketRateMax) * *cross.ICLoansReceived
			result.Flags = append(result.Flags, model.TPOpportunityFlag{
				Type:     model.FlagRateAboveMarket,
				Priority: model.PriorityMedium,
				Description: fmt.Sprintf("implied intercompany borrowing rate of %.2f%% is above the market range (%.1f%%-%.1f%%)",
					*br*100, t.MarketRateMin*100, t.MarketRateMax*100),
				EstimatedImpact: fmt.Sprintf("excess interest deduction ~%s p.a. above the market ceiling",
					formatAmount(excess, company.Currency)),
				OECDReference: "OECD TPG Chapter X, C.1 (arm's-length interest rates)",
			})
		}
	}
}

// priorityForRate grades a below-market finding: near-zero rates are
// high priority.
func priorityForRate(rate float64, t patterns.Thresholds) model.FlagPriority {
	if rate < t.RateMin {
		return model.PriorityHigh
	}
	return model.PriorityMedium
}

// checkSpread applies the treasury spread materiality bands.
func (v *Validator) checkSpread(result *model.ValidationResult) {
	t := v.lib.Thresholds
	spread := result.Cross.SpreadBps
	if spread == nil {
		return
	}
	abs := math.Abs(*spread)
	switch {
	case abs < t.SpreadNearZeroBps:
		result.Flags = append(result.Flags, model.TPOpportunityFlag{
			Type:     model.FlagZeroSpread,
			Priority: model.PriorityHigh,
			Description: fmt.Sprintf("treasury spread of %.0f bps between intercompany lending and borrowing is near zero; on-lending margin not captured",
				*spread),
			OECDReference: "OECD TPG Chapter X, C.2 (treasury functions)",
		})
	case abs < t.SpreadLowBps:
		result.Warnings = append(result.Warnings, model.ValidationWarning{
			Severity: model.SeverityMedium,
			Field:    "spread_bps",
			Issue:    "spread_low",
			Detail:   fmt.Sprintf("treasury spread of %.0f bps is below the %.0f bps materiality band", *spread, t.SpreadLowBps),
		})
	}
}

// checkReasonableness enforces the deterministic accounting bound:
// intercompany loans cannot exceed a multiple of total assets. A breach
// is a near-certain extraction error, not a finding.
func (v *Validator) checkReasonableness(result *model.ValidationResult, bs model.BalanceSheetExtraction, company model.CompanyContext) {
	totalAssets := company.TotalAssets
	if totalAssets == 0 && bs.TotalAssets.Found() {
		totalAssets = bs.TotalAssets.Value()
	}
	if totalAssets <= 0 {
		return
	}

	var totalIC float64
	if p := result.Cross.ICLoansProvided; p != nil {
		totalIC += *p
	}
	if r := result.Cross.ICLoansReceived; r != nil {
		totalIC += *r
	}
	ratio := totalIC / totalAssets
	result.Cross.ICLoansToAssets = &ratio

	if totalIC > totalAssets*v.lib.Thresholds.MaxLoansToAssetsMultiple {
		result.Errors = append(result.Errors, model.ValidationError{
			Severity:              model.SeverityCritical,
			Field:                 "ic_loans_total",
			Issue:                 "exceeds_total_assets",
			Detail:                fmt.Sprintf("intercompany loans of %.0f exceed %.0fx total assets (%.0f); accounting impossibility", totalIC, v.lib.Thresholds.MaxLoansToAssetsMultiple, totalAssets),
			PossibleHallucination: true,
		})
	}
}

// checkICServices gates the "other operating income" line: it is only
// confirmed intercompany when its referenced note was reachable and
// contained an intercompany breakdown. Anything less is genuine
// uncertainty, reported as an advisory.
func (v *Validator) checkICServices(result *model.ValidationResult, pl model.PLExtraction, noteResults []model.NoteParsingResult, company model.CompanyContext) {
	ooi := pl.OtherOperatingIncome
	if !ooi.Found() || ooi.Value() == 0 {
		return
	}

	var note *model.NoteParsingResult
	if ooi.NoteReference != "" {
		for i := range noteResults {
			if noteResults[i].NoteNumber == ooi.NoteReference {
				note = &noteResults[i]
				break
			}
		}
	}

	confirmed := note != nil && note.Accessible && note.ICBreakdown != nil && len(note.ICBreakdown.Items) > 0
	if !confirmed {
		result.Warnings = append(result.Warnings, model.ValidationWarning{
			Severity: model.SeverityMedium,
			Field:    "other_operating_income",
			Issue:    "ic_nature_unverified",
			Detail:   fmt.Sprintf("other operating income of %.0f cannot be verified as intercompany: referenced note lacks explicit affiliate language for this amount", ooi.Value()),
		})
		return
	}

	if ooi.Value() > v.lib.Thresholds.ICVolumeDocThreshold {
		result.Flags = append(result.Flags, model.TPOpportunityFlag{
			Type:     model.FlagUndocumentedICService,
			Priority: model.PriorityMedium,
			Description: fmt.Sprintf("confirmed intercompany service income of %s above the documentation materiality threshold",
				formatAmount(ooi.Value(), company.Currency)),
			OECDReference: "OECD TPG Chapter VII (intra-group services)",
		})
	}
}

// checkThinCap compares intercompany debt to equity against the
// warning and critical ratios.
func (v *Validator) checkThinCap(result *model.ValidationResult, bs model.BalanceSheetExtraction, company model.CompanyContext) {
	equity := company.TotalEquity
	if equity == 0 && bs.TotalEquity.Found() {
		equity = bs.TotalEquity.Value()
	}
	icDebt := result.Cross.ICLoansReceived
	if equity <= 0 || icDebt == nil || *icDebt <= 0 {
		return
	}

	ratio := *icDebt / equity
	result.Cross.ICDebtToEquity = &ratio

	t := v.lib.Thresholds
	switch {
	case ratio > t.ThinCapCriticalRatio:
		result.Flags = append(result.Flags, model.TPOpportunityFlag{
			Type:     model.FlagThinCapitalisation,
			Priority: model.PriorityHigh,
			Description: fmt.Sprintf("intercompany debt/equity ratio of %.1f exceeds the 85:15 threshold applied to intra-group financing",
				ratio),
			OECDReference: "Luxembourg 85:15 administrative practice; OECD TPG Chapter X, C.1.1",
		})
	case ratio > t.ThinCapWarnRatio:
		result.Warnings = append(result.Warnings, model.ValidationWarning{
			Severity: model.SeverityMedium,
			Field:    "ic_debt_to_equity",
			Issue:    "thin_capitalisation_risk",
			Detail:   fmt.Sprintf("intercompany debt/equity ratio of %.1f approaches the thin-capitalisation threshold", ratio),
		})
	}
}

// checkNoteCoverage surfaces every requested note that turned out to be
// unreachable. Visibility, not failure.
func (v *Validator) checkNoteCoverage(result *model.ValidationResult, noteResults []model.NoteParsingResult) {
	for _, n := range noteResults {
		if !n.Accessible {
			result.Warnings = append(result.Warnings, model.ValidationWarning{
				Severity: model.SeverityLow,
				Field:    "note_" + n.NoteNumber,
				Issue:    "note_inaccessible",
				Detail:   fmt.Sprintf("note %s was referenced but could not be located in the document", n.NoteNumber),
			})
		}
	}
}
