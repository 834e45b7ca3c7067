package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
)

func sourced(amount float64) model.ExtractedValue {
	return model.ExtractedValue{
		Amount:     &amount,
		SourceText: "verbatim excerpt 123",
		Confidence: model.ConfidenceHigh,
	}
}

func unsourced(amount float64) model.ExtractedValue {
	return model.ExtractedValue{Amount: &amount}
}

func findFlag(flags []model.TPOpportunityFlag, ft model.FlagType) *model.TPOpportunityFlag {
	for i := range flags {
		if flags[i].Type == ft {
			return &flags[i]
		}
	}
	return nil
}

func hasWarning(warnings []model.ValidationWarning, issue string) bool {
	for _, w := range warnings {
		if w.Issue == issue {
			return true
		}
	}
	return false
}

func TestValidate_SourceInvariant(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(100_000_000),
		TotalAssets:         sourced(500_000_000),
	}
	result := v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{})
	assert.Zero(t, result.CriticalCount())

	// Strip the provenance from one amount: the result must degrade to
	// a critical hallucination finding, and nothing else may mask it.
	bs.ICLoansProvidedLong.SourceText = ""
	bs.ICLoansProvidedLong.LineContext = ""
	result = v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{})

	require.Equal(t, 1, result.CriticalCount())
	assert.False(t, result.IsValid)
	assert.True(t, result.Errors[0].PossibleHallucination)
	assert.Equal(t, "amount_without_source", result.Errors[0].Issue)
	assert.Equal(t, model.ConfidenceLow, result.Quality.OverallConfidence)
}

func TestValidate_AbsentValuesAreNotViolations(t *testing.T) {
	v := New(patterns.Default())
	result := v.Validate(model.BalanceSheetExtraction{}, model.PLExtraction{}, nil, model.CompanyContext{})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.Cross.ICLoansProvided)
	assert.Nil(t, result.Cross.ImpliedLendingRate)
}

func TestValidate_ImpliedRatesAndSpread(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong:  sourced(517_400_000),
		ICLoansProvidedShort: sourced(25_000_000),
		ICLoansReceivedLong:  sourced(310_900_000),
		ICLoansReceivedShort: sourced(15_000_000),
		TotalAssets:          sourced(950_000_000),
		TotalEquity:          sourced(120_000_000),
	}
	pl := model.PLExtraction{
		FixedAssetInterestIncomeIC: sourced(36_600_000),
		OtherInterestIncomeIC:      sourced(1_500_000),
		InterestExpenseIC:          sourced(13_800_000),
	}
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	require.NotNil(t, result.Cross.ICLoansProvided)
	assert.Equal(t, 542_400_000.0, *result.Cross.ICLoansProvided)
	require.NotNil(t, result.Cross.ICLoansReceived)
	assert.Equal(t, 325_900_000.0, *result.Cross.ICLoansReceived)

	require.NotNil(t, result.Cross.ImpliedLendingRate)
	assert.InDelta(t, 0.0702, *result.Cross.ImpliedLendingRate, 0.0005)
	require.NotNil(t, result.Cross.ImpliedBorrowingRate)
	assert.InDelta(t, 0.0423, *result.Cross.ImpliedBorrowingRate, 0.0005)

	require.NotNil(t, result.Cross.SpreadBps)
	assert.InDelta(t, 279, *result.Cross.SpreadBps, 5)

	// Market-range rates with a healthy spread: no findings.
	assert.Nil(t, findFlag(result.Flags, model.FlagZeroSpread))
	assert.Nil(t, findFlag(result.Flags, model.FlagRateBelowMarket))
	assert.Nil(t, findFlag(result.Flags, model.FlagLoanWithoutInterest))
	assert.True(t, result.IsValid)
	assert.Equal(t, model.ConfidenceHigh, result.Quality.OverallConfidence)
}

func TestValidate_LoanWithoutInterest(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{ICLoansProvidedLong: sourced(200_000_000)}
	result := v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{})

	flag := findFlag(result.Flags, model.FlagLoanWithoutInterest)
	require.NotNil(t, flag)
	assert.Equal(t, model.PriorityHigh, flag.Priority)
	assert.Contains(t, flag.OECDReference, "Chapter X")
	assert.NotEmpty(t, flag.EstimatedImpact)
}

func TestValidate_InterestWithoutPrincipal(t *testing.T) {
	v := New(patterns.Default())

	pl := model.PLExtraction{OtherInterestIncomeIC: sourced(5_000_000)}
	result := v.Validate(model.BalanceSheetExtraction{}, pl, nil, model.CompanyContext{})
	assert.True(t, hasWarning(result.Warnings, "interest_without_principal"))

	// Unsourced interest must not raise the advisory: it would compound
	// one suspect figure with another.
	pl = model.PLExtraction{OtherInterestIncomeIC: unsourced(5_000_000)}
	result = v.Validate(model.BalanceSheetExtraction{}, pl, nil, model.CompanyContext{})
	assert.False(t, hasWarning(result.Warnings, "interest_without_principal"))
}

func TestValidate_RateBelowMarket(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{ICLoansProvidedLong: sourced(400_000_000)}
	pl := model.PLExtraction{FixedAssetInterestIncomeIC: sourced(2_000_000)} // 0.5%
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	flag := findFlag(result.Flags, model.FlagRateBelowMarket)
	require.NotNil(t, flag)
	assert.Equal(t, model.PriorityMedium, flag.Priority)
	assert.Contains(t, flag.EstimatedImpact, "EUR")
}

func TestValidate_NearZeroRateIsHighPriority(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{ICLoansProvidedLong: sourced(400_000_000)}
	pl := model.PLExtraction{FixedAssetInterestIncomeIC: sourced(200_000)} // 0.05%
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	flag := findFlag(result.Flags, model.FlagRateBelowMarket)
	require.NotNil(t, flag)
	assert.Equal(t, model.PriorityHigh, flag.Priority)
}

func TestValidate_ImplausibleRateIsDataQuality(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{ICLoansProvidedLong: sourced(10_000_000)}
	pl := model.PLExtraction{FixedAssetInterestIncomeIC: sourced(5_000_000)} // 50%
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	assert.True(t, hasWarning(result.Warnings, "rate_implausibly_high"))
	assert.Nil(t, findFlag(result.Flags, model.FlagRateBelowMarket))
	// High-severity warning, but warnings alone never fail validation.
	assert.True(t, result.IsValid)
}

func TestValidate_ZeroSpread(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(500_000_000),
		ICLoansReceivedLong: sourced(500_000_000),
	}
	pl := model.PLExtraction{
		FixedAssetInterestIncomeIC: sourced(20_000_000), // 4.00%
		InterestExpenseIC:          sourced(19_500_000), // 3.90%, spread 10 bps
	}
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	flag := findFlag(result.Flags, model.FlagZeroSpread)
	require.NotNil(t, flag)
	assert.Equal(t, model.PriorityHigh, flag.Priority)
}

func TestValidate_LowSpreadWarns(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(500_000_000),
		ICLoansReceivedLong: sourced(500_000_000),
	}
	pl := model.PLExtraction{
		FixedAssetInterestIncomeIC: sourced(20_000_000), // 4.0%
		InterestExpenseIC:          sourced(17_500_000), // 3.5%, spread 50 bps
	}
	result := v.Validate(bs, pl, nil, model.CompanyContext{})

	assert.Nil(t, findFlag(result.Flags, model.FlagZeroSpread))
	assert.True(t, hasWarning(result.Warnings, "spread_low"))
}

func TestValidate_ImpossibleLoanVolume(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(5_000_000_000),
		TotalAssets:         sourced(900_000_000),
	}
	result := v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{})

	require.NotZero(t, result.CriticalCount())
	assert.False(t, result.IsValid)

	var impossible *model.ValidationError
	for i := range result.Errors {
		if result.Errors[i].Issue == "exceeds_total_assets" {
			impossible = &result.Errors[i]
		}
	}
	require.NotNil(t, impossible)
	assert.True(t, impossible.PossibleHallucination)
	assert.Equal(t, model.ConfidenceLow, result.Quality.OverallConfidence)
}

func TestValidate_ContextAssetsTrumpExtractedAssets(t *testing.T) {
	v := New(patterns.Default())

	// Registry context says 10bn; the extracted total is ignored and no
	// impossibility is raised.
	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(5_000_000_000),
		TotalAssets:         sourced(900_000_000),
	}
	result := v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{TotalAssets: 10_000_000_000})

	assert.Zero(t, result.CriticalCount())
	require.NotNil(t, result.Cross.ICLoansToAssets)
	assert.InDelta(t, 0.5, *result.Cross.ICLoansToAssets, 0.001)
}

func TestValidate_ThinCapitalisation(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansReceivedLong: sourced(900_000_000),
		TotalEquity:         sourced(100_000_000), // ratio 9, above 85:15
	}
	result := v.Validate(bs, model.PLExtraction{
		InterestExpenseIC: sourced(30_000_000),
	}, nil, model.CompanyContext{})

	flag := findFlag(result.Flags, model.FlagThinCapitalisation)
	require.NotNil(t, flag)
	assert.Equal(t, model.PriorityHigh, flag.Priority)
	require.NotNil(t, result.Cross.ICDebtToEquity)
	assert.InDelta(t, 9.0, *result.Cross.ICDebtToEquity, 0.001)
}

func TestValidate_ThinCapWarnBand(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansReceivedLong: sourced(500_000_000),
		TotalEquity:         sourced(100_000_000), // ratio 5: above warn, below 85:15
	}
	result := v.Validate(bs, model.PLExtraction{
		InterestExpenseIC: sourced(20_000_000),
	}, nil, model.CompanyContext{})

	assert.Nil(t, findFlag(result.Flags, model.FlagThinCapitalisation))
	assert.True(t, hasWarning(result.Warnings, "thin_capitalisation_risk"))
}

func TestValidate_ICServicesUnverified(t *testing.T) {
	v := New(patterns.Default())

	pl := model.PLExtraction{OtherOperatingIncome: sourced(91_300_000)}
	pl.OtherOperatingIncome.NoteReference = "10"
	noteResults := []model.NoteParsingResult{{NoteNumber: "10", Accessible: true}}

	result := v.Validate(model.BalanceSheetExtraction{}, pl, noteResults, model.CompanyContext{})

	assert.True(t, hasWarning(result.Warnings, "ic_nature_unverified"))
	assert.Nil(t, findFlag(result.Flags, model.FlagUndocumentedICService))
}

func TestValidate_ICServicesConfirmed(t *testing.T) {
	v := New(patterns.Default())

	pl := model.PLExtraction{OtherOperatingIncome: sourced(91_300_000)}
	pl.OtherOperatingIncome.NoteReference = "10"
	noteResults := []model.NoteParsingResult{{
		NoteNumber: "10",
		Accessible: true,
		ICBreakdown: &model.ICBreakdown{Items: []model.ICBreakdownItem{{
			Description:           "Management services to group companies",
			Amount:                91_300_000,
			SourceText:            "Management services to group companies 91.300.000",
			ConfirmedIntercompany: true,
			MatchedKeyword:        "group companies",
		}}},
	}}

	result := v.Validate(model.BalanceSheetExtraction{}, pl, noteResults, model.CompanyContext{})

	assert.False(t, hasWarning(result.Warnings, "ic_nature_unverified"))
	flag := findFlag(result.Flags, model.FlagUndocumentedICService)
	require.NotNil(t, flag)
	assert.Contains(t, flag.OECDReference, "Chapter VII")
}

func TestValidate_NoteCoverage(t *testing.T) {
	v := New(patterns.Default())

	noteResults := []model.NoteParsingResult{
		{NoteNumber: "5", Accessible: true},
		{NoteNumber: "17", Accessible: false},
	}
	result := v.Validate(model.BalanceSheetExtraction{}, model.PLExtraction{}, noteResults, model.CompanyContext{})

	assert.True(t, hasWarning(result.Warnings, "note_inaccessible"))
	assert.Equal(t, 2, result.Quality.NotesRequested)
	assert.Equal(t, 1, result.Quality.NotesAccessible)
	assert.InDelta(t, 0.5, result.Quality.NoteCoverage, 0.001)
}

func TestQuality_SourcedFractionDrivesConfidence(t *testing.T) {
	v := New(patterns.Default())

	bs := model.BalanceSheetExtraction{
		ICLoansProvidedLong: sourced(100_000_000),
		TotalAssets:         unsourced(500_000_000),
	}
	result := v.Validate(bs, model.PLExtraction{}, nil, model.CompanyContext{})

	// The unsourced amount is critical, which dominates everything.
	assert.Equal(t, model.ConfidenceLow, result.Quality.OverallConfidence)
	assert.InDelta(t, 0.5, result.Quality.SourcedFraction, 0.001)
}
