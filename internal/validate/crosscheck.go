package validate

import (
	"fmt"

	"github.com/sells-group/tpscan/internal/model"
)

// sumFound adds the amounts of the given values, returning nil when
// none was found. Absent values contribute nothing; they are never
// treated as zero.
func sumFound(values ...model.ExtractedValue) *float64 {
	var (
		sum   float64
		found bool
	)
	for _, v := range values {
		if v.Found() {
			sum += v.Value()
			found = true
		}
	}
	if !found {
		return nil
	}
	return &sum
}

// anySourced reports whether at least one of the found values carries a
// source excerpt.
func anySourced(values ...model.ExtractedValue) bool {
	for _, v := range values {
		if v.Found() && v.Sourced() {
			return true
		}
	}
	return false
}

// crossValidate derives the implied intercompany lending and borrowing
// rates and the treasury spread from the extracted principal and
// interest figures.
func crossValidate(bs model.BalanceSheetExtraction, pl model.PLExtraction) model.CrossValidationResult {
	cross := model.CrossValidationResult{
		ICLoansProvided:   sumFound(bs.ICLoansProvidedLong, bs.ICLoansProvidedShort),
		ICLoansReceived:   sumFound(bs.ICLoansReceivedLong, bs.ICLoansReceivedShort),
		ICInterestIncome:  sumFound(pl.FixedAssetInterestIncomeIC, pl.OtherInterestIncomeIC),
		ICInterestExpense: sumFound(pl.InterestExpenseIC),
	}

	if cross.ICLoansProvided != nil && *cross.ICLoansProvided > 0 && cross.ICInterestIncome != nil {
		rate := *cross.ICInterestIncome / *cross.ICLoansProvided
		cross.ImpliedLendingRate = &rate
	}
	if cross.ICLoansReceived != nil && *cross.ICLoansReceived > 0 && cross.ICInterestExpense != nil {
		rate := *cross.ICInterestExpense / *cross.ICLoansReceived
		cross.ImpliedBorrowingRate = &rate
	}
	if cross.ImpliedLendingRate != nil && cross.ImpliedBorrowingRate != nil {
		spread := (*cross.ImpliedLendingRate - *cross.ImpliedBorrowingRate) * 10_000
		cross.SpreadBps = &spread
	}
	return cross
}

// formatAmount renders a monetary figure for finding descriptions.
func formatAmount(v float64, currency string) string {
	if currency == "" {
		currency = "EUR"
	}
	return fmt.Sprintf("%.0f %s", v, currency)
}
