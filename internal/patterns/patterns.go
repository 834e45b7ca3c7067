// Package patterns is the static catalogue driving extraction: bilingual
// keyword sets per statutory line item, amount and note-reference
// regexes, the intercompany keyword taxonomy, and the numeric thresholds
// used by validation. The library is constructed once at pipeline start
// and shared read-only between documents.
package patterns

// LineItem describes one statutory line item to locate in the document
// text. English keywords are tried before French; the reference corpus
// favors bilingual filings with the English column last.
type LineItem struct {
	// Key names the target field, e.g. "ic_loans_provided_long".
	Key string
	// Description is a human-readable label for diagnostics.
	Description string
	// KeywordsEN and KeywordsFR are matched case- and
	// diacritic-insensitively against each line.
	KeywordsEN []string
	KeywordsFR []string
	// MustIncludeAny, when non-empty, requires one of these phrases
	// within a 3-line window starting at the keyword match. Used to
	// split "within one year" from "after more than one year" maturities.
	MustIncludeAny []string
	// LineRange is the expected statutory line-number range on the eCDF
	// form. Advisory only; never used to reject a match.
	LineRange [2]int
	// HasICSubItem marks parent lines carrying an "of which from
	// affiliated undertakings" sub-line.
	HasICSubItem bool
}

// ScanWindows holds the forward-search bounds, tuned empirically against
// pdftotext line-splitting of CSSF filings.
type ScanWindows struct {
	// MustInclude is the window (in lines, from the keyword match)
	// checked for a required co-occurring phrase.
	MustInclude int
	// Amount is how many lines after a matched keyword are searched for
	// a numeric token.
	Amount int
	// SubItem is how far after a parent line the IC sub-line may appear.
	SubItem int
	// NoteContext is the sliding window used when attributing note
	// lines to intercompany activity.
	NoteContext int
}

// Library is the process-wide immutable pattern catalogue.
type Library struct {
	BalanceSheet []LineItem
	ProfitLoss   []LineItem
	IC           Taxonomy
	Thresholds   Thresholds
	Windows      ScanWindows
}

// Default returns the built-in library.
func Default() *Library {
	return &Library{
		BalanceSheet: balanceSheetItems,
		ProfitLoss:   profitLossItems,
		IC:           defaultTaxonomy,
		Thresholds:   DefaultThresholds(),
		Windows: ScanWindows{
			MustInclude: 3,
			Amount:      4,
			SubItem:     15,
			NoteContext: 3,
		},
	}
}

// ByKey returns the line item with the given key, searching both
// statements, or nil if unknown.
func (l *Library) ByKey(key string) *LineItem {
	for i := range l.BalanceSheet {
		if l.BalanceSheet[i].Key == key {
			return &l.BalanceSheet[i]
		}
	}
	for i := range l.ProfitLoss {
		if l.ProfitLoss[i].Key == key {
			return &l.ProfitLoss[i]
		}
	}
	return nil
}

var balanceSheetItems = []LineItem{
	{
		Key:         "shares_in_affiliates",
		Description: "Shares in affiliated undertakings",
		KeywordsEN:  []string{"shares in affiliated undertakings"},
		KeywordsFR:  []string{"parts dans des entreprises liees"},
		LineRange:   [2]int{23, 27},
	},
	{
		Key:            "ic_loans_provided_long",
		Description:    "Amounts owed by affiliated undertakings (> 1 year)",
		KeywordsEN:     []string{"amounts owed by affiliated undertakings", "loans to affiliated undertakings"},
		KeywordsFR:     []string{"creances sur des entreprises liees", "prets aux entreprises liees"},
		MustIncludeAny: []string{"after more than one year", "a plus d'un an"},
		LineRange:      [2]int{25, 31},
	},
	{
		Key:            "ic_loans_provided_short",
		Description:    "Amounts owed by affiliated undertakings (<= 1 year)",
		KeywordsEN:     []string{"amounts owed by affiliated undertakings"},
		KeywordsFR:     []string{"creances sur des entreprises liees"},
		MustIncludeAny: []string{"within one year", "a un an au plus"},
		LineRange:      [2]int{41, 47},
	},
	{
		Key:            "ic_loans_received_long",
		Description:    "Amounts owed to affiliated undertakings (> 1 year)",
		KeywordsEN:     []string{"amounts owed to affiliated undertakings"},
		KeywordsFR:     []string{"dettes envers des entreprises liees"},
		MustIncludeAny: []string{"after more than one year", "a plus d'un an"},
		LineRange:      [2]int{71, 79},
	},
	{
		Key:            "ic_loans_received_short",
		Description:    "Amounts owed to affiliated undertakings (<= 1 year)",
		KeywordsEN:     []string{"amounts owed to affiliated undertakings"},
		KeywordsFR:     []string{"dettes envers des entreprises liees"},
		MustIncludeAny: []string{"within one year", "a un an au plus"},
		LineRange:      [2]int{71, 79},
	},
	{
		Key:         "total_assets",
		Description: "Total assets (balance sheet total)",
		KeywordsEN:  []string{"total assets", "balance sheet total"},
		KeywordsFR:  []string{"total du bilan", "total de l'actif"},
		LineRange:   [2]int{51, 52},
	},
	{
		Key:         "total_equity",
		Description: "Capital and reserves",
		KeywordsEN:  []string{"capital and reserves", "total equity"},
		KeywordsFR:  []string{"capitaux propres"},
		LineRange:   [2]int{53, 65},
	},
}

var profitLossItems = []LineItem{
	{
		Key:         "other_operating_income",
		Description: "Other operating income",
		KeywordsEN:  []string{"other operating income"},
		KeywordsFR:  []string{"autres produits d'exploitation"},
		LineRange:   [2]int{7, 9},
	},
	{
		Key:          "participation_income",
		Description:  "Income from participating interests",
		KeywordsEN:   []string{"income from participating interests"},
		KeywordsFR:   []string{"produits des participations"},
		LineRange:    [2]int{9, 11},
		HasICSubItem: true,
	},
	{
		Key:          "fixed_asset_interest_income",
		Description:  "Income from other investments and loans forming part of the fixed assets",
		KeywordsEN:   []string{"income from other investments and loans forming part of the fixed assets", "income from other investments and loans"},
		KeywordsFR:   []string{"produits des autres valeurs mobilieres et de creances de l'actif immobilise"},
		LineRange:    [2]int{10, 12},
		HasICSubItem: true,
	},
	{
		Key:          "other_interest_income",
		Description:  "Other interest receivable and similar income",
		KeywordsEN:   []string{"other interest receivable and similar income"},
		KeywordsFR:   []string{"autres interets et produits assimiles"},
		LineRange:    [2]int{11, 13},
		HasICSubItem: true,
	},
	{
		Key:          "interest_expense",
		Description:  "Interest payable and similar expenses",
		KeywordsEN:   []string{"interest payable and similar expenses"},
		KeywordsFR:   []string{"interets et charges assimilees"},
		LineRange:    [2]int{14, 16},
		HasICSubItem: true,
	},
	{
		Key:         "turnover",
		Description: "Net turnover",
		KeywordsEN:  []string{"net turnover"},
		KeywordsFR:  []string{"chiffre d'affaires net"},
		LineRange:   [2]int{1, 2},
	},
	{
		Key:         "net_result",
		Description: "Profit or loss for the financial year",
		KeywordsEN:  []string{"profit or loss for the financial year", "result for the financial year"},
		KeywordsFR:  []string{"resultat de l'exercice"},
		LineRange:   [2]int{18, 26},
	},
}
