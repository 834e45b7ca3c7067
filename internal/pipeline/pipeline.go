// Package pipeline wires the three extraction layers into the fixed
// sequence: pattern library, structured extractor, note parser,
// validator. One invocation per document; no shared mutable state, so
// independent documents may run concurrently.
package pipeline

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/tpscan/internal/extract"
	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/notes"
	"github.com/sells-group/tpscan/internal/patterns"
	"github.com/sells-group/tpscan/internal/validate"
)

// Pipeline runs the full extraction and validation sequence over one
// document's linearised text.
type Pipeline struct {
	lib       *patterns.Library
	extractor *extract.Extractor
	notes     *notes.Parser
	validator *validate.Validator
}

// New builds a Pipeline over a shared read-only pattern library.
func New(lib *patterns.Library) *Pipeline {
	return &Pipeline{
		lib:       lib,
		extractor: extract.New(lib),
		notes:     notes.NewParser(lib),
		validator: validate.New(lib),
	}
}

// Run executes the pipeline for one filing. It always returns a
// well-formed outcome: empty or unreadable input and internal panics
// degrade to an empty result with confidence LOW and one explanatory
// warning, never a fault to the caller.
func (p *Pipeline) Run(filing model.Filing) (outcome *model.RunOutcome) {
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("company", filing.Company.Name),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panicked, returning degenerate result", zap.Any("panic", r))
			outcome = degenerate("extraction aborted by an internal fault; no values were extracted")
		}
	}()

	if strings.TrimSpace(filing.Text) == "" {
		log.Warn("empty document text")
		return degenerate("document text is empty or unreadable; no values were extracted")
	}

	info := p.extractor.ExtractCompanyInfo(filing.Text)
	bs := p.extractor.ExtractBalanceSheet(filing.Text)
	pl := p.extractor.ExtractPL(filing.Text)
	log.Debug("structured extraction complete",
		zap.Float64("scale_factor", bs.ScaleFactor),
	)

	refs := referencedNotes(bs, pl)
	noteResults := p.notes.ParseRequested(filing.Text, refs)
	log.Debug("note parsing complete", zap.Int("notes_requested", len(refs)))

	validation := p.validator.Validate(bs, pl, noteResults, filing.Company)
	log.Info("validation complete",
		zap.Bool("is_valid", validation.IsValid),
		zap.Int("errors", len(validation.Errors)),
		zap.Int("warnings", len(validation.Warnings)),
		zap.Int("flags", len(validation.Flags)),
		zap.String("confidence", string(validation.Quality.OverallConfidence)),
	)

	return &model.RunOutcome{
		Company:      info,
		BalanceSheet: bs,
		PL:           pl,
		Notes:        noteResults,
		Validation:   validation,
	}
}

// referencedNotes collects, in order of first appearance, the note
// identifiers the extracted line items explicitly reference. Only these
// notes are parsed; the pipeline never walks every note in the
// document.
func referencedNotes(bs model.BalanceSheetExtraction, pl model.PLExtraction) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		if ref != "" && !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	for _, v := range []model.ExtractedValue{
		bs.SharesInAffiliates,
		bs.ICLoansProvidedLong, bs.ICLoansProvidedShort,
		bs.ICLoansReceivedLong, bs.ICLoansReceivedShort,
		bs.TotalAssets, bs.TotalEquity,
		pl.OtherOperatingIncome,
		pl.ParticipationIncome, pl.ParticipationIncomeIC,
		pl.FixedAssetInterestIncome, pl.FixedAssetInterestIncomeIC,
		pl.OtherInterestIncome, pl.OtherInterestIncomeIC,
		pl.InterestExpense, pl.InterestExpenseIC,
		pl.Turnover, pl.NetResult,
	} {
		add(v.NoteReference)
	}
	return refs
}

// degenerate builds the fully-populated-but-empty outcome returned for
// unusable input.
func degenerate(reason string) *model.RunOutcome {
	return &model.RunOutcome{
		Validation: model.ValidationResult{
			IsValid: true,
			Warnings: []model.ValidationWarning{{
				Severity: model.SeverityLow,
				Field:    "document",
				Issue:    "empty_input",
				Detail:   reason,
			}},
			Quality: model.QualityMetrics{
				NoteCoverage:      1,
				OverallConfidence: model.ConfidenceLow,
			},
		},
	}
}
