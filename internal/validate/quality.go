package validate

import "github.com/sells-group/tpscan/internal/model"

// qualityMetrics is computed after all checks: the sourced fraction of
// extracted values, note accessibility, and the overall confidence
// verdict.
func (v *Validator) qualityMetrics(result *model.ValidationResult, bs model.BalanceSheetExtraction, pl model.PLExtraction, noteResults []model.NoteParsingResult) model.QualityMetrics {
	var found, sourced int
	countValues := func(values map[string]model.ExtractedValue) {
		for _, val := range values {
			if val.Found() {
				found++
				if val.Sourced() {
					sourced++
				}
			}
		}
	}
	countValues(bs.Values())
	countValues(pl.Values())

	m := model.QualityMetrics{
		NotesRequested: len(noteResults),
	}
	if found > 0 {
		m.SourcedFraction = float64(sourced) / float64(found)
	}
	for _, n := range noteResults {
		if n.Accessible {
			m.NotesAccessible++
		}
	}
	if m.NotesRequested > 0 {
		m.NoteCoverage = float64(m.NotesAccessible) / float64(m.NotesRequested)
	} else {
		m.NoteCoverage = 1
	}

	m.OverallConfidence = overallConfidence(result, m.SourcedFraction)
	return m
}

// overallConfidence derives the verdict: LOW on any critical or
// possible-hallucination error, MEDIUM on a thin sourced fraction or
// any high-severity error, HIGH otherwise.
func overallConfidence(result *model.ValidationResult, sourcedFraction float64) model.Confidence {
	for _, e := range result.Errors {
		if e.Severity == model.SeverityCritical || e.PossibleHallucination {
			return model.ConfidenceLow
		}
	}
	if sourcedFraction < 0.8 {
		return model.ConfidenceMedium
	}
	for _, e := range result.Errors {
		if e.Severity == model.SeverityHigh {
			return model.ConfidenceMedium
		}
	}
	return model.ConfidenceHigh
}
