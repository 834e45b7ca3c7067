package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
	"github.com/sells-group/tpscan/internal/textutil"
)

// findLineItem runs the generic scan primitive for one target line
// item: keyword forward scan (English set first, then French), the
// MustInclude co-occurrence check over a bounded window, then a
// forward-bounded amount search excluding reference-number shapes. The
// first accepted match wins. Returns the value and the keyword line
// index, or an absent value naming the missed pattern.
func (e *Extractor) findLineItem(lines []string, scale float64, item patterns.LineItem) (model.ExtractedValue, int) {
	keywords := make([]string, 0, len(item.KeywordsEN)+len(item.KeywordsFR))
	keywords = append(keywords, item.KeywordsEN...)
	keywords = append(keywords, item.KeywordsFR...)

	w := e.lib.Windows
	for _, kw := range keywords {
		for i := range lines {
			if !patterns.ContainsKeyword(lines[i], kw) {
				continue
			}
			anchor := i
			if len(item.MustIncludeAny) > 0 {
				ci := constraintIndex(lines, i, w.MustInclude, item.MustIncludeAny)
				if ci < 0 {
					continue
				}
				anchor = ci
			}
			val, ok := e.amountAfter(lines, scale, i, w.Amount, anchor)
			if !ok {
				continue
			}
			val.MatchedPattern = kw
			if ref := firstNoteRef(lines, i, w.Amount); ref != "" {
				val.NoteReference = ref
			}
			return val, i
		}
	}
	warn := fmt.Sprintf("no match for %q across %d English and %d French keywords",
		item.Description, len(item.KeywordsEN), len(item.KeywordsFR))
	return model.NotFound(item.Key, warn), -1
}

// constraintIndex returns the index of the first line in the window
// starting at the keyword match that satisfies the MustInclude
// constraint, or -1 when none does.
func constraintIndex(lines []string, start, window int, phrases []string) int {
	for i := start; i < start+window && i < len(lines); i++ {
		for _, p := range phrases {
			if patterns.ContainsKeyword(lines[i], p) {
				return i
			}
		}
	}
	return -1
}

// amountAfter searches lines[start .. start+window] for an acceptable
// amount token. Amounts must be at least 1 in magnitude after scale
// normalisation; smaller tokens are column artifacts or percentages,
// not statutory amounts. Confidence grades the distance from anchor,
// the last line the match had to satisfy: a caption whose qualifier
// line sits directly above the amount still reads as adjacent.
func (e *Extractor) amountAfter(lines []string, scale float64, start, window, anchor int) (model.ExtractedValue, bool) {
	for j := start; j <= start+window && j < len(lines); j++ {
		tok, ok := patterns.FindAmount(lines[j])
		if !ok {
			continue
		}
		normalized := tok.Value * scale
		if normalized < 1 && normalized > -1 {
			continue
		}
		conf := model.ConfidenceHigh
		if j-anchor > 1 {
			conf = model.ConfidenceMedium
		}
		return model.ExtractedValue{
			Amount:       &normalized,
			SourceText:   strings.TrimSpace(lines[j]),
			PageEstimate: textutil.PageOf(lines, j),
			LineContext:  textutil.ContextAround(lines, start-1, j+1),
			Confidence:   conf,
		}, true
	}
	return model.ExtractedValue{}, false
}

// firstNoteRef returns the first explicit note reference in the window
// starting at the keyword line, normalised.
func firstNoteRef(lines []string, start, window int) string {
	for i := start; i <= start+window && i < len(lines); i++ {
		if refs := patterns.NoteReferences(lines[i]); len(refs) > 0 {
			return patterns.NormalizeNoteRef(refs[0])
		}
	}
	return ""
}
