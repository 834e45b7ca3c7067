package notes

import (
	"math"
	"strings"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
)

// extractBreakdown extracts the intercompany line items of one note
// section. The extraction is deliberately conservative: unless a
// primary intercompany keyword appears somewhere in the note, no line
// is ever attributed to intercompany activity and the breakdown is
// absent — a note's grand total may not be claimed as intercompany
// without direct textual confirmation.
func (p *Parser) extractBreakdown(sectionLines []string, scale float64) (*model.ICBreakdown, []string) {
	gatePassed := false
	for _, line := range sectionLines {
		if p.lib.IC.MatchPrimary(line) != "" {
			gatePassed = true
			break
		}
	}
	if !gatePassed {
		return nil, nil
	}

	w := p.lib.Windows.NoteContext
	var (
		breakdown model.ICBreakdown
		warnings  []string
	)

	for i, line := range sectionLines {
		tok, ok := patterns.FindAmount(line)
		if !ok {
			continue
		}
		amount := tok.Value * scale
		if amount < 1 && amount > -1 {
			continue
		}

		if isTotalLine(line) {
			if breakdown.ExplicitTotal == nil {
				breakdown.ExplicitTotal = &amount
			}
			continue
		}

		kw := p.keywordInContext(sectionLines, i, w)
		if kw == "" {
			continue
		}

		breakdown.Items = append(breakdown.Items, model.ICBreakdownItem{
			Description:           describeLine(line, tok.Raw),
			Amount:                amount,
			CounterpartyName:      counterpartyNear(sectionLines, i),
			SourceText:            strings.TrimSpace(line),
			ConfirmedIntercompany: true,
			MatchedKeyword:        kw,
		})
	}

	if len(breakdown.Items) == 0 {
		warnings = append(warnings,
			"intercompany language present but no intercompany-tagged line carries an extractable amount")
		return &breakdown, warnings
	}

	for _, item := range breakdown.Items {
		breakdown.CalculatedTotal += item.Amount
	}
	if breakdown.ExplicitTotal != nil {
		diff := math.Abs(breakdown.CalculatedTotal - *breakdown.ExplicitTotal)
		breakdown.TotalsReconcile = diff < p.lib.Thresholds.ReconcileTolerance
		if !breakdown.TotalsReconcile {
			warnings = append(warnings,
				"note's stated total does not reconcile with the sum of intercompany items")
		}
	}
	return &breakdown, warnings
}

// keywordInContext returns the intercompany keyword justifying line i,
// evaluated over the sliding context window: a primary keyword anywhere
// in the window is conclusive; a secondary keyword on the line itself
// counts only with primary vocabulary elsewhere in the window.
func (p *Parser) keywordInContext(lines []string, i, window int) string {
	lo := i - window
	hi := i + window
	if lo < 0 {
		lo = 0
	}
	if hi >= len(lines) {
		hi = len(lines) - 1
	}

	for j := lo; j <= hi; j++ {
		if kw := p.lib.IC.MatchPrimary(lines[j]); kw != "" {
			return kw
		}
	}
	if sec := p.lib.IC.MatchSecondary(lines[i]); sec != "" {
		for j := lo; j <= hi; j++ {
			if p.lib.IC.MatchPrimary(lines[j]) != "" {
				return sec
			}
		}
	}
	return ""
}

// isTotalLine reports whether a line states the note's own total.
func isTotalLine(line string) bool {
	folded := patterns.Fold(line)
	return strings.Contains(folded, "total") || strings.Contains(folded, "somme")
}

// describeLine strips the amount token from a line to leave its label.
func describeLine(line, rawAmount string) string {
	desc := strings.Replace(line, rawAmount, "", 1)
	desc = strings.Trim(desc, " \t.:-–—")
	if desc == "" {
		desc = strings.TrimSpace(line)
	}
	return desc
}
