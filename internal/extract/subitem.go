package extract

import (
	"fmt"
	"strings"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
)

// findICSubItem locates the "of which from affiliated undertakings"
// sub-line beneath a parent line item. The search runs strictly forward
// from the parent match: first for a line bearing an intercompany
// keyword within the sub-item window, then for the amount within the
// usual amount window. Searching only forward prevents binding a
// preceding, unrelated item's affiliate sub-line to this parent.
func (e *Extractor) findICSubItem(lines []string, scale float64, parentKey string, parentIdx int) model.ExtractedValue {
	if parentIdx < 0 {
		return model.NotFound(parentKey+"_ic", fmt.Sprintf("parent line %q not located, sub-item search skipped", parentKey))
	}

	w := e.lib.Windows
	for i := parentIdx + 1; i <= parentIdx+w.SubItem && i < len(lines); i++ {
		kw := e.lib.IC.MatchPrimary(lines[i])
		if kw == "" {
			// Secondary vocabulary counts only with primary language in
			// the surrounding context window.
			if sec := e.lib.IC.MatchSecondary(lines[i]); sec != "" && primaryNearby(e.lib, lines, i, w.NoteContext) {
				kw = sec
			}
		}
		if kw == "" {
			continue
		}

		val, ok := e.amountAfter(lines, scale, i, w.Amount, i)
		if !ok {
			continue
		}
		val.MatchedPattern = kw
		if !strings.Contains(val.LineContext, strings.TrimSpace(lines[i])) {
			val.LineContext = strings.TrimSpace(lines[i]) + " | " + val.LineContext
		}
		return val
	}

	warn := fmt.Sprintf("no intercompany sub-line within %d lines after %q", w.SubItem, parentKey)
	return model.NotFound(parentKey+"_ic", warn)
}

// primaryNearby reports whether any primary IC keyword appears within
// the sliding context window centred on idx.
func primaryNearby(lib *patterns.Library, lines []string, idx, window int) bool {
	for i := idx - window; i <= idx+window; i++ {
		if i < 0 || i >= len(lines) || i == idx {
			continue
		}
		if lib.IC.MatchPrimary(lines[i]) != "" {
			return true
		}
	}
	return false
}
