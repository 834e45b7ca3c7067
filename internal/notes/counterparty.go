package notes

import (
	"regexp"
	"strings"
)

// counterpartyPattern captures up to five capitalized tokens preceding
// a legal-entity suffix. Best effort; a missing counterparty never
// blocks an item.
var counterpartyPattern = regexp.MustCompile(
	`((?:[A-Z][\p{L}\d&.'\x{2019}-]*\s+){0,4}[A-Z][\p{L}\d&.'\x{2019}-]*)\s+` +
		`(S\.A\.|S\.\x{00e0}\s?r\.l\.|S\.a\s?r\.l\.|S\.C\.A\.|B\.?V\.?|GmbH|AG|Ltd\.?|N\.?V\.?|Inc\.?|plc)`)

// counterpartyNear pulls a counterparty name from the item line itself
// or the line directly above it (note tables often split the name from
// the amount).
func counterpartyNear(lines []string, i int) string {
	for _, j := range []int{i, i - 1} {
		if j < 0 || j >= len(lines) {
			continue
		}
		if m := counterpartyPattern.FindStringSubmatch(lines[j]); m != nil {
			return strings.TrimSpace(m[1] + " " + m[2])
		}
	}
	return ""
}
