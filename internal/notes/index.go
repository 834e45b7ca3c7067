package notes

import (
	"regexp"

	"github.com/sells-group/tpscan/internal/patterns"
)

// noteHeaderPattern matches "Note <n>" header lines and their common
// variants ("Note 5", "NOTE 5 - Amounts owed by...", "Note 5.").
var noteHeaderPattern = regexp.MustCompile(`(?i)^\s*note\s+(\d{1,2})\s*[:.\-\x{2013}\x{2014}]?\s*(.*)$`)

// section is one indexed note: its normalised number, header title, and
// the half-open line span [start, end).
type section struct {
	number string
	title  string
	start  int
	end    int
}

// indexNotes splits the document into note sections. Each section spans
// from its header line to the next header (or end of document). The
// index is recomputed per document; nothing is cached across calls.
func indexNotes(lines []string) []section {
	var sections []section
	for i, line := range lines {
		m := noteHeaderPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sections = append(sections, section{
			number: patterns.NormalizeNoteRef(m[1]),
			title:  m[2],
			start:  i,
			end:    len(lines),
		})
	}
	for i := 0; i+1 < len(sections); i++ {
		sections[i].end = sections[i+1].start
	}
	return sections
}

// findSection returns the first indexed section with the given
// normalised number, or nil.
func findSection(sections []section, number string) *section {
	for i := range sections {
		if sections[i].number == number {
			return &sections[i]
		}
	}
	return nil
}
