// Package notes implements the controlled note parser: the second
// pipeline layer, which locates the numbered note sections referenced
// by the statement extraction and attributes note lines to intercompany
// activity only under direct textual confirmation.
package notes

import (
	"fmt"
	"strings"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/patterns"
	"github.com/sells-group/tpscan/internal/textutil"
)

// Parser parses statutory notes on demand. Stateless; safe for
// concurrent use across documents.
type Parser struct {
	lib *patterns.Library
}

// NewParser creates a Parser over the given library.
func NewParser(lib *patterns.Library) *Parser {
	return &Parser{lib: lib}
}

// AvailableNotes lists the note numbers indexed in the document, in
// order of appearance.
func (p *Parser) AvailableNotes(text string) []string {
	lines := textutil.SplitLines(text)
	sections := indexNotes(lines)
	var nums []string
	for _, s := range sections {
		nums = append(nums, s.number)
	}
	return nums
}

// ParseNote locates and parses a single note. The requested reference
// is normalised first; if the header index misses, a fuzzy forward scan
// tolerates "(n)" and "[n]" style references. An unlocatable note is
// reported as inaccessible, never as an error.
func (p *Parser) ParseNote(text, ref string) model.NoteParsingResult {
	lines := textutil.SplitLines(text)
	return p.parseNote(lines, indexNotes(lines), ref)
}

// ParseRequested parses each requested note against a single index
// pass over the document.
func (p *Parser) ParseRequested(text string, refs []string) []model.NoteParsingResult {
	lines := textutil.SplitLines(text)
	sections := indexNotes(lines)
	results := make([]model.NoteParsingResult, 0, len(refs))
	for _, ref := range refs {
		results = append(results, p.parseNote(lines, sections, ref))
	}
	return results
}

// relatedPartyMarkers identify a note whose title concerns related
// parties regardless of its number.
var relatedPartyMarkers = []string{
	"related part",
	"affiliated undertaking",
	"entreprises liees",
	"parties liees",
}

// FindRelatedPartyNote scans note titles for a related-party section
// and parses the first one found.
func (p *Parser) FindRelatedPartyNote(text string) (model.NoteParsingResult, bool) {
	lines := textutil.SplitLines(text)
	sections := indexNotes(lines)
	for _, s := range sections {
		title := patterns.Fold(s.title)
		for _, marker := range relatedPartyMarkers {
			if strings.Contains(title, marker) {
				return p.parseNote(lines, sections, s.number), true
			}
		}
	}
	return model.NoteParsingResult{}, false
}

func (p *Parser) parseNote(lines []string, sections []section, ref string) model.NoteParsingResult {
	number := patterns.NormalizeNoteRef(ref)
	result := model.NoteParsingResult{NoteNumber: number}

	sec := findSection(sections, number)
	if sec == nil {
		sec = p.fuzzyFind(lines, sections, number)
		if sec != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("note %s located via fuzzy bracketed reference, section bounds approximate", number))
		}
	}
	if sec == nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("note %s not found in document", number))
		return result
	}

	result.Accessible = true
	result.PageEstimate = textutil.PageOf(lines, sec.start)

	sectionLines := lines[sec.start:sec.end]
	result.RawContent = strings.TrimSpace(strings.Join(sectionLines, "\n"))

	scale := patterns.DetectScale(lines)
	breakdown, warns := p.extractBreakdown(sectionLines, scale)
	result.ICBreakdown = breakdown
	result.Warnings = append(result.Warnings, warns...)
	return result
}

// fuzzyFind scans forward for a bracketed numeral matching the note
// number and synthesises a section from that line to the next real
// header. Bare "(n)" also matches ordinary parenthetical numerals, so
// callers receive a warning alongside any fuzzy hit.
func (p *Parser) fuzzyFind(lines []string, sections []section, number string) *section {
	for i, line := range lines {
		for _, ref := range patterns.FuzzyNoteReferences(line) {
			if patterns.NormalizeNoteRef(ref) != number {
				continue
			}
			end := len(lines)
			for _, s := range sections {
				if s.start > i {
					end = s.start
					break
				}
			}
			return &section{number: number, start: i, end: end}
		}
	}
	return nil
}
