// Package textutil provides shared line-level helpers over linearised
// document text.
package textutil

import "strings"

// linesPerPage is the fallback page-size heuristic when the
// PDF-to-text pass emitted no form feeds.
const linesPerPage = 60

// SplitLines normalises line endings and splits the document text.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// PageOf estimates the 1-based page of a line index. Form feeds are
// authoritative when present; otherwise a fixed lines-per-page
// heuristic applies.
func PageOf(lines []string, idx int) int {
	feeds := 0
	sawFeed := false
	for i := 0; i < len(lines) && i <= idx; i++ {
		if strings.Contains(lines[i], "\f") {
			feeds++
			sawFeed = true
		}
	}
	if sawFeed {
		return feeds + 1
	}
	if idx < 0 {
		return 1
	}
	return idx/linesPerPage + 1
}

// ContextAround returns the trimmed non-empty lines in [from, to]
// joined with a separator, for provenance context fields.
func ContextAround(lines []string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to >= len(lines) {
		to = len(lines) - 1
	}
	var parts []string
	for i := from; i <= to; i++ {
		if s := strings.TrimSpace(lines[i]); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " | ")
}
