package patterns

import (
	"regexp"
	"strconv"
	"strings"
)

// AmountFormat names the numeric notation a token was matched with.
type AmountFormat string

const (
	FormatEuropeanDotted AmountFormat = "european_dotted" // 1.234.567,89
	FormatEuropeanSpaced AmountFormat = "european_spaced" // 1 234 567,89
	FormatUS             AmountFormat = "us"              // 1,234,567.89
	FormatPlain          AmountFormat = "plain"           // 1234567
)

// amountPatterns are tried in order; the separated formats must come
// before the plain fallback so "1.234.567" is not consumed digit-run by
// digit-run.
var amountPatterns = []struct {
	format AmountFormat
	re     *regexp.Regexp
}{
	{FormatEuropeanDotted, regexp.MustCompile(`-?\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?`)},
	{FormatEuropeanSpaced, regexp.MustCompile(`-?\d{1,3}(?:[ \x{00A0}]\d{3})+(?:,\d{1,2})?`)},
	{FormatUS, regexp.MustCompile(`-?\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?`)},
	{FormatPlain, regexp.MustCompile(`-?\d+(?:[.,]\d{1,2})?`)},
}

// AmountToken is a numeric token found on a line.
type AmountToken struct {
	Raw    string
	Value  float64
	Format AmountFormat
}

// FindAmount scans a line for the first token matching one of the
// amount formats and parses it. Tokens shaped like bare reference
// numbers rather than monetary amounts are rejected: 3-4 digit
// unseparated runs (statutory line numbers, note numbers) and 6-10
// digit unseparated runs (concatenated reference columns produced by
// PDF-to-text column collapsing). Note references ("Note 5", "(5)")
// are stripped first so a caption's note number is never read as its
// amount.
func FindAmount(line string) (AmountToken, bool) {
	line = noteRefExplicit.ReplaceAllString(line, " ")
	line = noteRefFuzzy.ReplaceAllString(line, " ")
	for _, p := range amountPatterns {
		for _, loc := range p.re.FindAllStringIndex(line, -1) {
			if !tokenIsolated(line, loc[0], loc[1]) {
				continue
			}
			raw := line[loc[0]:loc[1]]
			if p.format == FormatPlain &&
				(looksLikeReference(raw) || isListMarker(line, loc[0], loc[1]) || nearMonthName(line, loc[0], loc[1])) {
				continue
			}
			v, err := parseAmount(raw, p.format)
			if err != nil {
				continue
			}
			return AmountToken{Raw: raw, Value: v, Format: p.format}, true
		}
	}
	return AmountToken{}, false
}

// tokenIsolated rejects matches glued to surrounding text: a digit,
// letter, or separator directly before or after means the token is a
// fragment of a caption number, date, or identifier ("D.2.",
// "31.12.2023", "B123456"), not a free-standing amount.
func tokenIsolated(line string, start, end int) bool {
	if start > 0 {
		c := line[start-1]
		if c == '.' || c == ',' || isAlnum(c) {
			return false
		}
	}
	if end < len(line) {
		c := line[end]
		if c >= '0' && c <= '9' {
			return false
		}
		// A separator is only disqualifying when digits continue past
		// it; a sentence-final "1.234.567." stays valid.
		if (c == '.' || c == ',') && end+1 < len(line) && line[end+1] >= '0' && line[end+1] <= '9' {
			return false
		}
	}
	return true
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
	"janvier", "fevrier", "mars", "avril", "mai", "juin",
	"juillet", "aout", "septembre", "octobre", "novembre", "decembre",
}

// nearMonthName reports whether a month name sits next to the token;
// a bare digit run beside one is a date fragment ("as at 31 December
// 2023"), not an amount.
func nearMonthName(line string, start, end int) bool {
	lo := start - 12
	if lo < 0 {
		lo = 0
	}
	hi := end + 12
	if hi > len(line) {
		hi = len(line)
	}
	vicinity := Fold(line[lo:hi])
	for _, m := range monthNames {
		if strings.Contains(vicinity, m) {
			return true
		}
	}
	return false
}

// isListMarker reports whether a line-leading digit run is a caption
// ordinal ("2. Amounts owed by...", "10) Income from...") rather than
// an amount.
func isListMarker(line string, start, end int) bool {
	if strings.TrimSpace(line[:start]) != "" {
		return false
	}
	return end < len(line) && (line[end] == '.' || line[end] == ')')
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// looksLikeReference reports whether an unseparated digit run is more
// plausibly a line/page/reference number than an amount.
func looksLikeReference(raw string) bool {
	digits := strings.TrimPrefix(raw, "-")
	if strings.ContainsAny(digits, ".,") {
		return false
	}
	n := len(digits)
	return (n >= 3 && n <= 4) || (n >= 6 && n <= 10)
}

func parseAmount(raw string, format AmountFormat) (float64, error) {
	s := raw
	switch format {
	case FormatEuropeanDotted:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case FormatEuropeanSpaced:
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, " ", "")
		s = strings.ReplaceAll(s, ",", ".")
	case FormatUS:
		s = strings.ReplaceAll(s, ",", "")
	case FormatPlain:
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}

// scaleIndicators map document-level scale phrases to the multiplier
// applied to every extracted amount. Checked in declaration order;
// millions before thousands so "in millions" is not shadowed.
var scaleIndicators = []struct {
	phrase string
	factor float64
}{
	{"in millions", 1_000_000},
	{"en millions", 1_000_000},
	{"meur", 1_000_000},
	{"in thousands", 1_000},
	{"en milliers", 1_000},
	{"keur", 1_000},
	{"teur", 1_000},
}

// DetectScale returns the document-wide scale factor declared by a
// scale-indicator phrase, or 1 if none is present. Only the first 200
// lines are examined; the declaration sits in the statement header.
func DetectScale(lines []string) float64 {
	limit := len(lines)
	if limit > 200 {
		limit = 200
	}
	for i := 0; i < limit; i++ {
		folded := Fold(lines[i])
		for _, ind := range scaleIndicators {
			if strings.Contains(folded, ind.phrase) {
				return ind.factor
			}
		}
	}
	return 1
}

// Note-reference patterns. The explicit forms are used by the
// structured extractor when collecting references; the fuzzy bracketed
// forms are reserved for the note parser's fallback because bare "(5)"
// also matches ordinary parenthetical numerals.
var (
	noteRefExplicit = regexp.MustCompile(`(?i)\bnotes?\s*[ .:]?\s*(\d{1,2})\b`)
	noteRefFuzzy    = regexp.MustCompile(`[([](\d{1,2})[)\]]`)
)

// NoteReferences returns all explicit note numbers on a line, in order.
func NoteReferences(line string) []string {
	var refs []string
	for _, m := range noteRefExplicit.FindAllStringSubmatch(line, -1) {
		refs = append(refs, m[1])
	}
	return refs
}

// FuzzyNoteReferences returns bracketed numerals on a line that may be
// note references. Callers must treat these as low-confidence
// candidates. Values above 20 are dropped to limit collisions with page
// numbers.
func FuzzyNoteReferences(line string) []string {
	var refs []string
	for _, m := range noteRefFuzzy.FindAllStringSubmatch(line, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 20 {
			refs = append(refs, m[1])
		}
	}
	return refs
}

// NormalizeNoteRef canonicalises a note identifier: "Note 5", "(5)" and
// "05" all become "5".
func NormalizeNoteRef(ref string) string {
	s := strings.TrimSpace(ref)
	if m := noteRefExplicit.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.Trim(s, "()[] ")
	s = strings.TrimLeft(s, "0")
	if s == "" {
		s = "0"
	}
	return s
}
