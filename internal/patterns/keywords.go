package patterns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Taxonomy splits the intercompany vocabulary into primary keywords
// (conclusive on their own) and secondary keywords (contextual, only
// conclusive with primary vocabulary nearby).
type Taxonomy struct {
	Primary   []string
	Secondary []string
}

var defaultTaxonomy = Taxonomy{
	Primary: []string{
		"affiliated undertakings",
		"affiliated undertaking",
		"affiliated companies",
		"entreprises liees",
		"entreprise liee",
		"subsidiary",
		"subsidiaries",
		"parent company",
		"group companies",
		"societe mere",
		"filiale",
	},
	Secondary: []string{
		"derived from",
		"concerning",
		"owed to",
		"owed by",
		"provenant",
		"concernant",
		"envers des",
	},
}

// MatchPrimary returns the first primary keyword present in the folded
// line, or "" if none.
func (t Taxonomy) MatchPrimary(line string) string {
	folded := Fold(line)
	for _, kw := range t.Primary {
		if strings.Contains(folded, kw) {
			return kw
		}
	}
	return ""
}

// MatchSecondary returns the first secondary keyword present in the
// folded line, or "" if none.
func (t Taxonomy) MatchSecondary(line string) string {
	folded := Fold(line)
	for _, kw := range t.Secondary {
		if strings.Contains(folded, kw) {
			return kw
		}
	}
	return ""
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips diacritics so that keyword matching
// survives the accent mangling common in PDF-extracted French text
// ("entreprises liées" vs "entreprises liees").
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// ContainsKeyword reports whether the folded line contains the folded
// keyword. Keywords in the library are stored pre-folded.
func ContainsKeyword(line, keyword string) bool {
	return strings.Contains(Fold(line), keyword)
}
