package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/tpscan/internal/model"
	"github.com/sells-group/tpscan/internal/textutil"
)

// headerScanLimit bounds how deep into the document identity fields are
// searched; they sit on the cover and first statement pages.
const headerScanLimit = 150

var (
	rcsPattern = regexp.MustCompile(`(?i)R\.?\s?C\.?\s?S\.?\s*(?:Luxembourg)?\s*[:.]?\s*(B\s?\d{1,6})`)

	legalSuffixPattern = regexp.MustCompile(
		`(?i)^(.{2,80}?)\s*[,.]?\s*(S\.A\.|S\.\x{00e0}\s?r\.l\.|S\.a\s?r\.l\.|S\.C\.A\.|SARL|societe anonyme|soci\x{00e9}t\x{00e9} anonyme)\s*$`)

	fiscalYearPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:year ended|as at|au)\s+(31\s+(?:December|d\x{00e9}cembre|decembre)\s+\d{4})`),
		regexp.MustCompile(`(31\s+(?:December|d\x{00e9}cembre|decembre)\s+\d{4})`),
		regexp.MustCompile(`\b(\d{1,2}\.\d{1,2}\.\d{4})\b`),
	}

	currencyPattern = regexp.MustCompile(`(?i)(?:expressed in|exprim\x{00e9}s? en|in)\s+(EUR|USD|GBP|CHF)\b`)
	currencyBare    = regexp.MustCompile(`\b(EUR|USD|GBP|CHF)\b`)
)

// ExtractCompanyInfo pulls identity fields from the filing header:
// company name, RCS registry number, fiscal year end, and reporting
// currency. Fields that cannot be located stay empty; identity is
// advisory and never blocks extraction.
func (e *Extractor) ExtractCompanyInfo(text string) model.CompanyInfo {
	lines := textutil.SplitLines(text)
	limit := len(lines)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}

	var info model.CompanyInfo
	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if info.Name == "" {
			if m := legalSuffixPattern.FindStringSubmatch(line); m != nil {
				info.Name = strings.TrimSpace(m[1] + " " + canonicalSuffix(m[2]))
			}
		}
		if info.RegistryNumber == "" {
			if m := rcsPattern.FindStringSubmatch(line); m != nil {
				info.RegistryNumber = strings.ReplaceAll(m[1], " ", "")
			}
		}
		if info.FiscalYearEnd == "" {
			for _, p := range fiscalYearPatterns {
				if m := p.FindStringSubmatch(line); m != nil {
					info.FiscalYearEnd = m[1]
					break
				}
			}
		}
		if info.Currency == "" {
			if m := currencyPattern.FindStringSubmatch(line); m != nil {
				info.Currency = strings.ToUpper(m[1])
			}
		}
	}

	// Bare currency token as a last resort, still within the header.
	if info.Currency == "" {
		for i := 0; i < limit; i++ {
			if m := currencyBare.FindStringSubmatch(lines[i]); m != nil {
				info.Currency = strings.ToUpper(m[1])
				break
			}
		}
	}

	// Fallback name: first non-empty header line.
	if info.Name == "" {
		for i := 0; i < limit; i++ {
			if s := strings.TrimSpace(strings.Trim(lines[i], "\f")); s != "" {
				info.Name = s
				break
			}
		}
	}
	return info
}

// canonicalSuffix normalises the matched legal-form token.
func canonicalSuffix(s string) string {
	folded := strings.ToLower(s)
	switch {
	case strings.Contains(folded, "anonyme"):
		return "S.A."
	case strings.HasPrefix(folded, "s.c.a"):
		return "S.C.A."
	case strings.Contains(folded, "r.l") || folded == "sarl":
		return "S.à r.l."
	}
	return s
}
