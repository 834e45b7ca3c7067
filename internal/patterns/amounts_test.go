package patterns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAmount_EuropeanDotted(t *testing.T) {
	tok, ok := FindAmount("Créances sur des entreprises liées  517.400.000")
	require.True(t, ok)
	assert.Equal(t, 517_400_000.0, tok.Value)
	assert.Equal(t, FormatEuropeanDotted, tok.Format)
}

func TestFindAmount_EuropeanDottedWithDecimals(t *testing.T) {
	tok, ok := FindAmount("Total  1.234.567,89")
	require.True(t, ok)
	assert.InDelta(t, 1_234_567.89, tok.Value, 0.001)
}

func TestFindAmount_EuropeanSpaced(t *testing.T) {
	tok, ok := FindAmount("Dettes envers des entreprises liées 310 900 000")
	require.True(t, ok)
	assert.Equal(t, 310_900_000.0, tok.Value)
	assert.Equal(t, FormatEuropeanSpaced, tok.Format)
}

func TestFindAmount_US(t *testing.T) {
	tok, ok := FindAmount("Amounts owed by affiliated undertakings 36,600,000")
	require.True(t, ok)
	assert.Equal(t, 36_600_000.0, tok.Value)
	assert.Equal(t, FormatUS, tok.Format)
}

func TestFindAmount_Negative(t *testing.T) {
	tok, ok := FindAmount("Interest payable  -378.700.000")
	require.True(t, ok)
	assert.Equal(t, -378_700_000.0, tok.Value)
}

func TestFindAmount_PlainSmallInteger(t *testing.T) {
	// Two digits: a plausible amount in a scaled document.
	tok, ok := FindAmount("Chiffre d'affaires net 42")
	require.True(t, ok)
	assert.Equal(t, 42.0, tok.Value)
	assert.Equal(t, FormatPlain, tok.Format)
}

func TestFindAmount_RejectsReferenceRuns(t *testing.T) {
	// 3-4 digit unseparated runs are statutory line numbers; 6-10 digit
	// runs are collapsed reference columns. Neither is an amount.
	for _, line := range []string{
		"D.2. Amounts owed by affiliated undertakings 1431",
		"Caption 142",
		"ref 20231456",
	} {
		_, ok := FindAmount(line)
		assert.False(t, ok, "line %q should yield no amount", line)
	}
}

func TestFindAmount_SeparatedBeatsReferenceShape(t *testing.T) {
	// Thousands separators mark a real amount even at reference length.
	tok, ok := FindAmount("Amounts owed to affiliated undertakings 1.431")
	require.True(t, ok)
	assert.Equal(t, 1431.0, tok.Value)
}

func TestFindAmount_IgnoresNoteReferences(t *testing.T) {
	// The note number on a caption line must never be read as its amount.
	_, ok := FindAmount("C. Financial assets (Note 5)")
	assert.False(t, ok)

	tok, ok := FindAmount("Shares in affiliated undertakings (Note 5)  14.000.000")
	require.True(t, ok)
	assert.Equal(t, 14_000_000.0, tok.Value)
}

func TestFindAmount_IgnoresCaptionOrdinals(t *testing.T) {
	_, ok := FindAmount("2. Amounts owed by affiliated undertakings")
	assert.False(t, ok)

	_, ok = FindAmount("10) Income from participating interests")
	assert.False(t, ok)

	// The ordinal does not shadow a real amount on the same line.
	tok, ok := FindAmount("2. Amounts owed by affiliated undertakings  517.400.000")
	require.True(t, ok)
	assert.Equal(t, 517_400_000.0, tok.Value)
}

func TestFindAmount_IgnoresDateFragments(t *testing.T) {
	_, ok := FindAmount("as at 31 December 2023")
	assert.False(t, ok)

	_, ok = FindAmount("exercice clos au 31 décembre 2023")
	assert.False(t, ok)

	tok, ok := FindAmount("Balance as at 31 December 2023: 950.000.000")
	require.True(t, ok)
	assert.Equal(t, 950_000_000.0, tok.Value)
}

func TestFindAmount_NoDigits(t *testing.T) {
	_, ok := FindAmount("Notes to the annual accounts")
	assert.False(t, ok)
}

func TestDetectScale(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   float64
	}{
		{"thousands_en", "(expressed in thousands of EUR)", 1000},
		{"thousands_fr", "exprimé en milliers d'euros", 1000},
		{"keur", "Amounts in kEUR", 1000},
		{"millions_en", "in millions of EUR", 1_000_000},
		{"millions_fr", "en millions d'euros", 1_000_000},
		{"none", "Annual accounts as at 31 December 2023", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := []string{"SOME HOLDCO S.A.", tt.header, "Balance sheet"}
			assert.Equal(t, tt.want, DetectScale(lines))
		})
	}
}

func TestDetectScale_IgnoresBodyBeyondHeader(t *testing.T) {
	lines := make([]string, 300)
	lines[250] = "in thousands of EUR"
	assert.Equal(t, 1.0, DetectScale(lines))
}

func TestNoteReferences(t *testing.T) {
	refs := NoteReferences("Amounts owed by affiliated undertakings (Note 5 and Note 12)")
	assert.Equal(t, []string{"5", "12"}, refs)

	assert.Empty(t, NoteReferences("no references here"))
}

func TestFuzzyNoteReferences(t *testing.T) {
	refs := FuzzyNoteReferences("Financial assets (5) and (12)")
	assert.Equal(t, []string{"5", "12"}, refs)

	// Values above 20 collide with page numbers and are dropped.
	assert.Empty(t, FuzzyNoteReferences("see page (42)"))
}

func TestNormalizeNoteRef(t *testing.T) {
	for in, want := range map[string]string{
		"Note 5": "5",
		"(5)":    "5",
		"[12]":   "12",
		"05":     "5",
		" 7 ":    "7",
	} {
		assert.Equal(t, want, NormalizeNoteRef(in), "input %q", in)
	}
}
