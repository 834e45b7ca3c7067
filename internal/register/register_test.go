package register

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeRegister(t *testing.T, rows [][]string) string {
	t.Helper()

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("filings")
	require.NoError(t, err)

	for _, row := range rows {
		r := sheet.AddRow()
		for _, cell := range row {
			r.AddCell().SetString(cell)
		}
	}

	path := filepath.Join(t.TempDir(), "register.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestRead(t *testing.T) {
	path := writeRegister(t, [][]string{
		{"path", "name", "rcs", "total_assets", "total_equity", "currency"},
		{"filings/holdco.txt", "Holdco Luxembourg S.A.", "B123456", "950000000", "120000000", "EUR"},
		{"filings/beta.txt", "Beta Finance S.à r.l.", "B55555", "", "", ""},
	})

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	first := entries[0]
	assert.Equal(t, "filings/holdco.txt", first.Path)
	assert.Equal(t, "Holdco Luxembourg S.A.", first.Company.Name)
	assert.Equal(t, "B123456", first.Company.RegistryNumber)
	assert.Equal(t, 950_000_000.0, first.Company.TotalAssets)
	assert.Equal(t, 120_000_000.0, first.Company.TotalEquity)
	assert.Equal(t, "EUR", first.Company.Currency)

	// Missing numeric cells stay zero.
	assert.Zero(t, entries[1].Company.TotalAssets)
}

func TestRead_SkipsBlankPaths(t *testing.T) {
	path := writeRegister(t, [][]string{
		{"path", "name"},
		{"", "No Path S.A."},
		{"filings/ok.txt", "Ok S.A."},
	})

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "filings/ok.txt", entries[0].Path)
}

func TestRead_ThousandsSeparatedNumbers(t *testing.T) {
	path := writeRegister(t, [][]string{
		{"path", "name", "rcs", "total_assets"},
		{"filings/x.txt", "X S.A.", "B1", "1,250,000"},
	})

	entries, err := Read(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1_250_000.0, entries[0].Company.TotalAssets)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.xlsx"))
	assert.Error(t, err)
}
