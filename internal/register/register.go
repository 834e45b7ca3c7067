// Package register reads XLSX filing registers: batch input listing
// document text paths and company context, one filing per row.
package register

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tpscan/internal/model"
)

// Entry is one register row: the path to a filing's linearised text
// and its company context.
type Entry struct {
	Path    string
	Company model.CompanyContext
}

// Expected column order: path, name, registry number, total assets,
// total equity, currency. The first row is a header and is skipped.
const minColumns = 2

// Read parses a filing register workbook. Rows with an empty path are
// skipped; numeric columns tolerate empty cells.
func Read(path string) ([]Entry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "register: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("register: workbook has no sheets")
	}

	var entries []Entry
	for i, row := range f.Sheets[0].Rows {
		if i == 0 {
			continue // header
		}
		cells := rowToStrings(row)
		if len(cells) < minColumns || strings.TrimSpace(cells[0]) == "" {
			continue
		}

		entry := Entry{Path: strings.TrimSpace(cells[0])}
		entry.Company.Name = cellAt(cells, 1)
		entry.Company.RegistryNumber = cellAt(cells, 2)
		entry.Company.TotalAssets = floatAt(cells, 3)
		entry.Company.TotalEquity = floatAt(cells, 4)
		entry.Company.Currency = cellAt(cells, 5)
		entries = append(entries, entry)
	}
	return entries, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		cells[i] = c.String()
	}
	return cells
}

func cellAt(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func floatAt(cells []string, i int) float64 {
	s := cellAt(cells, i)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
