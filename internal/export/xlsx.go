// Package export renders year summaries as XLSX workbooks: a summary sheet
// with one row per month and a sheet breaking the year down by category.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"bilancio/internal/core"
	"bilancio/internal/sheets"
)

const (
	summarySheetBase  = "Riepilogo"
	categorySheetBase = "Categorie"
	uncategorized     = "Senza categoria"
	euroFormat        = `#,##0.00 "€";-#,##0.00 "€"`
)

// SummarySheetName returns the name of the month-by-month sheet for year.
func SummarySheetName(year int) string {
	return fmt.Sprintf("%d %s", year, summarySheetBase)
}

// CategorySheetName returns the name of the category breakdown sheet for year.
func CategorySheetName(year int) string {
	return fmt.Sprintf("%d %s", year, categorySheetBase)
}

// BuildYear lays out y in a new workbook. The caller must Close it.
func BuildYear(y core.YearSummary) (*excelize.File, error) {
	f := excelize.NewFile()

	summary := SummarySheetName(y.Year)
	if err := f.SetSheetName(f.GetSheetName(0), summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSummarySheet(f, summary, y); err != nil {
		f.Close()
		return nil, err
	}

	categories := CategorySheetName(y.Year)
	if _, err := f.NewSheet(categories); err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet %s: %w", categories, err)
	}
	if err := writeCategorySheet(f, categories, y); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteYear writes the workbook for y to w.
func WriteYear(w io.Writer, y core.YearSummary) error {
	f, err := BuildYear(y)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveYear writes the workbook for y to path.
func SaveYear(path string, y core.YearSummary) error {
	f, err := BuildYear(y)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, sheet string, y core.YearSummary) error {
	if err := f.SetSheetRow(sheet, "A1", &sheets.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range y.Months {
		if m.Month < time.January || m.Month > time.December {
			return core.ErrInvalidMonth
		}
		row := sheets.MonthRow(m)
		cell, _ := excelize.CoordinatesToCellName(1, int(m.Month)+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s: %w", m.Month, err)
		}
	}
	totals := sheets.TotalsRow(y)
	if err := f.SetSheetRow(sheet, "A14", &totals); err != nil {
		return fmt.Errorf("write totals: %w", err)
	}

	return styleSheet(f, sheet, len(sheets.Header), 14)
}

// categoryKey identifies a breakdown row; the same name may exist for
// both kinds.
type categoryKey struct {
	name string
	kind core.Kind
}

func writeCategorySheet(f *excelize.File, sheet string, y core.YearSummary) error {
	amounts := make(map[categoryKey]map[time.Month]core.Money)
	for _, m := range y.Months {
		for _, c := range m.ByCategory {
			name := c.Name
			if name == "" {
				name = uncategorized
			}
			key := categoryKey{name: name, kind: c.Kind}
			if amounts[key] == nil {
				amounts[key] = make(map[time.Month]core.Money)
			}
			amounts[key][m.Month] = amounts[key][m.Month].Add(c.Amount)
		}
	}

	keys := make([]categoryKey, 0, len(amounts))
	for k := range amounts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind == core.KindIncome
		}
		return keys[i].name < keys[j].name
	})

	header := []any{"Categoria", "Tipo"}
	for m := time.January; m <= time.December; m++ {
		header = append(header, sheets.MonthName(m))
	}
	header = append(header, sheets.TotalLabel)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write category header: %w", err)
	}

	for i, k := range keys {
		row := []any{k.name, kindLabel(k.kind)}
		var total core.Money
		for m := time.January; m <= time.December; m++ {
			amount := amounts[k][m]
			total = total.Add(amount)
			row = append(row, sheets.Euros(amount))
		}
		row = append(row, sheets.Euros(total))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write category %s: %w", k.name, err)
		}
	}

	return styleSheet(f, sheet, len(header), len(keys)+1)
}

func kindLabel(k core.Kind) string {
	if k == core.KindIncome {
		return "Entrata"
	}
	return "Uscita"
}

// styleSheet bolds the header row and applies the euro format to every
// numeric cell.
func styleSheet(f *excelize.File, sheet string, cols, rows int) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(cols)
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if rows < 2 {
		return nil
	}

	format := euroFormat
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}
	return f.SetCellStyle(sheet, "B2", fmt.Sprintf("%s%d", lastCol, rows), money)
}
