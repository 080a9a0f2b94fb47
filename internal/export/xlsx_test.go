package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bilancio/internal/core"
)

func sampleYear() core.YearSummary {
	y := core.YearSummary{Year: 2025}
	for m := time.January; m <= time.December; m++ {
		y.Months = append(y.Months, core.MonthSummary{
			Year:         2025,
			Month:        m,
			FixedIncome:  core.Cents(200000),
			FixedExpense: core.Cents(65000),
			ByCategory: []core.CategoryAmount{
				{CategoryID: "c1", Name: "Casa", Kind: core.KindExpense, Amount: core.Cents(65000)},
				{Name: "", Kind: core.KindIncome, Amount: core.Cents(200000)},
			},
		})
	}
	y.Months[3].VariableExpense = core.Cents(8050)
	y.Months[3].ByCategory = append(y.Months[3].ByCategory,
		core.CategoryAmount{CategoryID: "c2", Name: "Svago", Kind: core.KindExpense, Amount: core.Cents(8050)})
	return y
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestWriteYear(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYear(&buf, sampleYear()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"2025 Riepilogo", "2025 Categorie"}, f.GetSheetList())

	summary := SummarySheetName(2025)
	assert.Equal(t, "Mese", raw(t, f, summary, "A1"))
	assert.Equal(t, "Gennaio", raw(t, f, summary, "A2"))
	assert.Equal(t, "Aprile", raw(t, f, summary, "A5"))
	assert.Equal(t, "80.5", raw(t, f, summary, "E5"))
	assert.Equal(t, "1269.5", raw(t, f, summary, "H5"))
	assert.Equal(t, "Dicembre", raw(t, f, summary, "A13"))
	assert.Equal(t, "Totale", raw(t, f, summary, "A14"))
	assert.Equal(t, "24000", raw(t, f, summary, "B14"))
	assert.Equal(t, "16119.5", raw(t, f, summary, "H14"))

	categories := CategorySheetName(2025)
	rows, err := f.GetRows(categories, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Categoria", rows[0][0])
	assert.Equal(t, "Totale", rows[0][14])

	// incomes first, then expenses by name
	assert.Equal(t, []string{"Senza categoria", "Entrata"}, rows[1][:2])
	assert.Equal(t, "24000", rows[1][14])
	assert.Equal(t, []string{"Casa", "Uscita"}, rows[2][:2])
	assert.Equal(t, "7800", rows[2][14])
	assert.Equal(t, []string{"Svago", "Uscita"}, rows[3][:2])
	assert.Equal(t, "80.5", rows[3][5])
	assert.Equal(t, "80.5", rows[3][14])
}

func TestSaveYear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bilancio-2025.xlsx")
	require.NoError(t, SaveYear(path, sampleYear()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Totale", raw(t, f, SummarySheetName(2025), "A14"))
}

func TestBuildYear_InvalidMonth(t *testing.T) {
	y := core.YearSummary{Year: 2025, Months: []core.MonthSummary{{Year: 2025, Month: 13}}}
	_, err := BuildYear(y)
	assert.True(t, core.IsValidationError(err))
}

func TestBuildYear_EmptyYear(t *testing.T) {
	f, err := BuildYear(core.YearSummary{Year: 2026})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(CategorySheetName(2026))
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header")
}
