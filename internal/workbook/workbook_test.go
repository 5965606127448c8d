// =============================================================================
// Lab Discrepancy Reconciler - Workbook Model Tests
// =============================================================================

package workbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCellFloat(t *testing.T) {
	cases := []struct {
		name  string
		cell  string
		value float64
		ok    bool
	}{
		{"integer", "5", 5, true},
		{"decimal", "3.5", 3.5, true},
		{"negative", "-2", -2, true},
		{"padded", "  7  ", 7, true},
		{"scientific", "1e3", 1000, true},
		{"empty", "", 0, false},
		{"whitespace only", "   ", 0, false},
		{"text", "N/A", 0, false},
		{"nan literal", "NaN", 0, false},
		{"infinity literal", "Inf", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			value, ok := ParseCellFloat(tc.cell)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.value, value)
			}
		})
	}
}

func TestParseCellInt(t *testing.T) {
	t.Run("integers and truncation", func(t *testing.T) {
		cases := []struct {
			cell string
			want int64
		}{
			{"100", 100},
			{"600.0", 600},
			{"600.9", 600},
			{"-3.7", -3},
		}
		for _, tc := range cases {
			got, err := ParseCellInt(tc.cell)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		}
	})

	t.Run("non-numeric cells", func(t *testing.T) {
		for _, cell := range []string{"", "ABC123", "12-34"} {
			_, err := ParseCellInt(cell)

			var cellErr *CellIntError
			require.ErrorAs(t, err, &cellErr)
			assert.Equal(t, cell, cellErr.Cell)
		}
	})
}

func TestSheetCell(t *testing.T) {
	sheet := &Sheet{
		Name: "Week 32",
		Rows: [][]string{
			{"a", "b"},
			{"c"},
		},
	}

	assert.Equal(t, "a", sheet.Cell(0, 0))
	assert.Equal(t, "b", sheet.Cell(0, 1))

	// Short rows and out-of-range positions read as empty.
	assert.Equal(t, "", sheet.Cell(1, 1))
	assert.Equal(t, "", sheet.Cell(2, 0))
	assert.Equal(t, "", sheet.Cell(-1, 0))
	assert.Equal(t, "", sheet.Cell(0, -1))
}

func TestLatestSheet(t *testing.T) {
	wb := &Workbook{
		Sheets: []*Sheet{
			{Name: "Week 30"},
			{Name: "Week 31"},
			{Name: "Week 32"},
		},
	}
	require.NotNil(t, wb.LatestSheet())
	assert.Equal(t, "Week 32", wb.LatestSheet().Name)

	assert.Nil(t, (&Workbook{}).LatestSheet())
}
