// =============================================================================
// Lab Discrepancy Reconciler - Workbook Reader Tests
// =============================================================================

package workbook

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// sheetFixture describes one sheet of a test workbook.
type sheetFixture struct {
	name string
	rows [][]interface{}
}

// writeTestWorkbook saves a workbook with the given sheets in order.
func writeTestWorkbook(t *testing.T, path string, sheets []sheetFixture) {
	t.Helper()
	require.NotEmpty(t, sheets)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", sheets[0].name))

	for i, fixture := range sheets {
		if i > 0 {
			_, err := f.NewSheet(fixture.name)
			require.NoError(t, err)
		}
		for r, row := range fixture.rows {
			if len(row) == 0 {
				continue
			}
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			rowCopy := row
			require.NoError(t, f.SetSheetRow(fixture.name, cellRef, &rowCopy))
		}
	}

	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestReadPreservesSheetOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.xlsx")
	writeTestWorkbook(t, path, []sheetFixture{
		{"Week 30", [][]interface{}{{"old"}}},
		{"Week 31", [][]interface{}{{"older"}}},
		{"Week 32", [][]interface{}{
			{"WORKORDER", "VENDOR BAG COUNT", "LAB BAG COUNT", "NOTES"},
			{100, 3, 5, ""},
		}},
	})

	wb, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, path, wb.Path)
	require.Len(t, wb.Sheets, 3)
	assert.Equal(t, "Week 30", wb.Sheets[0].Name)
	assert.Equal(t, "Week 31", wb.Sheets[1].Name)
	assert.Equal(t, "Week 32", wb.Sheets[2].Name)
	assert.Equal(t, "Week 32", wb.LatestSheet().Name)

	// Cells come back as text, numerics included.
	latest := wb.LatestSheet()
	assert.Equal(t, "WORKORDER", latest.Cell(0, 0))
	assert.Equal(t, "100", latest.Cell(1, 0))
	assert.Equal(t, "5", latest.Cell(1, 2))
}

func TestReadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Read(filepath.Join(t.TempDir(), "absent.xlsx"))
		assert.Error(t, err)
	})

	t.Run("not a spreadsheet", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fake.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

		_, err := Read(path)
		assert.Error(t, err)
	})
}

func TestReadReleasesTheFileHandle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.xlsx")
	writeTestWorkbook(t, path, []sheetFixture{
		{"Week 32", [][]interface{}{{"WORKORDER", "VENDOR BAG COUNT", "LAB BAG COUNT"}}},
	})

	_, err := Read(path)
	require.NoError(t, err)

	// The path must be replaceable immediately after a read.
	out := excelize.NewFile()
	require.NoError(t, out.SaveAs(path))
	require.NoError(t, out.Close())
}
