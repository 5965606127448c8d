// =============================================================================
// Lab Discrepancy Reconciler - Workbook Reader
// =============================================================================
//
// Read loads an artifact into the in-memory grid model. Everything is read
// up front and the file handle is closed before Read returns, so callers are
// free to rewrite the same path afterwards without a locking conflict.
//
// =============================================================================

package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Read opens a spreadsheet file and loads every sheet in file order.
//
// PARAMETERS:
//   - path: The path to the spreadsheet file.
//
// RETURNS:
//   - A pointer to the fully loaded Workbook. The underlying file handle is
//     already closed.
//   - An error if the file cannot be opened or any sheet cannot be read.
func Read(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	workbook := &Workbook{Path: path}

	var readErr error
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			readErr = fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
			break
		}
		workbook.Sheets = append(workbook.Sheets, &Sheet{Name: sheetName, Rows: rows})
	}

	// Close before returning so the rewriter never races a reader handle.
	if closeErr := f.Close(); closeErr != nil && readErr == nil {
		readErr = fmt.Errorf("failed to close spreadsheet: %w", closeErr)
	}

	if readErr != nil {
		return nil, readErr
	}

	if len(workbook.Sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	return workbook, nil
}
