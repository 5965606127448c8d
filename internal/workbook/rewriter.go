// =============================================================================
// Lab Discrepancy Reconciler - Workbook Rewriter
// =============================================================================
//
// Rewrite replaces the artifact on disk with a corrected copy: the latest
// sheet gets its confirmed rows marked in the notes column, every other
// sheet is re-emitted from its raw grid, sheet order is preserved, and the
// workbook opens on the last sheet.
//
// The caller decides whether to rewrite at all: when no row was confirmed
// the file must stay byte-for-byte as read, so Rewrite is simply not called.
//
// =============================================================================

package workbook

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// syntheticNotesHeader is the column header created when the latest sheet
// has no notes column of its own.
const syntheticNotesHeader = "NOTES"

// Rewrite writes the corrected artifact over the workbook's source path.
//
// PARAMETERS:
//   - wb: The fully loaded workbook (its reader handle is already closed).
//   - view: The typed row view over the latest sheet.
//   - confirmed: The set of workorder IDs the store confirmed as updated.
//     Rows whose coerced workorder is in this set get their notes cell set
//     to the updated marker; all other cells are re-emitted as read.
//
// RETURNS:
//   - A *RewriteError if the corrected artifact cannot be produced or saved.
func Rewrite(wb *Workbook, view *RowView, confirmed map[int64]bool) error {
	out := excelize.NewFile()
	defer out.Close()

	latest := wb.LatestSheet()
	defaultName := out.GetSheetName(0)

	for i, sheet := range wb.Sheets {
		// The new workbook starts with one default sheet; rename it for the
		// first emitted sheet and create the rest.
		if i == 0 {
			if sheet.Name != defaultName {
				if err := out.SetSheetName(defaultName, sheet.Name); err != nil {
					return &RewriteError{Path: wb.Path, Err: fmt.Errorf("failed to name sheet %q: %w", sheet.Name, err)}
				}
			}
		} else {
			if _, err := out.NewSheet(sheet.Name); err != nil {
				return &RewriteError{Path: wb.Path, Err: fmt.Errorf("failed to create sheet %q: %w", sheet.Name, err)}
			}
		}

		var err error
		if sheet == latest {
			err = emitLatestSheet(out, sheet.Name, view, confirmed)
		} else {
			err = emitRawSheet(out, sheet.Name, sheet.Rows)
		}
		if err != nil {
			return &RewriteError{Path: wb.Path, Err: err}
		}
	}

	// The workbook opens on the latest sheet.
	lastIndex, err := out.GetSheetIndex(latest.Name)
	if err != nil {
		return &RewriteError{Path: wb.Path, Err: fmt.Errorf("failed to resolve sheet %q: %w", latest.Name, err)}
	}
	out.SetActiveSheet(lastIndex)

	if err := out.SaveAs(wb.Path); err != nil {
		return &RewriteError{Path: wb.Path, Err: err}
	}

	return nil
}

// emitRawSheet re-emits a sheet grid unchanged.
func emitRawSheet(out *excelize.File, sheetName string, rows [][]string) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}

		values := make([]interface{}, len(row))
		for col, cell := range row {
			values[col] = cellValue(cell)
		}

		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := out.SetSheetRow(sheetName, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return nil
}

// emitLatestSheet re-emits the reconciled sheet: cleaned header row first,
// then the data rows with confirmed rows marked. The irregular leading
// region above the header is dropped.
func emitLatestSheet(out *excelize.File, sheetName string, view *RowView, confirmed map[int64]bool) error {
	headers := view.Headers()
	notesCol := view.notesCol

	headerOut := make([]interface{}, len(headers), len(headers)+1)
	for i, header := range headers {
		headerOut[i] = header
	}
	if notesCol < 0 {
		notesCol = len(headers)
		headerOut = append(headerOut, syntheticNotesHeader)
	}

	if err := out.SetSheetRow(sheetName, "A1", &headerOut); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	width := len(headerOut)
	for i := 0; i < view.Len(); i++ {
		marked := false
		if id, err := ParseCellInt(view.WorkorderCell(i)); err == nil && confirmed[id] {
			marked = true
		}

		values := make([]interface{}, width)
		for col := 0; col < width; col++ {
			switch {
			case col == notesCol && marked:
				values[col] = UpdatedMarker
			case col == notesCol:
				values[col] = cellValue(view.Notes(i))
			default:
				values[col] = cellValue(view.cell(i, col))
			}
		}

		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address data row %d: %w", i+1, err)
		}
		if err := out.SetSheetRow(sheetName, cellRef, &values); err != nil {
			return fmt.Errorf("failed to write data row %d: %w", i+1, err)
		}
	}

	return nil
}

// cellValue picks the output representation of a cell. Numeric cell text is
// re-emitted as a number only when the round trip is lossless, so values
// like "007" or "3.50" keep their exact text.
func cellValue(cell string) interface{} {
	if cell == "" {
		return nil
	}
	value, ok := ParseCellFloat(cell)
	if !ok {
		return cell
	}
	if strconv.FormatFloat(value, 'f', -1, 64) != cell {
		return cell
	}
	return value
}
