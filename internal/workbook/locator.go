// =============================================================================
// Lab Discrepancy Reconciler - Header Locator and Row View
// =============================================================================
//
// The discrepancy reports carry an irregular leading region (report titles,
// blank spacer rows) above the real header of the latest sheet, and its
// position moves between deliveries. LocateHeader finds the true header row;
// NewRowView then resolves the semantic columns once and exposes typed
// accessors so the rest of the pipeline never does stringly-typed lookups.
//
// =============================================================================

package workbook

import (
	"strings"
)

// requiredLabels are the column labels a row must carry to qualify as the
// header row.
var requiredLabels = []string{LabelVendor, LabelLab, LabelWorkorder}

// =============================================================================
// HEADER LOCATOR
// =============================================================================

// LocateHeader scans the first scanLimit rows of a sheet for the header row.
//
// A row qualifies when its cell values, lower-cased and trimmed, include all
// of the required column labels. The first qualifying row wins.
//
// PARAMETERS:
//   - sheet: The sheet to scan (read with no header assumption).
//   - scanLimit: The maximum number of leading rows to examine.
//
// RETURNS:
//   - The zero-based index of the header row.
//   - A *HeaderNotFoundError if no row within the range qualifies.
func LocateHeader(sheet *Sheet, scanLimit int) (int, error) {
	limit := scanLimit
	if len(sheet.Rows) < limit {
		limit = len(sheet.Rows)
	}

	for i := 0; i < limit; i++ {
		row := sheet.Rows[i]

		// Skip empty rows.
		if len(row) == 0 || isRowEmpty(row) {
			continue
		}

		if rowHasHeaderLabels(row) {
			return i, nil
		}
	}

	return -1, &HeaderNotFoundError{Sheet: sheet.Name, RowsScanned: limit}
}

// rowHasHeaderLabels checks whether a row carries every required label.
func rowHasHeaderLabels(row []string) bool {
	normalized := make(map[string]bool, len(row))
	for _, cell := range row {
		normalized[strings.ToLower(strings.TrimSpace(cell))] = true
	}

	for _, label := range requiredLabels {
		if !normalized[label] {
			return false
		}
	}
	return true
}

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// resolveColumn finds the first column whose header matches the wanted label
// case-insensitively. Returns -1 when no column matches.
func resolveColumn(headers []string, label string) int {
	for i, header := range headers {
		if strings.EqualFold(header, label) {
			return i
		}
	}
	return -1
}

// =============================================================================
// ROW VIEW
// =============================================================================

// RowView is the typed view over the data region of the latest sheet. It is
// built once per artifact and carries the resolved column positions, so row
// access is positional from then on.
type RowView struct {
	sheet       *Sheet
	headerIndex int

	// headers holds the header cells with surrounding whitespace stripped.
	headers []string

	vendorCol    int
	labCol       int
	workorderCol int

	// notesCol is -1 when the sheet has no notes column; every row then
	// reads as an empty note and the rewriter synthesizes the column.
	notesCol int
}

// NewRowView resolves the semantic columns of a sheet given its header row
// index.
//
// The three count/identifier columns are mandatory; their absence returns a
// *MissingColumnsError naming the absentees. The notes column is optional
// and falls back to the singular "note" alias before degrading to a
// synthetic empty column.
func NewRowView(sheet *Sheet, headerIndex int) (*RowView, error) {
	headerRow := []string{}
	if headerIndex >= 0 && headerIndex < len(sheet.Rows) {
		headerRow = sheet.Rows[headerIndex]
	}

	headers := make([]string, len(headerRow))
	for i, cell := range headerRow {
		headers[i] = strings.TrimSpace(cell)
	}

	view := &RowView{
		sheet:        sheet,
		headerIndex:  headerIndex,
		headers:      headers,
		vendorCol:    resolveColumn(headers, LabelVendor),
		labCol:       resolveColumn(headers, LabelLab),
		workorderCol: resolveColumn(headers, LabelWorkorder),
		notesCol:     resolveColumn(headers, LabelNotes),
	}

	if view.notesCol < 0 {
		view.notesCol = resolveColumn(headers, LabelNote)
	}

	var missing []string
	if view.vendorCol < 0 {
		missing = append(missing, LabelVendor)
	}
	if view.labCol < 0 {
		missing = append(missing, LabelLab)
	}
	if view.workorderCol < 0 {
		missing = append(missing, LabelWorkorder)
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Sheet: sheet.Name, Missing: missing}
	}

	return view, nil
}

// SheetName returns the name of the viewed sheet.
func (v *RowView) SheetName() string {
	return v.sheet.Name
}

// HeaderIndex returns the zero-based index of the header row within the
// sheet grid.
func (v *RowView) HeaderIndex() int {
	return v.headerIndex
}

// Headers returns the trimmed header cells.
func (v *RowView) Headers() []string {
	return v.headers
}

// HasNotes reports whether the sheet carries a real notes column.
func (v *RowView) HasNotes() bool {
	return v.notesCol >= 0
}

// Len returns the number of data rows below the header.
func (v *RowView) Len() int {
	n := len(v.sheet.Rows) - v.headerIndex - 1
	if n < 0 {
		return 0
	}
	return n
}

// cell reads a data-region cell by data row index and column.
func (v *RowView) cell(row, col int) string {
	if col < 0 {
		return ""
	}
	return v.sheet.Cell(v.headerIndex+1+row, col)
}

// Vendor returns the vendor bag count of a data row, with ok=false when the
// cell is missing or not numeric.
func (v *RowView) Vendor(row int) (float64, bool) {
	return ParseCellFloat(v.cell(row, v.vendorCol))
}

// Lab returns the lab bag count of a data row, with ok=false when the cell
// is missing or not numeric.
func (v *RowView) Lab(row int) (float64, bool) {
	return ParseCellFloat(v.cell(row, v.labCol))
}

// WorkorderCell returns the raw workorder cell text of a data row.
func (v *RowView) WorkorderCell(row int) string {
	return v.cell(row, v.workorderCol)
}

// HasWorkorder reports whether a data row carries a non-missing workorder
// value. Any non-empty cell counts, numeric or not.
func (v *RowView) HasWorkorder(row int) bool {
	return v.cell(row, v.workorderCol) != ""
}

// Notes returns the notes cell text of a data row. Sheets without a notes
// column read as empty for every row.
func (v *RowView) Notes(row int) string {
	if v.notesCol < 0 {
		return ""
	}
	return v.cell(row, v.notesCol)
}
