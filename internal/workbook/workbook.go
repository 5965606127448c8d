// =============================================================================
// Lab Discrepancy Reconciler - Workbook Model
// =============================================================================
//
// This package owns all spreadsheet access for the reconciler. It reads an
// artifact into a plain in-memory grid model, locates the dynamically
// positioned header row of the latest sheet, resolves the semantic columns
// into a typed row view, and rewrites the artifact with confirmed rows
// marked.
//
// The file handle discipline matters here: Read loads every sheet and closes
// the underlying file before returning, so the rewriter never contends with
// a reader handle on the same path.
//
// =============================================================================

package workbook

import (
	"math"
	"strconv"
	"strings"
)

// UpdatedMarker is the literal written into the notes cell of a confirmed
// row, and the value (compared case-insensitively) that excludes a row from
// future reconciliation.
const UpdatedMarker = "updated"

// Required column labels, matched against lower-cased trimmed header cells.
const (
	LabelVendor    = "vendor bag count"
	LabelLab       = "lab bag count"
	LabelWorkorder = "workorder"
	LabelNotes     = "notes"
	LabelNote      = "note"
)

// =============================================================================
// GRID MODEL
// =============================================================================

// Workbook is one spreadsheet artifact loaded fully into memory.
type Workbook struct {
	// Path is the file the workbook was read from, and the path Rewrite
	// replaces.
	Path string

	// Sheets holds every sheet in file order.
	Sheets []*Sheet
}

// Sheet is an ordered grid of cell text. Trailing empty cells and rows are
// absent, matching what the underlying reader produces.
type Sheet struct {
	Name string
	Rows [][]string
}

// LatestSheet returns the last sheet in file order: the only sheet subject
// to header detection and discrepancy processing.
func (w *Workbook) LatestSheet() *Sheet {
	if len(w.Sheets) == 0 {
		return nil
	}
	return w.Sheets[len(w.Sheets)-1]
}

// Cell returns the cell text at the given row and column, or the empty
// string when the row is short or absent.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) {
		return ""
	}
	cells := s.Rows[row]
	if col < 0 || col >= len(cells) {
		return ""
	}
	return cells[col]
}

// =============================================================================
// CELL COERCION HELPERS
// =============================================================================

// ParseCellFloat interprets cell text as a number. Blank, unparsable, NaN,
// and infinite values all report false: such cells are "missing" and never
// participate in numeric comparisons.
func ParseCellFloat(cell string) (float64, bool) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// ParseCellInt interprets cell text as an integer identifier. Fractional
// values truncate toward zero, matching how spreadsheet-sourced numerics
// behave upstream.
func ParseCellInt(cell string) (int64, error) {
	value, ok := ParseCellFloat(cell)
	if !ok {
		return 0, &CellIntError{Cell: cell}
	}
	return int64(value), nil
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
