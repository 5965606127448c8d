// =============================================================================
// Lab Discrepancy Reconciler - Workbook Errors
// =============================================================================

package workbook

import (
	"fmt"
	"strings"
)

// HeaderNotFoundError indicates that no row within the searched range of the
// latest sheet carried all required column labels.
type HeaderNotFoundError struct {
	// Sheet is the name of the sheet that was searched.
	Sheet string

	// RowsScanned is the number of leading rows that were examined.
	RowsScanned int
}

func (e *HeaderNotFoundError) Error() string {
	return fmt.Sprintf(
		"header row not found in sheet %q: searched first %d row(s) for columns %q, %q, %q",
		e.Sheet, e.RowsScanned, LabelVendor, LabelLab, LabelWorkorder,
	)
}

// MissingColumnsError indicates that the located header row lacks one or
// more required columns.
type MissingColumnsError struct {
	// Sheet is the name of the sheet the header belongs to.
	Sheet string

	// Missing lists the required column labels that could not be resolved.
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf(
		"required columns not found in sheet %q: missing %s",
		e.Sheet, strings.Join(e.Missing, ", "),
	)
}

// CellIntError indicates cell text that would not coerce to an integer.
type CellIntError struct {
	// Cell is the offending cell text.
	Cell string
}

func (e *CellIntError) Error() string {
	return fmt.Sprintf("cell value %q is not coercible to an integer", e.Cell)
}

// RewriteError indicates the corrected artifact could not be produced or
// saved.
type RewriteError struct {
	// Path is the artifact path the rewrite targeted.
	Path string

	// Err is the underlying cause.
	Err error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("failed to rewrite %q: %v", e.Path, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}
