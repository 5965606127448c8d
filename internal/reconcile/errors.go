// =============================================================================
// Lab Discrepancy Reconciler - Reconciliation Errors
// =============================================================================

package reconcile

import "fmt"

// RowCoercionError reports a discrepancy row dropped from database
// submission because its workorder would not coerce to an integer. The row
// still counts toward the discrepancy statistics; only the submission set
// loses it.
type RowCoercionError struct {
	// Row is the zero-based data row index within the latest sheet.
	Row int

	// Workorder is the raw workorder cell text.
	Workorder string

	// Lab is the parsed lab bag count of the row.
	Lab float64

	// Err is the underlying cell coercion failure.
	Err error
}

func (e *RowCoercionError) Error() string {
	return fmt.Sprintf(
		"row %d dropped from submission: workorder %q / lab count %v: %v",
		e.Row, e.Workorder, e.Lab, e.Err,
	)
}

func (e *RowCoercionError) Unwrap() error {
	return e.Err
}
