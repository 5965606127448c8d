// =============================================================================
// Lab Discrepancy Reconciler - Store Errors
// =============================================================================

package store

import "fmt"

// TransactionError indicates the update transaction failed and was rolled
// back. No workorder is confirmed when this error is returned: the caller
// must not mark any spreadsheet row as updated.
type TransactionError struct {
	// Workorder is the identifier whose statement failed, or zero when the
	// failure was not tied to a single statement (begin/commit).
	Workorder int64

	// Stage names the transaction phase that failed: "begin", "update",
	// "rows-affected", or "commit".
	Stage string

	// Err is the underlying database error.
	Err error
}

func (e *TransactionError) Error() string {
	if e.Workorder != 0 {
		return fmt.Sprintf("update transaction failed at %s for workorder %d: %v", e.Stage, e.Workorder, e.Err)
	}
	return fmt.Sprintf("update transaction failed at %s: %v", e.Stage, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}
