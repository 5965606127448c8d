// =============================================================================
// Lab Discrepancy Reconciler - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - reconcile
//   - store
//   - notify
//   - cmd
//
// =============================================================================

package types

import "time"

// =============================================================================
// UPDATE SUBMISSION
// =============================================================================

// UpdatePair is one pending database correction: the workorder to match and
// the lab bag count to write. Pairs are submitted in sheet row order.
type UpdatePair struct {
	// Workorder is the business workorder identifier.
	Workorder int64

	// LabCount is the corrected bag count taken from the lab column.
	LabCount int64
}

// =============================================================================
// RUN STATISTICS
// =============================================================================

// RunStatistics holds the derived numbers for one reconciled spreadsheet.
type RunStatistics struct {
	// TotalWorkorders is the number of rows with a non-missing workorder cell,
	// independent of whether the row is a discrepancy.
	TotalWorkorders int

	// DiscrepancyCount is the number of rows flagged as unresolved
	// discrepancies (vendor count below lab count, not yet marked updated).
	DiscrepancyCount int

	// SuccessfulUpdates is the number of workorders the database confirmed
	// as changed.
	SuccessfulUpdates int
}

// Remaining is the figure reported downstream. It is counted against the
// total workorder count, not the discrepancy count.
func (s RunStatistics) Remaining() int {
	return s.TotalWorkorders - s.SuccessfulUpdates
}

// =============================================================================
// ARTIFACT RESULT
// =============================================================================

// ArtifactResult represents the outcome of reconciling a single spreadsheet.
type ArtifactResult struct {
	// ArtifactPath is the path the spreadsheet was discovered at.
	ArtifactPath string

	// SheetName is the resolved latest sheet that was reconciled.
	SheetName string

	// FinalPath is where the lifecycle left the file (completed or error
	// directory). Empty if the file was never relocated.
	FinalPath string

	// Success indicates whether processing completed without a fatal error.
	Success bool

	// Error contains the error if processing failed. Nil on success.
	Error error

	// Stats contains the reconciliation statistics for the latest sheet.
	Stats RunStatistics

	// SkippedRows is the number of discrepancy rows dropped from database
	// submission because workorder or lab count would not coerce to integers.
	SkippedRows int

	// Rewritten reports whether the spreadsheet was rewritten. False when no
	// database row was confirmed, in which case the file is left as read.
	Rewritten bool

	// Duration is the time taken to process the file.
	Duration time.Duration
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary aggregates the outcome of one full pass over the incoming
// directory.
type RunSummary struct {
	// RunID uniquely identifies this pass in logs and summary files.
	RunID string

	StartTime time.Time
	EndTime   time.Time

	// TotalFiles is the number of spreadsheets in the incoming snapshot.
	TotalFiles int

	// Succeeded and Failed partition TotalFiles by outcome.
	Succeeded int
	Failed    int

	// Results holds the per-artifact outcomes in processing order.
	Results []ArtifactResult
}
