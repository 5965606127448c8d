// =============================================================================
// Lab Discrepancy Reconciler - Discrepancy Selector
// =============================================================================
//
// Select derives the working row-set for one artifact from the typed row
// view: which rows are unresolved discrepancies, which of those can actually
// be submitted to the database, and the headline statistics.
//
// The selection rules mirror how the reports are filled in by hand:
//   - A row is a discrepancy when the vendor counted fewer bags than the
//     lab. Cells that don't parse as numbers never qualify.
//   - Rows already annotated "updated" (any casing) were handled by a
//     previous run and are left alone, which is what makes reprocessing the
//     same artifact idempotent.
//   - A discrepancy whose workorder won't coerce to an integer cannot be
//     submitted; it stays in the statistics so the report still shows it.
//
// =============================================================================

package reconcile

import (
	"strings"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/workbook"
)

// Candidate is one unresolved discrepancy row of the latest sheet.
type Candidate struct {
	// Row is the zero-based data row index within the latest sheet.
	Row int

	// WorkorderCell is the raw workorder cell text.
	WorkorderCell string

	// Vendor and Lab are the parsed bag counts.
	Vendor float64
	Lab    float64
}

// Selection is the derived working set for one artifact.
type Selection struct {
	// Stats carries the row census. SuccessfulUpdates stays zero until the
	// store has confirmed updates.
	Stats types.RunStatistics

	// Candidates are the discrepancy rows in sheet order.
	Candidates []Candidate

	// Pairs is the database submission set: the candidates whose workorder
	// coerced to an integer, in the same order.
	Pairs []types.UpdatePair

	// Skipped records the candidates dropped from the submission set.
	Skipped []*RowCoercionError
}

// Select walks every data row of the view and produces the selection.
//
// PARAMETERS:
//   - view: The typed row view over the latest sheet.
//
// RETURNS:
//   - The Selection. Pure function: nothing is logged or mutated here, the
//     caller decides how to report skips.
func Select(view *workbook.RowView) Selection {
	var sel Selection

	for i := 0; i < view.Len(); i++ {
		if view.HasWorkorder(i) {
			sel.Stats.TotalWorkorders++
		}

		vendor, vendorOK := view.Vendor(i)
		lab, labOK := view.Lab(i)
		if !vendorOK || !labOK || vendor >= lab {
			continue
		}
		if strings.EqualFold(view.Notes(i), workbook.UpdatedMarker) {
			continue
		}

		candidate := Candidate{
			Row:           i,
			WorkorderCell: view.WorkorderCell(i),
			Vendor:        vendor,
			Lab:           lab,
		}
		sel.Candidates = append(sel.Candidates, candidate)
		sel.Stats.DiscrepancyCount++

		workorder, err := workbook.ParseCellInt(candidate.WorkorderCell)
		if err != nil {
			sel.Skipped = append(sel.Skipped, &RowCoercionError{
				Row:       i,
				Workorder: candidate.WorkorderCell,
				Lab:       lab,
				Err:       err,
			})
			continue
		}

		sel.Pairs = append(sel.Pairs, types.UpdatePair{
			Workorder: workorder,
			LabCount:  int64(lab),
		})
	}

	return sel
}
