// =============================================================================
// Lab Discrepancy Reconciler - Report Composition
// =============================================================================
//
// The report format is fixed by its long-standing consumers: the subject line
// is filtered on by mailbox rules downstream, and the "remaining" figure is
// counted against the total workorder count, not the discrepancy count. Both
// stay exactly as the recipients expect them.
//
// =============================================================================

package notify

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

// subjectPrefix is the fixed lead-in mailbox rules filter on.
const subjectPrefix = "IDEXX Discrepancy Report Processed"

// bodyTemplate is the HTML report body. The four statistics slot in order:
// total workorders, discrepancies, successful updates, remaining.
const bodyTemplate = "<html><body>" +
	"<h2>Automatic Discrepancy Update Report</h2>" +
	"<ul>" +
	"<li>Total Workorders in Sheet: %d</li>" +
	"<li>Workorders with Discrepancy (Vendor &lt; Lab): %d</li>" +
	"<li>Successfully Updated in Database: %d</li>" +
	"<li><b>Remaining Discrepancies (not updated): %d</b></li>" +
	"</ul>" +
	"<p>This is an automated report.</p>" +
	"</body></html>"

// Subject builds the report subject for one artifact: the fixed prefix, the
// file name without its extension, and the reconciled sheet name.
func Subject(artifactPath, sheetName string) string {
	base := filepath.Base(artifactPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%s: %s %s", subjectPrefix, base, sheetName)
}

// Body renders the HTML report body for one artifact's statistics.
func Body(stats types.RunStatistics) string {
	return fmt.Sprintf(bodyTemplate,
		stats.TotalWorkorders,
		stats.DiscrepancyCount,
		stats.SuccessfulUpdates,
		stats.Remaining(),
	)
}
