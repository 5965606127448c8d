// =============================================================================
// Lab Discrepancy Reconciler - Artifact Preflight Validation
// =============================================================================
//
// This module checks discrepancy spreadsheets without touching the database
// or the files themselves. It answers the question an operator has before a
// live run: will this artifact process, and what will a run select from it?
//
// Checks are collected, not thrown. Each finding carries a severity:
//
//   "error"   = the artifact would be routed to the error directory
//   "warning" = the artifact processes, but something deserves attention
//
// The preflight runs the same header detection, column resolution, and row
// selection the engine runs, so its verdict matches what a live run would do.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/reconcile"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/workbook"
)

// =============================================================================
// FINDINGS
// =============================================================================

// Issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue rules.
const (
	RuleRead               = "read"
	RuleHeader             = "header"
	RuleColumns            = "columns"
	RuleNotesColumn        = "notes_column"
	RuleEmptyDataRegion    = "empty_data_region"
	RuleWorkorderCoercion  = "workorder_coercion"
	RuleDuplicateWorkorder = "duplicate_workorder"
)

// Issue is a single preflight finding.
type Issue struct {
	// Severity is "error" or "warning".
	Severity string

	// Rule names the check that produced the finding.
	Rule string

	// Message is the human-readable description.
	Message string

	// Row is the 1-based spreadsheet row the finding points at, or 0 when
	// the finding concerns the whole file.
	Row int
}

func (i *Issue) String() string {
	if i.Row > 0 {
		return fmt.Sprintf("[%s] %s (row %d): %s", strings.ToUpper(i.Severity), i.Rule, i.Row, i.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", strings.ToUpper(i.Severity), i.Rule, i.Message)
}

// FileResult is the preflight outcome for one artifact.
type FileResult struct {
	// Path is the artifact that was checked.
	Path string

	// SheetName is the latest sheet, when the file could be opened.
	SheetName string

	// HeaderRow is the 1-based header row position, when found.
	HeaderRow int

	// Valid is true when no error-severity issue was found: a live run
	// would process this artifact rather than route it to the error
	// directory.
	Valid bool

	// Issues holds every finding, errors and warnings alike.
	Issues []*Issue

	// Stats is the census a live run would select: total workorders and
	// unresolved discrepancies. SuccessfulUpdates is always zero here.
	Stats types.RunStatistics

	// Submittable is the number of discrepancy rows that would reach the
	// database.
	Submittable int
}

// ErrorCount returns the number of error-severity issues.
func (r *FileResult) ErrorCount() int {
	return r.countSeverity(SeverityError)
}

// WarningCount returns the number of warning-severity issues.
func (r *FileResult) WarningCount() int {
	return r.countSeverity(SeverityWarning)
}

func (r *FileResult) countSeverity(severity string) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *FileResult) addError(rule, message string) {
	r.Issues = append(r.Issues, &Issue{Severity: SeverityError, Rule: rule, Message: message})
	r.Valid = false
}

func (r *FileResult) addWarning(rule, message string, row int) {
	r.Issues = append(r.Issues, &Issue{Severity: SeverityWarning, Rule: rule, Message: message, Row: row})
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator performs read-only preflight checks on artifacts.
type Validator struct {
	scanLimit int
	logger    zerolog.Logger
}

// NewValidator builds a Validator with the engine's header scan behavior.
func NewValidator(cfg config.EngineConfig, logger zerolog.Logger) *Validator {
	scanLimit := cfg.HeaderScanLimit
	if scanLimit < 1 {
		scanLimit = 10
	}
	return &Validator{scanLimit: scanLimit, logger: logger}
}

// ValidateFile runs the preflight checks against one artifact.
//
// PARAMETERS:
//   - path: The spreadsheet to check. It is opened read-only and never
//     modified or moved.
//
// RETURNS:
//   - The FileResult. Never nil; open failures are reported as issues.
func (v *Validator) ValidateFile(path string) *FileResult {
	result := &FileResult{Path: path, Valid: true}

	// -------------------------------------------------------------------------
	// STEP 1: The file must open as a spreadsheet
	// -------------------------------------------------------------------------
	wb, err := workbook.Read(path)
	if err != nil {
		result.addError(RuleRead, err.Error())
		return result
	}

	latest := wb.LatestSheet()
	result.SheetName = latest.Name

	// -------------------------------------------------------------------------
	// STEP 2: The latest sheet must carry a locatable header
	// -------------------------------------------------------------------------
	headerIndex, err := workbook.LocateHeader(latest, v.scanLimit)
	if err != nil {
		result.addError(RuleHeader, err.Error())
		return result
	}
	result.HeaderRow = headerIndex + 1

	// -------------------------------------------------------------------------
	// STEP 3: The mandatory columns must resolve
	// -------------------------------------------------------------------------
	view, err := workbook.NewRowView(latest, headerIndex)
	if err != nil {
		result.addError(RuleColumns, err.Error())
		return result
	}

	if !view.HasNotes() {
		result.addWarning(RuleNotesColumn,
			"sheet has no notes column; confirmations would be written to a synthetic NOTES column", 0)
	}

	// -------------------------------------------------------------------------
	// STEP 4: Census what a live run would select
	// -------------------------------------------------------------------------
	selection := reconcile.Select(view)
	result.Stats = selection.Stats
	result.Submittable = len(selection.Pairs)

	if view.Len() == 0 {
		result.addWarning(RuleEmptyDataRegion, "no data rows below the header", 0)
	}

	for _, skip := range selection.Skipped {
		result.addWarning(RuleWorkorderCoercion,
			fmt.Sprintf("workorder %q would not coerce to an integer; row would be skipped", skip.Workorder),
			headerIndex+skip.Row+2)
	}

	// A workorder appearing on more than one discrepancy row would be
	// corrected once and marked on every matching row.
	seen := make(map[int64]int, len(selection.Pairs))
	for _, pair := range selection.Pairs {
		seen[pair.Workorder]++
	}
	for _, pair := range selection.Pairs {
		if seen[pair.Workorder] > 1 {
			result.addWarning(RuleDuplicateWorkorder,
				fmt.Sprintf("workorder %d appears on %d discrepancy rows", pair.Workorder, seen[pair.Workorder]), 0)
			seen[pair.Workorder] = 0
		}
	}

	v.logger.Info().
		Str("file", path).
		Str("sheet", result.SheetName).
		Bool("valid", result.Valid).
		Int("errors", result.ErrorCount()).
		Int("warnings", result.WarningCount()).
		Msg("preflight complete")

	return result
}

// =============================================================================
// RESULT FORMATTING
// =============================================================================

// FormatResult renders a FileResult for terminal output.
//
// PARAMETERS:
//   - result: The preflight outcome to format.
//
// RETURNS:
//   - A multi-line report suitable for printing as-is.
func FormatResult(result *FileResult) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("File: %s\n", result.Path))
	if result.SheetName != "" {
		builder.WriteString(fmt.Sprintf("  Sheet:           %s\n", result.SheetName))
	}
	if result.HeaderRow > 0 {
		builder.WriteString(fmt.Sprintf("  Header Row:      %d\n", result.HeaderRow))
		builder.WriteString(fmt.Sprintf("  Workorders:      %d\n", result.Stats.TotalWorkorders))
		builder.WriteString(fmt.Sprintf("  Discrepancies:   %d\n", result.Stats.DiscrepancyCount))
		builder.WriteString(fmt.Sprintf("  Submittable:     %d\n", result.Submittable))
	}

	if len(result.Issues) == 0 {
		builder.WriteString("  No issues found.\n")
		return builder.String()
	}

	builder.WriteString(fmt.Sprintf("  %d issue(s):\n", len(result.Issues)))
	for i, issue := range result.Issues {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, issue.String()))
	}

	return builder.String()
}
