// =============================================================================
// Lab Discrepancy Reconciler - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs one reconciliation pass
// over the incoming directory.
//
// COMMAND USAGE:
//   reconciler process [flags]
//
// FLAGS:
//   --dry-run : Select and report rows without touching the database, the
//               spreadsheets, or the mail transport
//
// PROCESSING PIPELINE:
//   1. Load configuration (config.yaml, .env, environment)
//   2. Open the database pool (skipped with --dry-run)
//   3. Snapshot the incoming directory
//   4. For each spreadsheet, one at a time:
//      a. Locate the header of the latest sheet
//      b. Select the unresolved discrepancy rows
//      c. Apply all corrections in one database transaction
//      d. Rewrite the spreadsheet with confirmed rows marked
//      e. Email the statistics report with the file attached
//      f. Move the file to Completed or Error
//   5. Print the pass summary (and write the summary file if configured)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/logging"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/notify"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/reconcile"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/store"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun selects and reports rows without applying any side effect.
var dryRun bool

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Reconcile all spreadsheets in the incoming directory",
	Long: `The process command snapshots the incoming directory and reconciles each
discrepancy spreadsheet in turn: rows where the vendor bag count is below the
lab bag count (and not already marked updated) are corrected in the database
inside a single transaction, the confirmed rows are marked in the
spreadsheet, and a statistics report is emailed with the file attached.

Files are processed strictly one at a time. Each file ends up in the
Completed directory on success or the Error directory on failure, so a file
is never picked up twice and a failed file never blocks the rest.

With --dry-run the command stops after row selection: it reports what a live
run would submit, and the database, spreadsheets, mail transport, and
directories are left untouched.`,

	// RunE is like Run but returns an error. This is preferred for commands
	// that can fail, as it allows Cobra to handle the error gracefully.
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the process command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(processCmd)

	// --dry-run flag: Report what would be submitted without side effects.
	processCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Select and report rows without updating anything",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess executes one reconciliation pass.
func runProcess() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(verbose, quiet)

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	fmt.Println("=== Lab Discrepancy Reconciler ===")
	fmt.Println("Loading configuration...")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: WIRE THE ENGINE
	// =========================================================================
	// A dry run needs no database pool and no mail transport.

	engine, cleanup, err := buildEngine(ctx, cfg, logger, dryRun)
	if err != nil {
		return err
	}
	defer cleanup()

	if dryRun {
		fmt.Println("Dry run: no database updates, rewrites, emails, or file moves.")
	}

	// =========================================================================
	// STEP 3: RUN THE PASS
	// =========================================================================

	fmt.Printf("Processing files from %q...\n", cfg.Paths.IncomingDir)

	summary, runErr := engine.Run(ctx)
	printSummary(summary, dryRun)

	// =========================================================================
	// STEP 4: WRITE THE SUMMARY FILE
	// =========================================================================

	if cfg.Report.SummaryDir != "" && !dryRun && summary.TotalFiles > 0 {
		summaryPath, err := utils.WriteRunSummary(summary, cfg.Report.SummaryDir)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to write run summary file")
		} else {
			fmt.Printf("Summary written to %s\n", summaryPath)
		}
	}

	// Per-file failures are routed to the error directory and reported in the
	// summary; only a pass-level failure (for example a file move that did
	// not complete) surfaces as a command error.
	return runErr
}

// =============================================================================
// ENGINE WIRING
// =============================================================================

// buildEngine wires a reconciliation engine from the configuration. The
// returned cleanup releases the database pool and is safe to call when the
// engine was built without one.
func buildEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger, dry bool) (*reconcile.Engine, func(), error) {
	files := utils.NewFileManager(
		cfg.Paths.IncomingDir,
		cfg.Paths.CompletedDir,
		cfg.Paths.ErrorDir,
	)

	params := reconcile.Params{
		Config: cfg.Engine,
		Files:  files,
		Logger: logger,
		DryRun: dry,
	}

	cleanup := func() {}
	if !dry {
		st, err := store.Open(ctx, cfg.Store, cfg.Engine.AuditUserID, logger)
		if err != nil {
			return nil, nil, err
		}
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close database pool")
			}
		}
		params.Updater = st
		params.Notifier = notify.NewMailer(cfg.Mail, logger)
	}

	return reconcile.New(params), cleanup, nil
}

// =============================================================================
// SUMMARY OUTPUT
// =============================================================================

// printSummary renders the per-file outcomes and the pass totals.
func printSummary(summary types.RunSummary, dry bool) {
	if summary.TotalFiles == 0 {
		fmt.Println("No spreadsheets found in the incoming directory.")
		return
	}

	for _, result := range summary.Results {
		name := filepath.Base(result.ArtifactPath)
		if result.Success {
			fmt.Printf("  ✓ %s [%s]: %d discrepancies, %d updated, %d remaining\n",
				name,
				result.SheetName,
				result.Stats.DiscrepancyCount,
				result.Stats.SuccessfulUpdates,
				result.Stats.Remaining(),
			)
		} else {
			fmt.Printf("  ✗ %s: %v\n", name, result.Error)
		}
	}

	elapsed := summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond)
	fmt.Println("\n=== Processing Complete ===")
	fmt.Printf("Total files:     %d\n", summary.TotalFiles)
	fmt.Printf("Successful:      %d\n", summary.Succeeded)
	fmt.Printf("Errors:          %d\n", summary.Failed)
	fmt.Printf("Time elapsed:    %s\n", elapsed)

	if summary.Failed > 0 && !dry {
		fmt.Println("\nFailed files have been moved to the error directory.")
	}
}
