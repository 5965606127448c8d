// =============================================================================
// Lab Discrepancy Reconciler - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which preflights discrepancy
// spreadsheets without a database connection, rewrites, emails, or file
// moves.
//
// COMMAND USAGE:
//   reconciler validate              # Preflight everything in the incoming directory
//   reconciler validate report.xlsx  # Preflight specific files
//
// The command exits non-zero when any checked file would fail a live run, so
// it slots into scripts that gate the real pass.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/logging"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/validation"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/pkg/utils"
)

// =============================================================================
// VALIDATE COMMAND DEFINITION
// =============================================================================

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Preflight spreadsheets without touching the database",
	Long: `The validate command runs the same header detection, column resolution,
and row selection as a live pass, but reads only: nothing is updated, moved,
rewritten, or emailed.

With no arguments every spreadsheet in the incoming directory is checked.
With file arguments only those files are checked, wherever they live.

Each file gets a verdict plus the row census a live run would select. The
command exits non-zero if any file would be routed to the error directory.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(args)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the validate command with the root command.
func init() {
	rootCmd.AddCommand(validateCmd)
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// runValidate preflights the given files, or the incoming directory when no
// files are named.
func runValidate(args []string) error {
	logger := logging.New(verbose, quiet)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: RESOLVE THE FILE SET
	// =========================================================================

	targets := args
	if len(targets) == 0 {
		files := utils.NewFileManager(
			cfg.Paths.IncomingDir,
			cfg.Paths.CompletedDir,
			cfg.Paths.ErrorDir,
		)
		targets, err = files.DiscoverArtifacts()
		if err != nil {
			return err
		}
	}

	if len(targets) == 0 {
		fmt.Println("No spreadsheets found to validate.")
		return nil
	}

	// =========================================================================
	// STEP 2: PREFLIGHT EACH FILE
	// =========================================================================

	validator := validation.NewValidator(cfg.Engine, logger)

	invalid := 0
	for _, path := range targets {
		result := validator.ValidateFile(path)
		fmt.Print(validation.FormatResult(result))
		if !result.Valid {
			invalid++
		}
	}

	// =========================================================================
	// STEP 3: VERDICT
	// =========================================================================

	fmt.Printf("\nChecked %d file(s): %d valid, %d invalid\n",
		len(targets), len(targets)-invalid, invalid)

	if invalid > 0 {
		return fmt.Errorf("%d of %d file(s) failed preflight", invalid, len(targets))
	}
	return nil
}
