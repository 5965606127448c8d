// =============================================================================
// Lab Discrepancy Reconciler - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'process', 'validate') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (reconciler)
//   ├── processCmd  (reconciler process)
//   ├── validateCmd (reconciler validate)
//   ├── watchCmd    (reconciler watch)
//   └── versionCmd  (reconciler version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose, --quiet)
//   2. Handing the configuration path to the individual commands
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// quiet restricts logging to warnings and errors when set to true.
var quiet bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
// This is the entry point for the CLI application.
var rootCmd = &cobra.Command{
	// Use is the one-line usage message.
	Use: "reconciler",

	// Short is a short description shown in the 'help' output.
	Short: "Lab Discrepancy Reconciler - Apply vendor/lab bag count corrections from weekly reports",

	// Long is a longer description shown in the 'help <command>' output.
	Long: `Lab Discrepancy Reconciler processes the weekly discrepancy spreadsheets
dropped into the incoming directory: it finds the rows where the vendor
counted fewer bags than the lab, corrects those workorders in the database,
marks the corrected rows in the spreadsheet, and emails a statistics report
with the processed file attached.

Key Features:
  - Dynamic header detection across irregular report layouts
  - All-or-nothing database updates per spreadsheet
  - Idempotent reprocessing (corrected rows are marked and skipped)
  - Completed/Error lifecycle directories for every artifact
  - Preflight validation and a directory watch mode

Example Usage:
  reconciler process                    # Reconcile everything in the incoming directory
  reconciler process --dry-run          # Show what a run would select, change nothing
  reconciler validate                   # Preflight incoming files without the database
  reconciler watch                      # Stay running and reconcile files as they arrive`,

	// Run is the function executed when the root command is called without
	// any subcommands. In this case, we just print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Execute the root command. If there's an error, print it and exit.
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init is called automatically when the package is loaded.
// It sets up the global flags shared by every subcommand.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: Allows the user to specify a custom configuration file.
	// Default is "config.yaml" in the current directory.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	// --verbose flag: Enables verbose/debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	// --quiet flag: Restricts logging to warnings and errors.
	rootCmd.PersistentFlags().BoolVarP(
		&quiet,
		"quiet",
		"q",
		false,
		"Only log warnings and errors",
	)
}
