// =============================================================================
// Lab Discrepancy Reconciler - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Lab Discrepancy Reconciler CLI
// application. It initializes the Cobra CLI framework and delegates command
// execution to the cmd package.
//
// USAGE:
//   reconciler process       - Reconcile all spreadsheets in the incoming directory
//   reconciler validate      - Preflight incoming spreadsheets without touching the database
//   reconciler watch         - Watch the incoming directory and reconcile on arrival
//   reconciler version       - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/lab-discrepancy-reconciler/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
