// =============================================================================
// Lab Discrepancy Reconciler - Watch Command
// =============================================================================
//
// This file defines the 'watch' command, which keeps the reconciler running
// and processes spreadsheets as they land in the incoming directory.
//
// COMMAND USAGE:
//   reconciler watch [flags]
//
// FLAGS:
//   --debounce : How long the directory must stay quiet before a pass starts
//
// EVENT HANDLING:
//   Spreadsheets are usually delivered by copy or network share, which
//   surfaces as a burst of filesystem events while the bytes arrive. Each
//   relevant event re-arms a debounce timer; the pass starts only after the
//   directory has been quiet for the full debounce window, so a half-written
//   file is not picked up. Every pass re-snapshots the directory, so events
//   coalesced into one pass are never lost.
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/logging"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/reconcile"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// debounce is how long the incoming directory must stay quiet before a pass
// starts.
var debounce time.Duration

// =============================================================================
// WATCH COMMAND DEFINITION
// =============================================================================

// watchCmd represents the 'watch' command.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the incoming directory and reconcile files as they arrive",
	Long: `The watch command runs an initial reconciliation pass and then stays
running, watching the incoming directory. When spreadsheets arrive, it waits
for the directory to go quiet (the debounce window) and runs another pass.

Every pass behaves exactly like 'reconciler process': one file at a time,
all-or-nothing database updates, spreadsheet rewrite, emailed report, and the
Completed/Error lifecycle.

Stop with Ctrl-C or SIGTERM; an in-flight file is finished before shutdown.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the watch command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(watchCmd)

	// --debounce flag: Quiet period before a pass starts.
	watchCmd.Flags().DurationVar(
		&debounce,
		"debounce",
		2*time.Second,
		"How long the incoming directory must stay quiet before processing",
	)
}

// =============================================================================
// MAIN WATCH FUNCTION
// =============================================================================

// runWatch runs the initial pass and then processes on filesystem events.
func runWatch() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(verbose, quiet)

	fmt.Println("=== Lab Discrepancy Reconciler (watch mode) ===")

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	// =========================================================================
	// STEP 1: INITIAL PASS
	// =========================================================================
	// Whatever is already waiting gets processed before the watch starts, so
	// files delivered while the reconciler was down are not stuck until the
	// next delivery.

	if err := runPass(ctx, engine, cfg, logger); err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: WATCH THE INCOMING DIRECTORY
	// =========================================================================

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(cfg.Paths.IncomingDir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", cfg.Paths.IncomingDir, err)
	}

	logger.Info().
		Str("dir", cfg.Paths.IncomingDir).
		Dur("debounce", debounce).
		Msg("watching for new spreadsheets")
	fmt.Printf("Watching %q (debounce %s). Press Ctrl-C to stop.\n", cfg.Paths.IncomingDir, debounce)

	// The timer starts disarmed; events arm it.
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	// =========================================================================
	// STEP 3: EVENT LOOP
	// =========================================================================

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down watcher")
			fmt.Println("\nShutting down.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isArtifactEvent(event) {
				continue
			}
			logger.Debug().
				Str("file", filepath.Base(event.Name)).
				Str("op", event.Op.String()).
				Msg("incoming directory activity")
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watcher error")

		case <-timer.C:
			if err := runPass(ctx, engine, cfg, logger); err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				return err
			}
		}
	}
}

// runPass executes one engine pass and writes the summary file if configured.
func runPass(ctx context.Context, engine *reconcile.Engine, cfg *config.Config, logger zerolog.Logger) error {
	summary, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Report.SummaryDir != "" && summary.TotalFiles > 0 {
		if _, err := utils.WriteRunSummary(summary, cfg.Report.SummaryDir); err != nil {
			logger.Warn().Err(err).Msg("failed to write run summary file")
		}
	}
	return nil
}

// isArtifactEvent reports whether a filesystem event plausibly describes a
// spreadsheet landing in the incoming directory.
func isArtifactEvent(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) &&
		!event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	// Office lock files churn alongside real deliveries.
	if strings.HasPrefix(base, "~$") {
		return false
	}

	switch strings.ToLower(filepath.Ext(base)) {
	case ".xlsx", ".xls":
		return true
	default:
		return false
	}
}
