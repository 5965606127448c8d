// =============================================================================
// Lab Discrepancy Reconciler - Reconciliation Engine
// =============================================================================
//
// The engine owns the per-artifact pipeline and the pass over the incoming
// directory. One artifact flows through:
//
//   read workbook -> locate header -> resolve columns -> select rows
//     -> apply database updates -> rewrite spreadsheet -> send report
//
// Ordering is deliberate. The database transaction commits before the
// spreadsheet is rewritten, so a crash between the two leaves the database
// correct and the sheet unmarked; the next run re-selects those rows, and the
// conditional UPDATE matches nothing, which is harmless. The rewrite happens
// only when at least one row was confirmed, so an artifact with nothing to
// confirm stays byte-for-byte as delivered.
//
// Artifacts are processed strictly one at a time. The volume is a handful of
// files per day, and sequential processing keeps the database transactions
// and file moves trivially ordered.
//
// =============================================================================

package reconcile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/config"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/workbook"
	"github.com/ginjaninja78/lab-discrepancy-reconciler/pkg/utils"
)

// defaultHeaderScanLimit mirrors the config default for engines built from a
// zero EngineConfig.
const defaultHeaderScanLimit = 10

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Updater applies bag-count corrections to the backing database.
//
// Implementations must be all-or-nothing: either every submitted pair is
// attempted inside one committed transaction, or an error is returned and
// nothing persists.
type Updater interface {
	// ApplyUpdates submits the pairs and returns the set of workorder IDs the
	// database confirmed as changed.
	ApplyUpdates(ctx context.Context, pairs []types.UpdatePair) (map[int64]bool, error)
}

// Notifier delivers the per-artifact report.
type Notifier interface {
	// Send reports the statistics for one processed artifact. The artifact
	// still lives at artifactPath when Send is called, so implementations may
	// attach it.
	Send(ctx context.Context, artifactPath, sheetName string, stats types.RunStatistics) error
}

// =============================================================================
// ENGINE
// =============================================================================

// Params carries the engine's collaborators.
type Params struct {
	// Config supplies reconciliation behavior settings.
	Config config.EngineConfig

	// Updater applies the database corrections. Required unless DryRun.
	Updater Updater

	// Notifier delivers per-artifact reports. Optional; nil disables
	// notification entirely.
	Notifier Notifier

	// Files manages the lifecycle directories.
	Files *utils.FileManager

	// Logger is the structured logger. Zerolog's zero value discards.
	Logger zerolog.Logger

	// DryRun stops each artifact after row selection: no database writes, no
	// rewrite, no notification, no file moves.
	DryRun bool
}

// Engine reconciles discrepancy spreadsheets against the database.
type Engine struct {
	scanLimit int
	updater   Updater
	notifier  Notifier
	files     *utils.FileManager
	logger    zerolog.Logger
	dryRun    bool
}

// New builds an Engine from its collaborators.
func New(p Params) *Engine {
	scanLimit := p.Config.HeaderScanLimit
	if scanLimit < 1 {
		scanLimit = defaultHeaderScanLimit
	}

	return &Engine{
		scanLimit: scanLimit,
		updater:   p.Updater,
		notifier:  p.Notifier,
		files:     p.Files,
		logger:    p.Logger,
		dryRun:    p.DryRun,
	}
}

// =============================================================================
// DIRECTORY PASS
// =============================================================================

// Run executes one full pass over the incoming directory.
//
// The directory is snapshotted once at the start; files arriving mid-pass
// wait for the next run. Each artifact is processed to completion and then
// moved to the completed or error directory before the next one starts. A
// failed move is the one fatal condition: a fully processed file left in the
// incoming directory would be picked up again, so the pass stops rather than
// continue past it.
//
// PARAMETERS:
//   - ctx: Cancellation stops the pass between artifacts, never mid-artifact.
//
// RETURNS:
//   - The RunSummary for the pass, including per-artifact results up to the
//     point the pass stopped.
//   - An error only when the pass itself could not proceed; per-artifact
//     failures are recorded in the summary instead.
func (e *Engine) Run(ctx context.Context) (types.RunSummary, error) {
	summary := types.RunSummary{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
	logger := e.logger.With().Str("run_id", summary.RunID).Logger()

	// -------------------------------------------------------------------------
	// STEP 1: Ensure the lifecycle directories exist
	// -------------------------------------------------------------------------
	if err := e.files.EnsureDirectories(); err != nil {
		summary.EndTime = time.Now()
		return summary, err
	}

	// -------------------------------------------------------------------------
	// STEP 2: Snapshot the incoming directory
	// -------------------------------------------------------------------------
	artifacts, err := e.files.DiscoverArtifacts()
	if err != nil {
		summary.EndTime = time.Now()
		return summary, err
	}
	summary.TotalFiles = len(artifacts)

	if len(artifacts) == 0 {
		logger.Info().Str("dir", e.files.IncomingDir).Msg("no new files found to process")
		summary.EndTime = time.Now()
		return summary, nil
	}
	logger.Info().
		Int("files", len(artifacts)).
		Bool("dry_run", e.dryRun).
		Msg("starting reconciliation pass")

	// -------------------------------------------------------------------------
	// STEP 3: Process each artifact to completion, then relocate it
	// -------------------------------------------------------------------------
	for _, path := range artifacts {
		if err := ctx.Err(); err != nil {
			logger.Warn().Err(err).Msg("pass canceled; remaining files stay in the incoming directory")
			summary.EndTime = time.Now()
			return summary, err
		}

		result := e.ProcessArtifact(ctx, path)

		if !e.dryRun {
			dest, moveErr := e.relocate(logger, path, result.Success)
			if moveErr != nil {
				// The artifact is fully processed but still sits in the
				// incoming directory, where the next pass would pick it up
				// again. Stop here and surface it.
				result.Success = false
				result.Error = moveErr
				summary.Results = append(summary.Results, result)
				summary.Failed++
				summary.EndTime = time.Now()
				return summary, moveErr
			}
			result.FinalPath = dest
		}

		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}

	summary.EndTime = time.Now()
	logger.Info().
		Int("files", summary.TotalFiles).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Dur("elapsed", summary.EndTime.Sub(summary.StartTime)).
		Msg("reconciliation pass complete")

	return summary, nil
}

// relocate moves a processed artifact to its terminal directory.
func (e *Engine) relocate(logger zerolog.Logger, path string, success bool) (string, error) {
	if success {
		dest, err := e.files.MoveToCompleted(path)
		if err != nil {
			return "", err
		}
		logger.Info().
			Str("file", filepath.Base(path)).
			Str("dest", dest).
			Msg("successfully processed and moved file")
		return dest, nil
	}

	dest, err := e.files.MoveToError(path)
	if err != nil {
		return "", err
	}
	logger.Warn().
		Str("file", filepath.Base(path)).
		Str("dest", dest).
		Msg("moved failed file to the error directory")
	return dest, nil
}

// =============================================================================
// PER-ARTIFACT PIPELINE
// =============================================================================

// ProcessArtifact runs one spreadsheet through the full pipeline. It never
// moves the file; the caller owns the lifecycle.
//
// PARAMETERS:
//   - ctx: Passed through to the database and notification steps.
//   - path: The artifact's current location in the incoming directory.
//
// RETURNS:
//   - The ArtifactResult. Error is set and Success false when any step
//     failed; the artifact is then untouched on disk unless the failure
//     happened during or after the rewrite.
func (e *Engine) ProcessArtifact(ctx context.Context, path string) types.ArtifactResult {
	start := time.Now()
	result := types.ArtifactResult{ArtifactPath: path}

	logger := e.logger.With().Str("file", filepath.Base(path)).Logger()
	logger.Info().Msg("processing file")

	// -------------------------------------------------------------------------
	// STEP 1: Load the workbook
	// -------------------------------------------------------------------------
	wb, err := workbook.Read(path)
	if err != nil {
		return e.fail(logger, result, start, err)
	}

	latest := wb.LatestSheet()
	result.SheetName = latest.Name
	logger = logger.With().Str("sheet", latest.Name).Logger()

	// -------------------------------------------------------------------------
	// STEP 2: Locate the header row of the latest sheet
	// -------------------------------------------------------------------------
	headerIndex, err := workbook.LocateHeader(latest, e.scanLimit)
	if err != nil {
		return e.fail(logger, result, start, err)
	}
	logger.Info().Int("row", headerIndex).Msg("dynamically located header row")

	// -------------------------------------------------------------------------
	// STEP 3: Resolve the semantic columns
	// -------------------------------------------------------------------------
	view, err := workbook.NewRowView(latest, headerIndex)
	if err != nil {
		return e.fail(logger, result, start, err)
	}

	// -------------------------------------------------------------------------
	// STEP 4: Select the discrepancy rows
	// -------------------------------------------------------------------------
	selection := Select(view)
	result.Stats = selection.Stats
	result.SkippedRows = len(selection.Skipped)

	for _, skip := range selection.Skipped {
		logger.Warn().
			Err(skip.Err).
			Int("row", skip.Row).
			Str("workorder", skip.Workorder).
			Msg("skipping row that could not be coerced for update")
	}

	if len(selection.Candidates) == 0 {
		logger.Info().Msg("no rows found that require processing")
	} else {
		logger.Info().
			Int("rows", len(selection.Candidates)).
			Int("submittable", len(selection.Pairs)).
			Msg("found discrepancy rows to process")
	}

	if e.dryRun {
		result.Success = true
		result.Duration = time.Since(start)
		logger.Info().Msg("dry run: stopping before database updates")
		return result
	}

	// -------------------------------------------------------------------------
	// STEP 5: Apply the database corrections in one transaction
	// -------------------------------------------------------------------------
	confirmed, err := e.updater.ApplyUpdates(ctx, selection.Pairs)
	if err != nil {
		return e.fail(logger, result, start, err)
	}
	result.Stats.SuccessfulUpdates = len(confirmed)

	// -------------------------------------------------------------------------
	// STEP 6: Rewrite the spreadsheet with confirmed rows marked
	// -------------------------------------------------------------------------
	if len(confirmed) > 0 {
		if err := workbook.Rewrite(wb, view, confirmed); err != nil {
			return e.fail(logger, result, start, err)
		}
		result.Rewritten = true
		logger.Info().Int("updated", len(confirmed)).Msg("successfully updated spreadsheet")
	} else if len(selection.Pairs) > 0 {
		logger.Warn().Msg("no database rows were updated; spreadsheet left as delivered")
	}

	// -------------------------------------------------------------------------
	// STEP 7: Send the report
	// -------------------------------------------------------------------------
	if e.notifier != nil {
		if err := e.notifier.Send(ctx, path, latest.Name, result.Stats); err != nil {
			return e.fail(logger, result, start, err)
		}
	}

	result.Success = true
	result.Duration = time.Since(start)
	logger.Info().
		Int("workorders", result.Stats.TotalWorkorders).
		Int("discrepancies", result.Stats.DiscrepancyCount).
		Int("updated", result.Stats.SuccessfulUpdates).
		Dur("elapsed", result.Duration).
		Msg("file processed")

	return result
}

// fail finalizes a result for a pipeline error.
func (e *Engine) fail(logger zerolog.Logger, result types.ArtifactResult, start time.Time, err error) types.ArtifactResult {
	result.Error = err
	result.Duration = time.Since(start)
	logger.Error().Err(err).Msg("failed to process file")
	return result
}
