// =============================================================================
// Lab Discrepancy Reconciler - File Manager Utility
// =============================================================================
//
// This module owns the file-lifecycle queue: the three directories an
// artifact moves through (incoming, completed, error) and the operations on
// them:
//   - Directory bootstrap before each run
//   - Artifact discovery (the incoming snapshot)
//   - Terminal relocation to completed or error
//   - Run-summary log generation
//
// LIFECYCLE RULES:
//   - An artifact leaves the incoming directory exactly once per run, by a
//     move (never a copy), to exactly one of completed or error.
//   - A failed relocation is not retried; it surfaces as a *MoveError and is
//     fatal to the run, because a file stuck in incoming would be picked up
//     again next run after its updates were already committed.
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

// artifactPatterns are the spreadsheet shapes the pipeline accepts.
var artifactPatterns = []string{"*.xlsx", "*.xls"}

// =============================================================================
// MOVE ERROR
// =============================================================================

// MoveError indicates an artifact could not be relocated out of the incoming
// directory. This is fatal to the run.
type MoveError struct {
	// Source is the path the artifact was at.
	Source string

	// Dest is the path the relocation targeted.
	Dest string

	// Err is the underlying filesystem error.
	Err error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("failed to move %q to %q: %v", e.Source, e.Dest, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles the lifecycle directories for the reconciler.
type FileManager struct {
	// IncomingDir is where new spreadsheets land and are picked up from.
	IncomingDir string

	// CompletedDir is where successfully processed spreadsheets are moved.
	CompletedDir string

	// ErrorDir is where failed spreadsheets are moved.
	ErrorDir string
}

// NewFileManager creates a FileManager over the three lifecycle directories.
func NewFileManager(incomingDir, completedDir, errorDir string) *FileManager {
	return &FileManager{
		IncomingDir:  incomingDir,
		CompletedDir: completedDir,
		ErrorDir:     errorDir,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the lifecycle directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.IncomingDir,
		fm.CompletedDir,
		fm.ErrorDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// ARTIFACT DISCOVERY
// =============================================================================

// DiscoverArtifacts snapshots the incoming directory.
//
// The snapshot is taken once per run: files that land after it are left for
// the next run, and each discovered file is visited exactly once.
//
// RETURNS:
//   - The spreadsheet paths in the incoming directory, sorted by name.
//     Office owner-lock files ("~$...") are skipped.
//   - An error if the directory cannot be read.
func (fm *FileManager) DiscoverArtifacts() ([]string, error) {
	var result []string

	for _, pattern := range artifactPatterns {
		matches, err := filepath.Glob(filepath.Join(fm.IncomingDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan incoming directory: %w", err)
		}

		for _, file := range matches {
			if strings.HasPrefix(filepath.Base(file), "~$") {
				continue
			}
			info, err := os.Stat(file)
			if err != nil || info.IsDir() {
				continue
			}
			result = append(result, file)
		}
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// ARTIFACT RELOCATION
// =============================================================================

// MoveToCompleted relocates a successfully processed artifact.
//
// PARAMETERS:
//   - path: The artifact's current path.
//
// RETURNS:
//   - The artifact's new path in the completed directory.
//   - A *MoveError if the relocation fails.
func (fm *FileManager) MoveToCompleted(path string) (string, error) {
	return fm.moveArtifact(path, fm.CompletedDir)
}

// MoveToError relocates a failed artifact.
//
// PARAMETERS:
//   - path: The artifact's current path.
//
// RETURNS:
//   - The artifact's new path in the error directory.
//   - A *MoveError if the relocation fails.
func (fm *FileManager) MoveToError(path string) (string, error) {
	return fm.moveArtifact(path, fm.ErrorDir)
}

// moveArtifact moves a file into the destination directory, keeping its base
// name. Rename is tried first; a cross-device copy-and-delete is the
// fallback.
func (fm *FileManager) moveArtifact(path, destDir string) (string, error) {
	destPath := filepath.Join(destDir, filepath.Base(path))

	if err := os.Rename(path, destPath); err != nil {
		if copyErr := copyFile(path, destPath); copyErr != nil {
			return "", &MoveError{Source: path, Dest: destPath, Err: copyErr}
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return "", &MoveError{Source: path, Dest: destPath, Err: rmErr}
		}
	}

	return destPath, nil
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// WriteRunSummary writes a text report of one full pass to the given
// directory.
//
// PARAMETERS:
//   - summary: The aggregated run outcome.
//   - outputDir: The directory to write the summary file into.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteRunSummary(summary types.RunSummary, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create summary directory: %w", err)
	}

	summaryFileName := fmt.Sprintf("reconciliation_summary_%s.txt", summary.StartTime.Format("20060102_150405"))
	summaryPath := filepath.Join(outputDir, summaryFileName)

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	header := fmt.Sprintf("Lab Discrepancy Reconciler - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:     %s\n"+
		"  Start Time: %s\n"+
		"  End Time:   %s\n"+
		"  Duration:   %s\n\n"+
		"Statistics:\n"+
		"  Total Files: %d\n"+
		"  Succeeded:   %d\n"+
		"  Failed:      %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TotalFiles,
		summary.Succeeded,
		summary.Failed)
	writer.WriteString(header)

	if summary.Succeeded > 0 {
		writer.WriteString("Processed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, r := range summary.Results {
			if !r.Success {
				continue
			}
			writer.WriteString(fmt.Sprintf("  File:          %s\n", filepath.Base(r.ArtifactPath)))
			writer.WriteString(fmt.Sprintf("  Sheet:         %s\n", r.SheetName))
			writer.WriteString(fmt.Sprintf("  Workorders:    %d\n", r.Stats.TotalWorkorders))
			writer.WriteString(fmt.Sprintf("  Discrepancies: %d\n", r.Stats.DiscrepancyCount))
			writer.WriteString(fmt.Sprintf("  Updated:       %d\n", r.Stats.SuccessfulUpdates))
			writer.WriteString(fmt.Sprintf("  Remaining:     %d\n", r.Stats.Remaining()))
			if r.SkippedRows > 0 {
				writer.WriteString(fmt.Sprintf("  Skipped Rows:  %d\n", r.SkippedRows))
			}
			writer.WriteString(fmt.Sprintf("  Moved To:      %s\n", r.FinalPath))
			writer.WriteString(fmt.Sprintf("  Process Time:  %s\n\n", r.Duration.String()))
		}
	}

	if summary.Failed > 0 {
		writer.WriteString("Failed Files:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, r := range summary.Results {
			if r.Success {
				continue
			}
			writer.WriteString(fmt.Sprintf("  File:     %s\n", filepath.Base(r.ArtifactPath)))
			writer.WriteString(fmt.Sprintf("  Error:    %v\n", r.Error))
			writer.WriteString(fmt.Sprintf("  Moved To: %s\n\n", r.FinalPath))
		}
	}

	footer := "================================================================================\n" +
		"End of Summary\n"
	writer.WriteString(footer)

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
