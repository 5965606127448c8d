// =============================================================================
// Lab Discrepancy Reconciler - File Manager Tests
// =============================================================================

package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/lab-discrepancy-reconciler/internal/types"
)

func newTestManager(t *testing.T) *FileManager {
	t.Helper()
	base := t.TempDir()
	fm := NewFileManager(
		filepath.Join(base, "New"),
		filepath.Join(base, "Completed"),
		filepath.Join(base, "Error"),
	)
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestEnsureDirectoriesCreatesMissing(t *testing.T) {
	base := t.TempDir()
	fm := NewFileManager(
		filepath.Join(base, "a", "New"),
		filepath.Join(base, "a", "Completed"),
		filepath.Join(base, "a", "Error"),
	)

	require.NoError(t, fm.EnsureDirectories())

	assert.DirExists(t, fm.IncomingDir)
	assert.DirExists(t, fm.CompletedDir)
	assert.DirExists(t, fm.ErrorDir)

	// Idempotent on existing directories.
	assert.NoError(t, fm.EnsureDirectories())
}

func TestDiscoverArtifacts(t *testing.T) {
	fm := newTestManager(t)

	touch(t, filepath.Join(fm.IncomingDir, "b_report.xlsx"))
	touch(t, filepath.Join(fm.IncomingDir, "a_report.xls"))
	touch(t, filepath.Join(fm.IncomingDir, "~$b_report.xlsx")) // office lock file
	touch(t, filepath.Join(fm.IncomingDir, "notes.txt"))       // wrong extension
	require.NoError(t, os.Mkdir(filepath.Join(fm.IncomingDir, "sub.xlsx"), 0755))

	files, err := fm.DiscoverArtifacts()

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_report.xls", filepath.Base(files[0]))
	assert.Equal(t, "b_report.xlsx", filepath.Base(files[1]))
}

func TestDiscoverArtifactsEmptyDirectory(t *testing.T) {
	fm := newTestManager(t)

	files, err := fm.DiscoverArtifacts()

	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMoveToCompleted(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.IncomingDir, "report.xlsx")
	touch(t, src)

	dest, err := fm.MoveToCompleted(src)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.CompletedDir, "report.xlsx"), dest)
	assert.NoFileExists(t, src, "relocation is a move, not a copy")
	assert.FileExists(t, dest)
}

func TestMoveToError(t *testing.T) {
	fm := newTestManager(t)
	src := filepath.Join(fm.IncomingDir, "report.xlsx")
	touch(t, src)

	dest, err := fm.MoveToError(src)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ErrorDir, "report.xlsx"), dest)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dest)
}

func TestMoveMissingSourceIsMoveError(t *testing.T) {
	fm := newTestManager(t)

	_, err := fm.MoveToCompleted(filepath.Join(fm.IncomingDir, "vanished.xlsx"))

	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Contains(t, moveErr.Source, "vanished.xlsx")
}

func TestWriteRunSummary(t *testing.T) {
	dir := t.TempDir()
	start := time.Date(2025, 8, 4, 9, 30, 0, 0, time.UTC)

	summary := types.RunSummary{
		RunID:      "run-1",
		StartTime:  start,
		EndTime:    start.Add(3 * time.Second),
		TotalFiles: 2,
		Succeeded:  1,
		Failed:     1,
		Results: []types.ArtifactResult{
			{
				ArtifactPath: "/in/good.xlsx",
				SheetName:    "8.1",
				FinalPath:    "/done/good.xlsx",
				Success:      true,
				Stats: types.RunStatistics{
					TotalWorkorders:   3,
					DiscrepancyCount:  1,
					SuccessfulUpdates: 1,
				},
				SkippedRows: 1,
				Duration:    2 * time.Second,
			},
			{
				ArtifactPath: "/in/bad.xlsx",
				FinalPath:    "/err/bad.xlsx",
				Success:      false,
				Error:        errors.New("header row not found"),
			},
		},
	}

	path, err := WriteRunSummary(summary, dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reconciliation_summary_20250804_093000.txt"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.Contains(t, text, "Run ID:     run-1")
	assert.Contains(t, text, "good.xlsx")
	assert.Contains(t, text, "Workorders:    3")
	assert.Contains(t, text, "Remaining:     2")
	assert.Contains(t, text, "Skipped Rows:  1")
	assert.Contains(t, text, "bad.xlsx")
	assert.Contains(t, text, "header row not found")
}
