// =============================================================================
// Lab Discrepancy Reconciler - Logging Module
// =============================================================================
//
// This module builds the application logger. All components receive a
// zerolog.Logger value at construction; nothing logs through package-level
// globals. Output is human-readable on a terminal and JSON otherwise, so the
// same binary behaves well both interactively and under a scheduler.
//
// =============================================================================

package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Nop is a logger that discards everything. Handy for tests.
var Nop = zerolog.Nop()

// New builds the application logger.
//
// Level precedence: --verbose wins over --quiet, both win over the LOG_LEVEL
// environment variable, and the default is info.
func New(verbose, quiet bool) zerolog.Logger {
	var writer io.Writer = os.Stderr

	if isTerminal() && os.Getenv("LOG_FORMAT") != "json" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.Kitchen,
			NoColor:    os.Getenv("NO_COLOR") != "",
		}
	}

	level := resolveLevel(verbose, quiet)

	logger := zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	// Caller information is only worth the noise when debugging.
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}

	return logger
}

// resolveLevel picks the log level from flags and environment.
func resolveLevel(verbose, quiet bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	if quiet {
		return zerolog.WarnLevel
	}

	if levelStr := os.Getenv("LOG_LEVEL"); levelStr != "" {
		if level, err := zerolog.ParseLevel(levelStr); err == nil {
			return level
		}
	}

	return zerolog.InfoLevel
}

// isTerminal checks if stderr is a terminal.
func isTerminal() bool {
	if fileInfo, _ := os.Stderr.Stat(); (fileInfo.Mode() & os.ModeCharDevice) != 0 {
		return true
	}
	return false
}
