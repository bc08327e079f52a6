// Package logging provides the audit log sink: an slog logger fanned out
// to an append-only audit file and to the console, with a SUCCESS level
// between INFO and WARNING.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// LevelSuccess marks a completed mutation. It sits between Info and Warn
// so level filtering keeps the expected ordering.
const LevelSuccess = slog.Level(2)

// TimeLayout is the audit timestamp format: ISO-8601 with millisecond
// precision and timezone offset.
const TimeLayout = "2006-01-02T15:04:05.000-07:00"

// Options describes logger construction parameters.
type Options struct {
	// Path is the audit log file. Parent directories are created.
	Path string

	// Verbose enables debug output on the console. The audit file never
	// records debug entries.
	Verbose bool

	// Stdout and Stderr override the console streams, mostly for tests.
	// Nil selects os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// NoColor disables console colors even on a terminal.
	NoColor bool
}

// New constructs the audit logger. The returned closer owns the audit
// file. Failure to create the log directory or open the file is fatal to
// the caller: no batch work may start without a durable audit sink.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.Path == "" {
		return nil, nil, fmt.Errorf("audit log path is required")
	}

	if dir := filepath.Dir(opts.Path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log %s: %w", opts.Path, err)
	}

	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	handler := newFanoutHandler(
		newAuditHandler(file, stderr),
		newConsoleHandler(stdout, stderr, opts.Verbose, !opts.NoColor),
	)

	return slog.New(handler), file, nil
}

// levelLabel maps slog levels to the four audit levels.
func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= LevelSuccess:
		return "SUCCESS"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
