package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// consoleHandler mirrors audit entries to the console. Informational
// levels (INFO, SUCCESS, and DEBUG when verbose) go to stdout; WARNING and
// ERROR go to stderr.
type consoleHandler struct {
	mu      sync.Mutex
	stdout  io.Writer
	stderr  io.Writer
	verbose bool
	color   bool
	attrs   []slog.Attr
}

func newConsoleHandler(stdout, stderr io.Writer, verbose, wantColor bool) *consoleHandler {
	return &consoleHandler{
		stdout:  stdout,
		stderr:  stderr,
		verbose: verbose,
		color:   wantColor && isTerminal(stdout) && isTerminal(stderr),
	}
}

// isTerminal reports whether the writer is an interactive terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.verbose {
		return true
	}
	return level >= slog.LevelInfo
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(64 + len(record.Message))

	buf.WriteString(h.colorize(record.Level, levelLabel(record.Level)))
	buf.WriteByte(' ')
	buf.WriteString(record.Message)

	for _, attr := range h.attrs {
		writeAttr(&buf, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&buf, attr)
		return true
	})

	buf.WriteByte('\n')

	out := h.stdout
	if record.Level >= slog.LevelWarn {
		out = h.stderr
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := out.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &consoleHandler{
		stdout:  h.stdout,
		stderr:  h.stderr,
		verbose: h.verbose,
		color:   h.color,
	}
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return clone
}

func (h *consoleHandler) WithGroup(_ string) slog.Handler {
	return h
}

// colorize wraps a level label in a level-appropriate color when the
// console is a terminal.
func (h *consoleHandler) colorize(level slog.Level, label string) string {
	if !h.color {
		return label
	}

	switch {
	case level >= slog.LevelError:
		return text.FgRed.Sprint(label)
	case level >= slog.LevelWarn:
		return text.FgYellow.Sprint(label)
	case level >= LevelSuccess:
		return text.FgGreen.Sprint(label)
	case level >= slog.LevelInfo:
		return text.FgCyan.Sprint(label)
	default:
		return text.Faint.Sprint(label)
	}
}
