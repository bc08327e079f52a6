package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// auditHandler appends one `[timestamp] [LEVEL] message` line per record to
// the audit file. Entries below Info are not recorded. The file is opened
// append-only at startup and entries are never rewritten.
type auditHandler struct {
	// mu and warnOnce are shared by pointer across WithAttrs clones:
	// every derived handler writes to the same sink.
	mu     *sync.Mutex
	writer io.Writer
	attrs  []slog.Attr

	// Audit write failures are reported, not fatal: the batch keeps
	// running and the failure is surfaced once on the error stream.
	errOut   io.Writer
	warnOnce *sync.Once
}

func newAuditHandler(w io.Writer, errOut io.Writer) *auditHandler {
	return &auditHandler{
		mu:       &sync.Mutex{},
		writer:   w,
		errOut:   errOut,
		warnOnce: &sync.Once{},
	}
}

func (h *auditHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *auditHandler) Handle(_ context.Context, record slog.Record) error {
	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	var buf bytes.Buffer
	buf.Grow(96 + len(record.Message))

	buf.WriteByte('[')
	buf.WriteString(timestamp.Format(TimeLayout))
	buf.WriteString("] [")
	buf.WriteString(levelLabel(record.Level))
	buf.WriteString("] ")
	buf.WriteString(record.Message)

	for _, attr := range h.attrs {
		writeAttr(&buf, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		writeAttr(&buf, attr)
		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	_, err := h.writer.Write(buf.Bytes())
	h.mu.Unlock()

	if err != nil && h.errOut != nil {
		h.warnOnce.Do(func() {
			fmt.Fprintf(h.errOut, "warning: audit log write failed: %v\n", err)
		})
	}

	return err
}

func (h *auditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &auditHandler{
		mu:       h.mu,
		writer:   h.writer,
		errOut:   h.errOut,
		warnOnce: h.warnOnce,
	}
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return clone
}

func (h *auditHandler) WithGroup(_ string) slog.Handler {
	// Audit lines are flat; groups add nothing to a single-writer file.
	return h
}

// writeAttr appends a key=value pair to the line.
func writeAttr(buf *bytes.Buffer, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}

	attr.Value = attr.Value.Resolve()
	buf.WriteByte(' ')
	buf.WriteString(attr.Key)
	buf.WriteByte('=')
	buf.WriteString(formatValue(attr.Value))
}

// formatValue renders an attr value, quoting strings that contain spaces
// or separators.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return maybeQuote(v.String())
	case slog.KindBool:
		return strconv.FormatBool(v.Bool())
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(TimeLayout)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return maybeQuote(err.Error())
		}
		return maybeQuote(fmt.Sprint(v.Any()))
	default:
		return maybeQuote(v.String())
	}
}

func maybeQuote(s string) string {
	if s == "" || strings.ContainsAny(s, " =\"") {
		return strconv.Quote(s)
	}
	return s
}
