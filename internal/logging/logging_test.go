package logging

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// auditLine matches `[ISO-8601 timestamp] [LEVEL] message ...`.
var auditLine = regexp.MustCompile(`^\[\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}[+-]\d{2}:\d{2}\] \[(DEBUG|INFO|SUCCESS|WARNING|ERROR)\] `)

func newTestLogger(t *testing.T, opts Options) (*slog.Logger, string) {
	t.Helper()
	if opts.Path == "" {
		opts.Path = filepath.Join(t.TempDir(), "audit.log")
	}
	opts.NoColor = true
	log, closer, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { closer.Close() })
	return log, opts.Path
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNewRequiresPath(t *testing.T) {
	_, _, err := New(Options{})
	assert.Error(t, err)
}

func TestNewCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "audit.log")
	_, closer, err := New(Options{Path: path, Stdout: &strings.Builder{}, Stderr: &strings.Builder{}})
	require.NoError(t, err)
	defer closer.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestNewFailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// a directory at the log path makes the open fail
	path := filepath.Join(dir, "audit.log")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, _, err := New(Options{Path: path})
	assert.Error(t, err)
}

func TestAuditLineFormat(t *testing.T) {
	var stdout, stderr strings.Builder
	log, path := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr})

	log.Info("starting bulk move", "input", "computers.txt")
	log.Log(context.Background(), LevelSuccess, "moved object to destination", "dn", "CN=WS-001,OU=Staging,DC=example,DC=com")
	log.Warn("skipping blank line in input file", "line", 3)
	log.Error("object \"WS-404\" not found in directory")

	lines := readLines(t, path)
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Regexp(t, auditLine, line)
	}

	assert.Contains(t, lines[0], "[INFO] starting bulk move input=computers.txt")
	assert.Contains(t, lines[1], "[SUCCESS] moved object to destination")
	assert.Contains(t, lines[1], `dn="CN=WS-001,OU=Staging,DC=example,DC=com"`)
	assert.Contains(t, lines[2], "[WARNING] skipping blank line in input file line=3")
	assert.Contains(t, lines[3], "[ERROR]")
	assert.Contains(t, lines[3], "WS-404")
}

func TestAuditTimestampParses(t *testing.T) {
	var stdout, stderr strings.Builder
	log, path := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr})

	log.Info("timestamp check")

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	end := strings.Index(lines[0], "]")
	require.Greater(t, end, 0)

	stamp, err := time.Parse(TimeLayout, lines[0][1:end])
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), stamp, time.Minute)
}

func TestAuditAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	for _, msg := range []string{"first run", "second run"} {
		var stdout, stderr strings.Builder
		log, closer, err := New(Options{Path: path, Stdout: &stdout, Stderr: &stderr, NoColor: true})
		require.NoError(t, err)
		log.Info(msg)
		require.NoError(t, closer.Close())
	}

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first run")
	assert.Contains(t, lines[1], "second run")
}

func TestAuditSkipsDebugByDefault(t *testing.T) {
	var stdout, stderr strings.Builder
	log, path := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr})

	log.Debug("noise")
	log.Info("signal")

	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "signal")
}

func TestConsoleRouting(t *testing.T) {
	var stdout, stderr strings.Builder
	log, _ := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr})

	log.Info("info line")
	log.Log(context.Background(), LevelSuccess, "success line")
	log.Warn("warning line")
	log.Error("error line")

	assert.Contains(t, stdout.String(), "INFO info line")
	assert.Contains(t, stdout.String(), "SUCCESS success line")
	assert.NotContains(t, stdout.String(), "warning line")
	assert.NotContains(t, stdout.String(), "error line")

	assert.Contains(t, stderr.String(), "WARNING warning line")
	assert.Contains(t, stderr.String(), "ERROR error line")
	assert.NotContains(t, stderr.String(), "info line")
}

func TestConsoleVerboseEnablesDebug(t *testing.T) {
	var stdout, stderr strings.Builder
	log, path := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr, Verbose: true})

	log.Debug("connection diagnostics")

	assert.Contains(t, stdout.String(), "DEBUG connection diagnostics")

	// verbose affects only the console
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}

func TestWithAttrsCarriedOnEveryLine(t *testing.T) {
	var stdout, stderr strings.Builder
	log, path := newTestLogger(t, Options{Stdout: &stdout, Stderr: &stderr})

	runLog := log.With("destination", "OU=Workstations,DC=example,DC=com")
	runLog.Info("first")
	runLog.Info("second")

	for _, line := range readLines(t, path) {
		assert.Contains(t, line, `destination="OU=Workstations,DC=example,DC=com"`)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestAuditWriteFailureWarnsOncePerSink(t *testing.T) {
	var errOut strings.Builder
	log := slog.New(newAuditHandler(failingWriter{}, &errOut))

	log.Info("first")
	log.With("destination", "OU=Workstations,DC=example,DC=com").Info("second")
	log.With("run", "2").With("host", "dc01").Error("third")

	// derived loggers share the sink, so the failure surfaces exactly once
	assert.Equal(t, 1, strings.Count(errOut.String(), "audit log write failed"))
}

func TestLevelLabel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DEBUG"},
		{slog.LevelInfo, "INFO"},
		{LevelSuccess, "SUCCESS"},
		{slog.LevelWarn, "WARNING"},
		{slog.LevelError, "ERROR"},
		{slog.LevelError + 4, "ERROR"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelLabel(tt.level))
	}
}

func TestFormatValueQuoting(t *testing.T) {
	tests := []struct {
		name string
		in   slog.Value
		want string
	}{
		{name: "bare string", in: slog.StringValue("computers.txt"), want: "computers.txt"},
		{name: "string with spaces", in: slog.StringValue("not found"), want: `"not found"`},
		{name: "string with equals", in: slog.StringValue("CN=WS-001"), want: `"CN=WS-001"`},
		{name: "empty string", in: slog.StringValue(""), want: `""`},
		{name: "int", in: slog.IntValue(42), want: "42"},
		{name: "bool", in: slog.BoolValue(true), want: "true"},
		{name: "duration", in: slog.DurationValue(1500 * time.Millisecond), want: "1.5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.in))
		})
	}
}
