// Package worklist loads object identifiers for a relocation run from a
// plain text file, one identifier per line.
package worklist

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// LoadError indicates the worklist could not be read or yielded nothing
// actionable. It is fatal to a run.
type LoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("worklist %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("worklist %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// Load reads identifiers from path, trimming surrounding whitespace and
// dropping blank lines. Each skipped blank line is logged as a warning with
// its line number. An unreadable file or a file with no usable identifiers
// returns a LoadError.
func Load(path string, log *slog.Logger) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "cannot read input file", Cause: err}
	}
	defer file.Close()

	var identifiers []string
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		identifier := strings.TrimSpace(scanner.Text())
		if identifier == "" {
			log.Warn("skipping blank line in input file", "line", lineNo)
			continue
		}
		identifiers = append(identifiers, identifier)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Path: path, Message: "error while reading input file", Cause: err}
	}

	if len(identifiers) == 0 {
		return nil, &LoadError{Path: path, Message: "no identifiers found in input file"}
	}

	return identifiers, nil
}
