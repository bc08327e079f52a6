package batch

import (
	"context"
	"io"
	"log/slog"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/8bits1beard-io/admove/internal/logging"
)

// Summarize writes the run totals to the audit log and renders a summary
// table to w.
func Summarize(result Result, log *slog.Logger, w io.Writer) {
	log.Info("run complete",
		"total_processed", result.TotalProcessed,
		"successful", result.Successful,
		"failed", result.Failed,
		"log_path", result.LogPath)
	log.Log(context.Background(), logging.LevelSuccess, "results logged",
		"log_path", result.LogPath)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Total processed", strconv.Itoa(result.TotalProcessed)},
		{"Successful", strconv.Itoa(result.Successful)},
		{"Failed", strconv.Itoa(result.Failed)},
		{"Log file", result.LogPath},
	})
	t.SetStyle(table.StyleLight)
	t.Render()
}
