package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show harvest and load run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("db"); err != nil {
			return err
		}
		ctx := cmd.Context()

		kind, _ := cmd.Flags().GetString("kind")
		switch kind {
		case "", runlog.KindHarvest, runlog.KindLoad:
		default:
			return eris.Errorf("runs: unknown kind %q", kind)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		pool, err := openPool(ctx, 1)
		if err != nil {
			return err
		}
		defer pool.Close()

		entries, err := runlog.New(pool).List(ctx, kind, limit)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if len(entries) == 0 {
			zap.L().Info("no runs found")
			return nil
		}
		formatRuns(os.Stdout, entries)
		return nil
	},
}

func init() {
	runsCmd.Flags().String("kind", "", "filter by kind (harvest or load)")
	runsCmd.Flags().Int("limit", 20, "maximum entries (0 for all)")
	runsCmd.Flags().Bool("json", false, "print entries as JSON")
	rootCmd.AddCommand(runsCmd)
}

// formatRuns writes run log entries as a table to w.
func formatRuns(w io.Writer, entries []runlog.Entry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Kind", "Status", "Started", "Duration", "Rows", "Error"})
	for _, e := range entries {
		dur := "-"
		if e.CompletedAt != nil {
			dur = e.Duration().Round(time.Second).String()
		}
		t.AppendRow(table.Row{
			e.ID.String()[:8],
			e.Kind,
			e.Status,
			e.StartedAt.Format("2006-01-02 15:04"),
			dur,
			fmt.Sprint(e.RowsWritten),
			truncate(e.Error, 60),
		})
	}
	t.Render()
}
