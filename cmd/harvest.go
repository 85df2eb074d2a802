package main

import (
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/fetcher"
	"github.com/sells-group/bluehands/internal/harvest"
	"github.com/sells-group/bluehands/internal/recordset"
	"github.com/sells-group/bluehands/internal/runlog"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest service center listings into a record set",
	Long: `Pages through the listing endpoint for every region and writes all records
with usable coordinates to a CSV record set (UTF-8 with BOM). A failing region
keeps what it fetched and the run moves on to the next region.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if out, _ := cmd.Flags().GetString("output"); out != "" {
			cfg.Harvest.Output = out
		}
		if err := cfg.Validate("harvest"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		all, err := harvest.LoadRegions(cfg.Harvest.RegionsFile)
		if err != nil {
			return err
		}
		aliases, _ := cmd.Flags().GetStringSlice("regions")
		regions, err := harvest.SelectRegions(all, aliases)
		if err != nil {
			return err
		}

		runs, finish := startRun(ctx, runlog.KindHarvest)
		defer finish()

		f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:   cfg.Harvest.UserAgent,
			Timeout:     cfg.Harvest.RequestTimeout(),
			MaxAttempts: cfg.Harvest.MaxAttempts,
			Delay:       cfg.Harvest.Delay(),
			Header:      http.Header{"Accept": []string{"application/json, text/javascript, */*; q=0.01"}},
		})
		src := harvest.NewHTTPSource(f, cfg.Harvest.URL, cfg.Harvest.Referer)
		h := harvest.New(src,
			harvest.WithPageSize(cfg.Harvest.PageSize),
			harvest.WithDeadline(cfg.Harvest.Deadline()),
		)

		res := h.Run(ctx, regions)

		// Partial results are written even when the run was interrupted.
		if err := recordset.WriteCSVFile(cfg.Harvest.Output, res.Records); err != nil {
			runs.fail(err)
			return err
		}
		zap.L().Info("record set written",
			zap.String("path", cfg.Harvest.Output),
			zap.Int("records", len(res.Records)),
		)

		if xlsxPath, _ := cmd.Flags().GetString("xlsx"); xlsxPath != "" {
			if err := recordset.WriteXLSXFile(xlsxPath, res.Records); err != nil {
				runs.fail(err)
				return err
			}
			zap.L().Info("xlsx copy written", zap.String("path", xlsxPath))
		}

		formatRegionCounts(os.Stdout, res)

		if res.Err != nil {
			runs.fail(res.Err)
			return res.Err
		}
		runs.complete(&runlog.Result{
			RowsWritten: int64(len(res.Records)),
			Metadata:    harvestMetadata(res),
		})
		return nil
	},
}

func init() {
	harvestCmd.Flags().StringSlice("regions", nil, "region aliases to harvest (default all)")
	harvestCmd.Flags().String("output", "", "CSV output path (overrides harvest.output)")
	harvestCmd.Flags().String("xlsx", "", "also write an XLSX copy to this path")
	rootCmd.AddCommand(harvestCmd)
}

func harvestMetadata(res *harvest.Result) map[string]any {
	counts := make(map[string]int, len(res.Partitions))
	for _, c := range res.CountsByRegion() {
		counts[c.Alias] = c.Count
	}
	failed := []string{}
	for _, p := range res.Failed() {
		failed = append(failed, p.Alias)
	}
	return map[string]any{
		"regions": counts,
		"failed":  failed,
		"output":  cfg.Harvest.Output,
	}
}

// formatRegionCounts writes per-region record counts to w.
func formatRegionCounts(w io.Writer, res *harvest.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Region", "Name", "Pages", "Records", "Dropped", "Error"})
	for _, p := range res.Partitions {
		errMsg := ""
		if p.Err != nil {
			errMsg = truncate(p.Err.Error(), 60)
		}
		t.AppendRow(table.Row{p.Alias, p.FullName, p.Pages, len(p.Records), p.Dropped, errMsg})
	}
	t.AppendFooter(table.Row{"", "Total", "", len(res.Records), "", ""})
	t.Render()
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
