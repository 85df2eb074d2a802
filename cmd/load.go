package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/load"
	"github.com/sells-group/bluehands/internal/runlog"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a record set into Postgres",
	Long: `Reads the harvested record set (CSV or XLSX), normalizes it and writes
regions, service types and branches in a single transaction. Any failure
rolls the whole load back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if in, _ := cmd.Flags().GetString("input"); in != "" {
			cfg.Load.Input = in
		}
		if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
			cfg.Load.Mode = mode
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// A bad input fails here, before any database I/O.
		set, err := load.ReadFile(ctx, cfg.Load.Input)
		if err != nil {
			return err
		}

		if err := cfg.Validate("load"); err != nil {
			return err
		}
		if d := cfg.Load.Deadline(); d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}

		// One connection: the run log writes happen before Begin and after
		// Commit or Rollback.
		pool, err := openPool(ctx, 1)
		if err != nil {
			return err
		}
		defer pool.Close()

		runs := beginRun(ctx, runlog.New(pool), runlog.KindLoad)

		l := load.New(pool, load.WithMode(cfg.Load.Mode), load.WithDryRun(dryRun))
		rep, err := l.Load(ctx, set)
		if err != nil {
			runs.fail(err)
			return err
		}

		meta := rep.Metadata()
		meta["input"] = cfg.Load.Input
		runs.complete(&runlog.Result{RowsWritten: rep.Inserted, Metadata: meta})

		zap.L().Info("load complete",
			zap.String("input", cfg.Load.Input),
			zap.Int64("inserted", rep.Inserted),
			zap.Bool("dry_run", rep.DryRun),
		)
		formatReport(os.Stdout, rep)
		return nil
	},
}

func init() {
	loadCmd.Flags().String("input", "", "record set to load (overrides load.input)")
	loadCmd.Flags().String("mode", "", "write mode: upsert, replace or append (overrides load.mode)")
	loadCmd.Flags().Bool("dry-run", false, "validate and resolve everything, then roll back")
	rootCmd.AddCommand(loadCmd)
}

// formatReport writes a load report summary to w.
func formatReport(w io.Writer, r *load.Report) {
	verb := "inserted"
	if r.DryRun {
		verb = "would insert"
	}
	_, _ = fmt.Fprintf(w, "mode:           %s\n", r.Mode)
	_, _ = fmt.Fprintf(w, "regions:        %d (%d new)\n", r.Regions, r.RegionsCreated)
	_, _ = fmt.Fprintf(w, "service types:  %d (%d new)\n", r.ServiceTypes, r.ServiceTypesCreated)
	_, _ = fmt.Fprintf(w, "rows read:      %d\n", r.RowsRead)
	_, _ = fmt.Fprintf(w, "rows dropped:   %d missing required, %d unresolved, %d duplicate\n",
		r.DroppedRequired, r.DroppedUnresolved, r.DroppedDuplicate)
	_, _ = fmt.Fprintf(w, "%-15s %d\n", "rows "+verb+":", r.Inserted)
}
