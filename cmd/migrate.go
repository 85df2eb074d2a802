package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/bluehands/internal/schema"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations",
	Long:  "Applies all pending SQL migrations (regions, service_types, bluehands, run_log) in lexicographic order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("db"); err != nil {
			return err
		}
		ctx := cmd.Context()

		pool, err := openPool(ctx, 1)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := schema.Migrate(ctx, pool)
		if err != nil {
			return eris.Wrap(err, "migrate")
		}

		zap.L().Info("migrations applied", zap.Strings("applied", applied))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
