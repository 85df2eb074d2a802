package main

import (
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/bluehands/internal/branch"
	"github.com/sells-group/bluehands/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search loaded service centers",
	Long: `Searches branches by name or address substring, required service flags and
region. With --lat and --lng results are ranked by distance.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("db"); err != nil {
			return err
		}

		f, err := searchFilter(cmd, args)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		pool, err := openPool(ctx, 0)
		if err != nil {
			return err
		}
		defer pool.Close()

		results, err := branch.NewStore(pool).Search(ctx, f)
		if err != nil {
			return err
		}
		formatResults(os.Stdout, results)
		return nil
	},
}

func init() {
	searchCmd.Flags().StringSlice("flag", nil, "required service flags, e.g. ev,hydrogen")
	searchCmd.Flags().String("region", branch.AllRegions, "region name")
	searchCmd.Flags().Float64("lat", 0, "latitude to rank by distance from")
	searchCmd.Flags().Float64("lng", 0, "longitude to rank by distance from")
	searchCmd.Flags().Int("limit", 50, "maximum results (0 for all)")
	rootCmd.AddCommand(searchCmd)
}

func searchFilter(cmd *cobra.Command, args []string) (branch.Filter, error) {
	var f branch.Filter
	if len(args) > 0 {
		f.Text = args[0]
	}
	f.Region, _ = cmd.Flags().GetString("region")
	f.Limit, _ = cmd.Flags().GetInt("limit")

	names, _ := cmd.Flags().GetStringSlice("flag")
	for _, n := range names {
		fl, err := model.ParseFlag(n)
		if err != nil {
			return branch.Filter{}, err
		}
		f.Flags = append(f.Flags, fl)
	}

	latSet, lngSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	if latSet != lngSet {
		return branch.Filter{}, eris.New("search: --lat and --lng must be given together")
	}
	if latSet {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lng, _ := cmd.Flags().GetFloat64("lng")
		f.Near = &branch.Point{Lat: lat, Lon: lng}
	}
	return f, nil
}

// formatResults writes search results as a table to w.
func formatResults(w io.Writer, results []branch.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Region", "Type", "Address", "Phone", "Services", "Distance"})
	for _, r := range results {
		dist := ""
		if r.DistanceKm != nil {
			dist = branch.FormatDistance(*r.DistanceKm)
		}
		t.AppendRow(table.Row{
			r.ID, r.Name, r.Region, r.Type,
			deref(r.Address), deref(r.Phone),
			strings.Join(r.Services, ", "), dist,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(results)})
	t.Render()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
