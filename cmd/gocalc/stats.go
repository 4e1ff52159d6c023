package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/storage"
)

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show history and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.service.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), stats, opts.jsonOutput)
		},
	}
}

func printStats(w io.Writer, stats *storage.Stats, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	label := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(w, "%s %d\n", label("Total:"), stats.Total)
	fmt.Fprintf(w, "%s %s\n", label("Succeeded:"), color.GreenString("%d", stats.Succeeded))
	fmt.Fprintf(w, "%s %s\n", label("Failed:"), color.RedString("%d", stats.Failed))

	kinds := make([]string, 0, len(stats.ErrorsByKind))
	for kind := range stats.ErrorsByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %s: %d\n", kind, stats.ErrorsByKind[kind])
	}

	if !stats.LastEvaluatedAt.IsZero() {
		fmt.Fprintf(w, "%s %s\n", label("Last evaluation:"), stats.LastEvaluatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	_, err := fmt.Fprintf(w, "%s %.2f MB\n", label("Database size:"), stats.DatabaseSizeMB)
	return err
}
