package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/storage"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newHistoryCmd(opts *options) *cobra.Command {
	filter := &storage.ListFilter{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded evaluations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			evals, err := a.service.History(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printHistory(cmd.OutOrStdout(), evals, opts.jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", storage.DefaultListLimit, "maximum entries to show")
	cmd.Flags().IntVar(&filter.Offset, "offset", 0, "entries to skip")
	cmd.Flags().BoolVar(&filter.OnlyErrors, "errors", false, "show failed evaluations only")
	cmd.Flags().StringVar(&filter.Source, "source", "", "filter by source (mcp, http, cli, tui, batch)")
	cmd.Flags().StringVar(&filter.BatchID, "batch", "", "filter by batch ID")

	cmd.AddCommand(newHistoryClearCmd(opts))
	return cmd
}

func newHistoryClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded evaluations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.service.ClearHistory(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d evaluations\n", n)
			return err
		},
	}
}

// historyEntry is the --json form of a history row
type historyEntry struct {
	ID         int64       `json:"id"`
	BatchID    string      `json:"batch_id,omitempty"`
	Expression string      `json:"expression"`
	Source     string      `json:"source"`
	Value      interface{} `json:"value,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Position   *int        `json:"position,omitempty"`
	CreatedAt  string      `json:"created_at"`
}

func printHistory(w io.Writer, evals []*types.Evaluation, asJSON bool) error {
	if asJSON {
		entries := make([]historyEntry, 0, len(evals))
		for _, e := range evals {
			entry := historyEntry{
				ID:         e.ID,
				BatchID:    e.BatchID,
				Expression: e.Expression,
				Source:     e.Source,
				CreatedAt:  e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			}
			if e.Err != nil {
				pos := e.Err.Position
				entry.Error = e.Err.Message
				entry.Kind = string(e.Err.Kind)
				entry.Position = &pos
			} else {
				entry.Value = types.JSONValue(e.Value)
			}
			entries = append(entries, entry)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(evals) == 0 {
		_, err := fmt.Fprintln(w, "No evaluations recorded")
		return err
	}

	rows := make([][]string, 0, len(evals))
	for _, e := range evals {
		result := color.GreenString("%s", e.FormattedValue())
		if e.Err != nil {
			result = color.RedString("%s", e.Err.Message)
		}
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Source,
			e.Expression,
			result,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "TIME", "SOURCE", "EXPRESSION", "RESULT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintln(w, t.String())
	return err
}
