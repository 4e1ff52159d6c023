package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// errEvaluationFailed makes the process exit 1 after results were printed
var errEvaluationFailed = errors.New("one or more expressions failed")

// options holds the persistent flags shared by every command
type options struct {
	configPath string
	dbPath     string
	noHistory  bool
	maxDepth   int
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "gocalc [expression...]",
		Short: "Evaluate arithmetic expressions",
		Long: `gocalc evaluates arithmetic expressions with + - * / and parentheses.

Each argument is evaluated separately. Pass "-" to read one expression per
line from standard input. Evaluations are recorded in a local SQLite history
unless --no-history is set.

Subcommands expose the same evaluator as an MCP stdio server, an HTTP API
and an interactive terminal calculator.`,
		Example: `  gocalc "2+3*4"
  gocalc "(1+2)/3" "10/4"
  echo "7*6" | gocalc -`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runEval(cmd, opts, args)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "config file (YAML or JSON, default $GOCALC_CONFIG)")
	flags.StringVar(&opts.dbPath, "db", "", "history database path (default ~/.gocalc/history.db)")
	flags.BoolVar(&opts.noHistory, "no-history", false, "do not record evaluations")
	flags.IntVar(&opts.maxDepth, "max-depth", 0, "maximum parenthesis nesting (0 = unlimited)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(
		newServeCmd(opts),
		newHTTPCmd(opts),
		newTUICmd(opts),
		newHistoryCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errEvaluationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
