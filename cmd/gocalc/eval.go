package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/gocalc-mcp/internal/evaluator"
	"github.com/dshills/gocalc-mcp/pkg/types"
)

// evalOutput is the --json form of one evaluation
type evalOutput struct {
	Expression string      `json:"expression"`
	Value      interface{} `json:"value,omitempty"`
	Trailing   string      `json:"trailing,omitempty"`
	Error      string      `json:"error,omitempty"`
	Kind       string      `json:"kind,omitempty"`
	Position   *int        `json:"position,omitempty"`
}

func runEval(cmd *cobra.Command, opts *options, args []string) error {
	exprs, err := collectExpressions(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, expr := range exprs {
		eval, err := a.service.Evaluate(cmd.Context(), evaluator.Request{
			Expression: expr,
			Source:     types.SourceCLI,
		})
		if err != nil {
			return err
		}
		if !eval.Succeeded() {
			failed++
		}
		if err := printEvaluation(out, eval, opts.jsonOutput); err != nil {
			return err
		}
	}

	if failed > 0 {
		return errEvaluationFailed
	}
	return nil
}

// collectExpressions expands a "-" argument into the non-blank lines of in
func collectExpressions(in io.Reader, args []string) ([]string, error) {
	exprs := make([]string, 0, len(args))
	for _, arg := range args {
		if arg != "-" {
			exprs = append(exprs, arg)
			continue
		}
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			exprs = append(exprs, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	}
	return exprs, nil
}

func printEvaluation(w io.Writer, eval *types.Evaluation, asJSON bool) error {
	if asJSON {
		out := evalOutput{Expression: eval.Expression}
		if eval.Err != nil {
			pos := eval.Err.Position
			out.Error = eval.Err.Message
			out.Kind = string(eval.Err.Kind)
			out.Position = &pos
		} else {
			out.Value = types.JSONValue(eval.Value)
			out.Trailing = eval.Trailing
		}
		return json.NewEncoder(w).Encode(out)
	}

	if eval.Err != nil {
		_, err := fmt.Fprintln(w, color.RedString("%s: %s (position %d)",
			eval.Expression, eval.Err.Message, eval.Err.Position))
		return err
	}

	line := color.GreenString("%s", eval.FormattedValue())
	if eval.Trailing != "" {
		line += color.YellowString(" (ignored %q)", eval.Trailing)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
