package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/query"
)

func newQueryCmd() *cobra.Command {
	var (
		k               int
		showSnippets    bool
		output          string
		noLineNumbers   bool
		lineNumberWidth int
		diff            bool
	)

	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Run a top-K similarity search against the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], queryFlags{
				K:               k,
				ShowSnippets:    showSnippets,
				Output:          output,
				NoLineNumbers:   noLineNumbers,
				LineNumberWidth: lineNumberWidth,
				Diff:            diff,
			})
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of results to return")
	cmd.Flags().BoolVar(&showSnippets, "show-snippets", false, "include preview lines in the output")
	cmd.Flags().StringVar(&output, "output", "text", "output format: text, json, or xml")
	cmd.Flags().BoolVar(&noLineNumbers, "no-line-numbers", false, "omit line numbers from snippet lines")
	cmd.Flags().IntVar(&lineNumberWidth, "line-number-width", 6, "column width for snippet line numbers")
	cmd.Flags().BoolVar(&diff, "diff", false, "prefix snippet lines with a diff-style '+ '")

	return cmd
}

// newSearchCodeCmd is the top-level "search-code" alias for
// "index query ... --show-snippets".
func newSearchCodeCmd() *cobra.Command {
	var (
		k               int
		output          string
		noLineNumbers   bool
		lineNumberWidth int
		diff            bool
	)

	cmd := &cobra.Command{
		Use:   "search-code <text>",
		Short: "Alias for 'index query ... --show-snippets'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], queryFlags{
				K:               k,
				ShowSnippets:    true,
				Output:          output,
				NoLineNumbers:   noLineNumbers,
				LineNumberWidth: lineNumberWidth,
				Diff:            diff,
			})
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 10, "number of results to return")
	cmd.Flags().StringVar(&output, "output", "text", "output format: text, json, or xml")
	cmd.Flags().BoolVar(&noLineNumbers, "no-line-numbers", false, "omit line numbers from snippet lines")
	cmd.Flags().IntVar(&lineNumberWidth, "line-number-width", 6, "column width for snippet line numbers")
	cmd.Flags().BoolVar(&diff, "diff", false, "prefix snippet lines with a diff-style '+ '")

	return cmd
}

type queryFlags struct {
	K               int
	ShowSnippets    bool
	Output          string
	NoLineNumbers   bool
	LineNumberWidth int
	Diff            bool
}

func runQuery(cmd *cobra.Command, text string, flags queryFlags) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	triggerMaintenance(ctx, root)

	result, err := query.Run(root, query.Params{
		Text:         text,
		K:            flags.K,
		ShowSnippets: flags.ShowSnippets,
	})
	if err != nil {
		return err
	}

	format := query.Format(flags.Output)
	rendered := query.Render(result, format, query.RenderOptions{
		NoLineNumbers:   flags.NoLineNumbers,
		LineNumberWidth: flags.LineNumberWidth,
		Diff:            flags.Diff,
	})
	fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return nil
}
