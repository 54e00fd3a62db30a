package cmd

import (
	"fmt"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/store"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index readiness, model, and analytics (does not re-verify)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}

			status, ok := store.LoadStatus(root)
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Index: Missing")
				return nil
			}

			color := isatty.IsTerminal(osStdoutFd())
			label := "Ready"
			if color {
				label = "\x1b[32mReady\x1b[0m"
			}
			fmt.Fprintf(out, "Index: %s\n", label)
			fmt.Fprintf(out, "Model: %s (%d-D)\n", status.Model, status.Dim)
			fmt.Fprintf(out, "Vectors: %d\n", status.Vectors)
			fmt.Fprintf(out, "Last refresh: %s (%s)\n", status.LastRefresh, status.RelativeAge)
			fmt.Fprintf(out, "Queries: %d  Hits: %d  Misses: %d\n",
				status.Analytics.Queries, status.Analytics.Hits, status.Analytics.Misses)
			return nil
		},
	}
	return cmd
}
