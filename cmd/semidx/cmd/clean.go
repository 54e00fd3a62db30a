package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/store"
)

func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove the index directory",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			if err := store.Clean(root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "removed index")
			return nil
		},
	}
}
