package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/store"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Recompute checksums and compare against the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}
			if err := store.Verify(root); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
