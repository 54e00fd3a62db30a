package cmd

import (
	"github.com/spf13/cobra"
)

// newIndexCmd builds the "index" command group: build, query, status,
// verify, clean, ignore.
func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build and query the local semantic code index",
	}

	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newIgnoreCmd())

	return cmd
}
