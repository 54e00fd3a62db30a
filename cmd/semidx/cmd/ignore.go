package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/ignore"
)

func newIgnoreCmd() *cobra.Command {
	var (
		add    []string
		remove []string
		reset  bool
		list   bool
	)

	cmd := &cobra.Command{
		Use:   "ignore",
		Short: "Manage the ignore ruleset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}

			matcher, err := ignore.Load(root)
			if err != nil {
				return err
			}

			if reset {
				if err := matcher.Reset(root); err != nil {
					return err
				}
			}
			if len(remove) > 0 {
				if err := matcher.Remove(root, remove...); err != nil {
					return err
				}
			}
			if len(add) > 0 {
				if err := matcher.Add(root, add...); err != nil {
					return err
				}
			}

			if list || (!reset && len(remove) == 0 && len(add) == 0) {
				for _, p := range matcher.Patterns() {
					fmt.Fprintln(cmd.OutOrStdout(), p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&add, "add", nil, "add a glob pattern (repeatable)")
	cmd.Flags().StringArrayVar(&remove, "remove", nil, "remove a glob pattern (repeatable)")
	cmd.Flags().BoolVar(&reset, "reset", false, "reset to the default ruleset")
	cmd.Flags().BoolVar(&list, "list", false, "print the current ruleset")

	return cmd
}
