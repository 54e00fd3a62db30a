// Package cmd provides the CLI commands for the semidx local semantic
// code index.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/applog"
	"github.com/codex-agentic/semidx/internal/idxerr"
	"github.com/codex-agentic/semidx/internal/maintain"
	"github.com/codex-agentic/semidx/internal/vcsinfo"
)

var debugMode bool

// NewRootCmd builds the root command: persistent --debug flag, logging
// setup, and the index/search-code subcommand tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "semidx",
		Short:         "Local semantic code index",
		Long:          `semidx maintains a per-repository on-disk vector index and serves top-K similarity search over source files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			applog.Setup(debugMode)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug logging")

	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCodeCmd())

	return root
}

// Execute runs the root command and maps any returned error to a
// process exit code via idxerr.ExitCode. Errors are printed to
// stderr as a short line rather than surfaced as a panic/usage dump.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err == nil {
		return 0
	}

	if kind, ok := idxerr.KindOf(err); ok {
		code := idxerr.ExitCode(kind)
		if code != 0 {
			fmt.Fprintln(os.Stderr, "semidx:", err)
		}
		return code
	}

	fmt.Fprintln(os.Stderr, "semidx:", err)
	return 1
}

// resolveRoot finds the repository root for the current working
// directory, preferring the VCS toplevel and falling back to the
// working directory itself.
func resolveRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return vcsinfo.RepoRoot(cwd), nil
}

// signalContext wraps ctx with SIGINT/SIGTERM cancellation.
func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// osStdoutFd returns stdout's file descriptor for go-isatty terminal
// detection. Machine output formats and build output are always plain;
// only the status command's Ready label gets color.
func osStdoutFd() uintptr {
	return os.Stdout.Fd()
}

// triggerMaintenance starts the first-run build (if needed) and the
// periodic maintenance loop for root, both gated on CODEX_INDEXING.
// Both run in background goroutines and do not block the caller; a
// one-shot CLI invocation may exit before either completes. Background
// maintenance is best effort and swallows its own errors.
func triggerMaintenance(ctx context.Context, root string) {
	maintain.FirstRun(root)
	maintain.StartPeriodic(ctx, root)
}
