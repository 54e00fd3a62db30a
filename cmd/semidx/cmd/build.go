package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codex-agentic/semidx/internal/chunk"
	"github.com/codex-agentic/semidx/internal/config"
	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/idxerr"
	"github.com/codex-agentic/semidx/internal/store"
)

func newBuildCmd() *cobra.Command {
	var (
		model     string
		force     bool
		chunkMode string
		lines     int
		overlap   int
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build (or rebuild) the index for the current repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := resolveRoot()
			if err != nil {
				return err
			}

			cfg, _ := config.Load(root)
			cfg.ApplyTo(&model, &chunkMode, &lines, &overlap)

			if model == "" {
				model = embed.ModelBgeSmall
			}
			if _, ok := embed.Dimension(model); !ok {
				return idxerr.New(idxerr.KindEmbedding, fmt.Sprintf("unrecognized model %q", model))
			}
			mode := chunk.ModeAuto
			if chunkMode != "" {
				mode = chunk.Mode(chunkMode)
			}
			if mode != chunk.ModeAuto && mode != chunk.ModeLines {
				return idxerr.New(idxerr.KindEmbedding, fmt.Sprintf("unrecognized chunk mode %q", chunkMode))
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			result, err := store.Build(ctx, root, store.BuildParams{
				Model:   model,
				Chunk:   mode,
				Lines:   lines,
				Overlap: overlap,
				Force:   force,
			})
			if err != nil {
				if kind, ok := idxerr.KindOf(err); ok && kind == idxerr.KindIgnorableConcurrent {
					fmt.Fprintln(cmd.OutOrStdout(), "build already in progress, skipping")
					return nil
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d files, %d chunks (model=%s, dim=%d)\n",
				result.Files, result.Chunks, model, result.Dim)
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "embedding model: bge-small or bge-large (default bge-small)")
	cmd.Flags().BoolVar(&force, "force", false, "rebuild even if an index already exists")
	cmd.Flags().StringVar(&chunkMode, "chunk", "", "chunk mode: auto or lines (default auto)")
	cmd.Flags().IntVar(&lines, "lines", 0, "target lines per chunk (default 160)")
	cmd.Flags().IntVar(&overlap, "overlap", 0, "overlap lines between chunks (default 32)")

	return cmd
}
