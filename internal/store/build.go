package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/codex-agentic/semidx/internal/chunk"
	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/idxerr"
	"github.com/codex-agentic/semidx/internal/ignore"
	"github.com/codex-agentic/semidx/internal/scanner"
	"github.com/codex-agentic/semidx/internal/vcsinfo"
)

// BuildParams configures a build.
type BuildParams struct {
	Model   string
	Chunk   chunk.Mode
	Lines   int
	Overlap int
	Force   bool // reserved for CLI compatibility; every build fully replaces the index regardless
}

// BuildResult summarizes a completed build for CLI/log output.
type BuildResult struct {
	Files  int
	Chunks int
	Dim    int
}

// Build runs the full build protocol: acquire the lock, scan, chunk,
// embed, write every artifact via tmp+rename, build the ANN graph, and
// release the lock on every exit path.
func Build(ctx context.Context, root string, params BuildParams) (BuildResult, error) {
	paths := NewPaths(root)
	if err := os.MkdirAll(paths.Dir, 0o755); err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "create index directory", err)
	}

	lock := NewBuildLock(paths)
	acquired, err := lock.TryAcquire()
	if err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "acquire build lock", err)
	}
	if !acquired {
		return BuildResult{}, idxerr.New(idxerr.KindIgnorableConcurrent, "build already in progress")
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			slog.Warn("build_lock_release_failed", slog.String("error", relErr.Error()))
		}
	}()

	analytics, _ := LoadAnalytics(paths.Analytics)
	analytics.LastAttemptTS = nowRFC3339()
	if err := WriteAnalytics(paths.Analytics, analytics); err != nil {
		slog.Warn("analytics_attempt_record_failed", slog.String("error", err.Error()))
	}

	matcher, err := ignore.Load(root)
	if err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindScan, "load ignore ruleset", err)
	}

	files, err := scanner.New(matcher).Scan(ctx, root)
	if err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindScan, "scan workspace", err)
	}
	slog.Info("scan_complete", slog.Int("files", len(files)))

	chunkOpts := chunk.Options{Mode: params.Chunk, Target: params.Lines, Overlap: params.Overlap}.Normalize()

	var ids []uint64
	var vectors [][]float32
	var rows []MetaRow
	dim := 0
	var nextID uint64

	for _, f := range files {
		ranges := chunk.Chunk(ctx, f.Language, f.Content, chunkOpts)
		for _, r := range ranges {
			raw := f.Content[r.StartByte:r.EndByte]

			vec, err := embed.Embed(params.Model, string(raw))
			if err != nil {
				return BuildResult{}, idxerr.Wrap(idxerr.KindEmbedding, "embed chunk", err)
			}
			if embed.IsZero(vec) {
				continue // dropped; the id is allocated only for retained vectors
			}
			embed.Normalize(vec)

			if dim == 0 {
				dim = len(vec)
			} else if len(vec) != dim {
				return BuildResult{}, idxerr.New(idxerr.KindEmbedding, fmt.Sprintf("embedding dimension drift: got %d, want %d", len(vec), dim))
			}

			startLine, endLine := chunk.LineRange(f.Content, r.StartByte, r.EndByte)
			sum := sha256.Sum256(raw)

			id := nextID
			nextID++

			ids = append(ids, id)
			vectors = append(vectors, vec)
			rows = append(rows, MetaRow{
				ID:      id,
				Path:    f.Path,
				Start:   uint32(startLine),
				End:     uint32(endLine),
				Lang:    f.Language,
				SHA256:  hex.EncodeToString(sum[:]),
				Preview: chunk.Preview(raw),
			})
		}
	}

	manifest := Manifest{
		IndexVersion: CurrentIndexVersion,
		Engine:       Engine,
		Model:        params.Model,
		Dim:          dim,
		Metric:       "cosine",
		ChunkMode:    string(params.Chunk),
		ChunkConfig:  ChunkConfig{Lines: chunkOpts.Target, Overlap: chunkOpts.Overlap},
		RepoRoot:     root,
		VCSHead:      vcsinfo.HeadSHA(root),
		Counts:       Counts{Files: len(files), Chunks: len(rows)},
		CreatedAt:    nowRFC3339(),
		LastRefresh:  nowRFC3339(),
	}

	if existing, err := LoadManifest(paths.Manifest); err == nil {
		manifest.CreatedAt = existing.CreatedAt
	}

	if len(rows) == 0 {
		// Zero vectors still produce a minimal, valid manifest.
		if err := WriteManifest(paths.Manifest, manifest); err != nil {
			return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "write manifest", err)
		}
		return BuildResult{Files: len(files), Chunks: 0, Dim: 0}, nil
	}

	vf := VectorFile{Dim: dim, IDs: ids, Data: vectors}
	if err := WriteVectors(paths.Vectors, vf); err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "write vectors", err)
	}
	if err := WriteMeta(paths.Meta, rows); err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "write meta", err)
	}

	ann := BuildANN(vf)
	if err := ann.Save(paths.Graph, paths.GraphData); err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "save ann graph", err)
	}

	vectorsSHA, err := SHA256File(paths.Vectors)
	if err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "checksum vectors", err)
	}
	metaSHA, err := SHA256File(paths.Meta)
	if err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "checksum meta", err)
	}
	manifest.Checksums = Checksums{Vectors: vectorsSHA, Meta: metaSHA}

	if err := WriteManifest(paths.Manifest, manifest); err != nil {
		return BuildResult{}, idxerr.Wrap(idxerr.KindSerialization, "write manifest", err)
	}

	slog.Info("build_complete",
		slog.Int("files", len(files)),
		slog.Int("chunks", len(rows)),
		slog.Int("dim", dim),
		slog.String("model", params.Model),
	)

	return BuildResult{Files: len(files), Chunks: len(rows), Dim: dim}, nil
}

// Verify recomputes checksums for vectors.hnsw and meta.jsonl and
// compares them against the manifest.
func Verify(root string) error {
	paths := NewPaths(root)
	manifest, err := LoadManifest(paths.Manifest)
	if err != nil {
		return idxerr.Wrap(idxerr.KindMissingIndex, "load manifest", err)
	}
	if manifest.Counts.Chunks == 0 {
		return nil
	}

	vectorsSHA, err := SHA256File(paths.Vectors)
	if err != nil {
		return idxerr.Wrap(idxerr.KindIntegrityMismatch, "checksum vectors", err)
	}
	metaSHA, err := SHA256File(paths.Meta)
	if err != nil {
		return idxerr.Wrap(idxerr.KindIntegrityMismatch, "checksum meta", err)
	}

	if vectorsSHA != manifest.Checksums.Vectors || metaSHA != manifest.Checksums.Meta {
		return idxerr.New(idxerr.KindIntegrityMismatch, "checksum mismatch against manifest")
	}
	return nil
}

// Clean recursively removes the index directory.
func Clean(root string) error {
	paths := NewPaths(root)
	if err := os.RemoveAll(paths.Dir); err != nil {
		return idxerr.Wrap(idxerr.KindSerialization, "remove index directory", err)
	}
	return nil
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
