package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-agentic/semidx/internal/chunk"
	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/idxerr"
)

func TestVectorFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")

	vf := VectorFile{
		Dim:  4,
		IDs:  []uint64{0, 1, 2},
		Data: [][]float32{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}},
	}
	require.NoError(t, WriteVectors(path, vf))

	got, err := ReadVectors(path)
	require.NoError(t, err)
	assert.Equal(t, vf.Dim, got.Dim)
	assert.Equal(t, vf.IDs, got.IDs)
	assert.Equal(t, vf.Data, got.Data)
}

func TestReadVectorsRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.hnsw")
	require.NoError(t, os.WriteFile(path, []byte("BAD0garbage"), 0o644))

	_, err := ReadVectors(path)
	assert.Error(t, err)
}

func TestMetaRoundTripByteIdentical(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.jsonl")

	rows := []MetaRow{
		{ID: 0, Path: "a.rs", Start: 1, End: 3, Lang: "rust", SHA256: "abc", Preview: "fn hello(){}\n"},
		{ID: 1, Path: "b.py", Start: 1, End: 2, Lang: "python", SHA256: "def", Preview: "def hello():\n"},
	}
	require.NoError(t, WriteMeta(path, rows))

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	got, err := ReadMeta(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	require.NoError(t, WriteMeta(path, got))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBuildLockSerializesConcurrentBuilds(t *testing.T) {
	dir := t.TempDir()
	paths := NewPaths(dir)
	require.NoError(t, os.MkdirAll(paths.Dir, 0o755))

	l1 := NewBuildLock(paths)
	ok, err := l1.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	l2 := NewBuildLock(paths)
	ok2, err := l2.TryAcquire()
	require.NoError(t, err)
	assert.False(t, ok2)

	require.NoError(t, l1.Release())
}

func TestBuildThenVerifySucceeds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("fn hello(){}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte("def hello():\n    pass\n"), 0o644))

	res, err := Build(context.Background(), dir, BuildParams{
		Model: embed.ModelBgeSmall,
		Chunk: chunk.ModeAuto,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, embed.DimBgeSmall, res.Dim)

	require.NoError(t, Verify(dir))
}

func TestBuildEmptyRepoProducesMinimalManifest(t *testing.T) {
	dir := t.TempDir()
	res, err := Build(context.Background(), dir, BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Chunks)
	assert.Equal(t, 0, res.Dim)

	paths := NewPaths(dir)
	manifest, err := LoadManifest(paths.Manifest)
	require.NoError(t, err)
	assert.Equal(t, 0, manifest.Dim)
	assert.Equal(t, 0, manifest.Counts.Chunks)
}

func TestVerifyDetectsTruncation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("fn hello(){}\n"), 0o644))

	_, err := Build(context.Background(), dir, BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)

	paths := NewPaths(dir)
	info, err := os.Stat(paths.Vectors)
	require.NoError(t, err)
	require.NoError(t, os.Truncate(paths.Vectors, info.Size()-1))

	err = Verify(dir)
	require.Error(t, err)
	kind, ok := idxerr.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, idxerr.KindIntegrityMismatch, kind)
}

func TestCleanRemovesIndexDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("fn hello(){}\n"), 0o644))

	_, err := Build(context.Background(), dir, BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)

	require.NoError(t, Clean(dir))

	_, statErr := os.Stat(NewPaths(dir).Dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConcurrentBuildsOnlyOneProceeds(t *testing.T) {
	dir := t.TempDir()
	paths := NewPaths(dir)
	require.NoError(t, os.MkdirAll(paths.Dir, 0o755))

	lock := NewBuildLock(paths)
	ok, err := lock.TryAcquire()
	require.NoError(t, err)
	require.True(t, ok)

	_, buildErr := Build(context.Background(), dir, BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.Error(t, buildErr)
	kind, ok2 := idxerr.KindOf(buildErr)
	require.True(t, ok2)
	assert.Equal(t, idxerr.KindIgnorableConcurrent, kind)

	require.NoError(t, lock.Release())
}

func TestANNAndLinearScanAgreeOnTop1(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 20; i++ {
		content := []byte("fn function_" + string(rune('a'+i)) + "() { let x = 1; }\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "f"+string(rune('a'+i))+".rs"), content, 0o644))
	}

	_, err := Build(context.Background(), dir, BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)

	paths := NewPaths(dir)
	vf, err := ReadVectors(paths.Vectors)
	require.NoError(t, err)
	require.True(t, Exists(paths))

	ann, err := LoadANN(paths.Graph, paths.GraphData)
	require.NoError(t, err)

	query, err := embed.Embed(embed.ModelBgeSmall, "function_a")
	require.NoError(t, err)
	embed.Normalize(query)

	annResults := ann.Search(query, 1)
	require.NotEmpty(t, annResults)

	var bestID uint64
	var bestScore float32 = -2
	for i, id := range vf.IDs {
		var dot float32
		for j, x := range vf.Data[i] {
			dot += x * query[j]
		}
		if dot > bestScore {
			bestScore = dot
			bestID = id
		}
	}

	assert.Equal(t, bestID, annResults[0].ID)
}

func TestRelativeAgeThresholds(t *testing.T) {
	now := nowRFC3339()
	assert.Equal(t, "now", RelativeAge(now))
}
