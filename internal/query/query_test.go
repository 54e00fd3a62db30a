package query

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codex-agentic/semidx/internal/chunk"
	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/store"
)

func buildTestIndex(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.rs"), []byte("fn hello() { let greeting = 1; }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte("def hello():\n    pass\n"), 0o644))
	_, err := store.Build(context.Background(), dir, store.BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)
}

func TestRunReturnsRankedHitsWithinUnitRange(t *testing.T) {
	dir := t.TempDir()
	buildTestIndex(t, dir)
	t.Setenv(ThresholdEnvVar, "0")

	result, err := Run(dir, Params{Text: "say hello", K: 2})
	require.NoError(t, err)
	require.NotEmpty(t, result.Hits)
	for i, h := range result.Hits {
		assert.Equal(t, i+1, h.Rank)
		assert.GreaterOrEqual(t, h.Score, float32(-1))
		assert.LessOrEqual(t, h.Score, float32(1))
	}
	for i := 1; i < len(result.Hits); i++ {
		assert.GreaterOrEqual(t, result.Hits[i-1].Score, result.Hits[i].Score)
	}
}

func TestRunOnEmptyIndexReturnsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	_, err := store.Build(context.Background(), dir, store.BuildParams{Model: embed.ModelBgeSmall, Chunk: chunk.ModeAuto})
	require.NoError(t, err)

	result, err := Run(dir, Params{Text: "anything", K: 1})
	require.NoError(t, err)
	assert.Empty(t, result.Hits)

	paths := store.NewPaths(dir)
	analytics, err := store.LoadAnalytics(paths.Analytics)
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.Misses)
}

func TestConfidenceThresholdReadsEnvOverride(t *testing.T) {
	os.Setenv(ThresholdEnvVar, "0.6")
	defer os.Unsetenv(ThresholdEnvVar)
	assert.Equal(t, float32(0.6), confidenceThreshold())
}

func TestRenderTextEmptySentinel(t *testing.T) {
	assert.Equal(t, emptyText, Render(Result{}, FormatText, RenderOptions{}))
}

func TestRenderJSONEmptySentinel(t *testing.T) {
	assert.Equal(t, "[]", Render(Result{}, FormatJSON, RenderOptions{}))
}

func TestRenderXMLEmptySentinel(t *testing.T) {
	assert.Equal(t, "<results/>", Render(Result{}, FormatXML, RenderOptions{}))
}

func TestRenderXMLEscapesAttributeValues(t *testing.T) {
	result := Result{Hits: []Hit{{Rank: 1, Score: 0.9, Path: "a&b<c.rs", Start: 1, End: 2, Language: "rust"}}}
	out := Render(result, FormatXML, RenderOptions{})
	assert.Contains(t, out, "&amp;")
	assert.Contains(t, out, "&lt;")
}

func TestRenderXMLSnippetLineOptions(t *testing.T) {
	result := Result{Hits: []Hit{{
		Rank: 1, Score: 0.9, Path: "a.rs", Start: 4, End: 5, Language: "rust",
		Snippet: []string{"fn hello() {}"},
	}}}

	out := Render(result, FormatXML, RenderOptions{Diff: true})
	assert.Contains(t, out, `<line n="4" op="add">fn hello() {}</line>`)

	out = Render(result, FormatXML, RenderOptions{NoLineNumbers: true})
	assert.Contains(t, out, `<line>fn hello() {}</line>`)
}

func TestRenderTextSnippetLineNumbersAndDiffPrefix(t *testing.T) {
	result := Result{Hits: []Hit{{
		Rank: 1, Score: 0.9, Path: "a.rs", Start: 4, End: 5, Language: "rust",
		Snippet: []string{"fn hello() {}"},
	}}}

	out := Render(result, FormatText, RenderOptions{LineNumberWidth: 4, Diff: true})
	assert.Contains(t, out, "+    4 | fn hello() {}")

	out = Render(result, FormatText, RenderOptions{NoLineNumbers: true})
	assert.Contains(t, out, "\nfn hello() {}\n")
}

func TestRenderTextFormatsRankScorePathSpanLanguage(t *testing.T) {
	result := Result{Hits: []Hit{{Rank: 1, Score: 0.833, Path: "a.rs", Start: 1, End: 3, Language: "rust"}}}
	out := Render(result, FormatText, RenderOptions{})
	assert.Contains(t, out, "[1] 0.833 a.rs:1-3 (rust)")
}
