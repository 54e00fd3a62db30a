// Package query implements the query engine (C5): embedding a query
// string, selecting the ANN or linear-scan path, applying the
// confidence gate, joining hits with metadata, and rendering results.
package query

import (
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/codex-agentic/semidx/internal/embed"
	"github.com/codex-agentic/semidx/internal/idxerr"
	"github.com/codex-agentic/semidx/internal/store"
)

// DefaultConfidenceThreshold is the default confidence gate.
const DefaultConfidenceThreshold = 0.60

// ThresholdEnvVar overrides the confidence gate when set to a float in
// [0, 1].
const ThresholdEnvVar = "CODEX_INDEX_RETRIEVAL_THRESHOLD"

// Params configures a query.
type Params struct {
	Text         string
	K            int
	ShowSnippets bool
}

// Hit is a single rendered result: rank, score, path, line span, and
// language, plus the snippet lines when requested.
type Hit struct {
	Rank     int
	Score    float32
	Path     string
	Start    uint32
	End      uint32
	Language string
	Snippet  []string
}

// Result is the outcome of a query: either a ranked hit list, or an
// empty/low-confidence result.
type Result struct {
	Hits []Hit
}

// Run executes a query against the index rooted at root: embed the
// text, search via the ANN graph or a linear scan, apply the
// confidence gate, and record the outcome in analytics.
func Run(root string, params Params) (Result, error) {
	paths := store.NewPaths(root)
	manifest, err := store.LoadManifest(paths.Manifest)
	if err != nil {
		return Result{}, idxerr.Wrap(idxerr.KindMissingIndex, "load manifest", err)
	}

	analytics, _ := store.LoadAnalytics(paths.Analytics)
	analytics.Queries++

	result, topScore, err := execute(paths, manifest, params)
	if err != nil {
		return Result{}, err
	}

	threshold := confidenceThreshold()
	if len(result.Hits) == 0 || topScore < threshold {
		analytics.Misses++
		analytics.LastQueryTS = time.Now().UTC().Format(time.RFC3339)
		_ = store.WriteAnalytics(paths.Analytics, analytics)
		return Result{}, nil
	}

	analytics.Hits++
	analytics.LastQueryTS = time.Now().UTC().Format(time.RFC3339)
	_ = store.WriteAnalytics(paths.Analytics, analytics)
	return result, nil
}

func execute(paths store.Paths, manifest store.Manifest, params Params) (Result, float32, error) {
	if manifest.Counts.Chunks == 0 {
		return Result{}, 0, nil
	}

	queryVec, err := embed.Embed(manifest.Model, params.Text)
	if err != nil {
		return Result{}, 0, idxerr.Wrap(idxerr.KindEmbedding, "embed query", err)
	}
	embed.Normalize(queryVec)
	if len(queryVec) != manifest.Dim {
		return Result{}, 0, idxerr.New(idxerr.KindDimensionMismatch, "query vector dimension does not match manifest")
	}

	k := params.K
	if k <= 0 {
		k = 1
	}

	type scored struct {
		id    uint64
		score float32
		order int
	}
	var ranked []scored

	if store.Exists(paths) {
		ann, err := store.LoadANN(paths.Graph, paths.GraphData)
		if err != nil {
			return Result{}, 0, idxerr.Wrap(idxerr.KindSerialization, "load ann graph", err)
		}
		limit := k
		if ann.Len() < limit {
			limit = ann.Len()
		}
		for i, r := range ann.Search(queryVec, limit) {
			ranked = append(ranked, scored{id: r.ID, score: r.Score, order: i})
		}
	} else {
		vf, err := store.ReadVectors(paths.Vectors)
		if err != nil {
			return Result{}, 0, idxerr.Wrap(idxerr.KindSerialization, "read vectors", err)
		}
		for i, id := range vf.IDs {
			var dot float32
			for j, x := range vf.Data[i] {
				dot += x * queryVec[j]
			}
			ranked = append(ranked, scored{id: id, score: dot, order: i})
		}
		sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
		if len(ranked) > k {
			ranked = ranked[:k]
		}
	}

	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })

	metaRows, err := store.ReadMeta(paths.Meta)
	if err != nil {
		return Result{}, 0, idxerr.Wrap(idxerr.KindSerialization, "read meta", err)
	}
	byID := store.MetaByID(metaRows)

	var hits []Hit
	for i, s := range ranked {
		row, ok := byID[s.id]
		if !ok {
			continue
		}
		hit := Hit{
			Rank:     i + 1,
			Score:    s.score,
			Path:     row.Path,
			Start:    row.Start,
			End:      row.End,
			Language: row.Lang,
		}
		if params.ShowSnippets {
			hit.Snippet = splitLines(row.Preview)
		}
		hits = append(hits, hit)
	}

	var top float32
	if len(hits) > 0 {
		top = hits[0].Score
	}
	return Result{Hits: hits}, top, nil
}

func confidenceThreshold() float32 {
	if v := os.Getenv(ThresholdEnvVar); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return float32(f)
		}
	}
	return DefaultConfidenceThreshold
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
