package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/coder/hnsw"
)

// Graph construction and search parameters.
const (
	annM         = 32
	annEfSearch  = 256
	annMlDefault = 0.29 // about 1/ln(M), coder/hnsw's level generation convention
)

// ANNIndex wraps a coder/hnsw graph keyed directly by chunk id: the
// insertion ordinal equals the chunk id, so no separate key
// translation layer is needed.
type ANNIndex struct {
	graph *hnsw.Graph[uint64]
	dim   int
}

// annSidecar is the small JSON record written to vectors.hnsw.data
// alongside the exported graph, letting a loader validate dimension
// and row count without re-deriving them from the graph itself.
type annSidecar struct {
	Dim  int `json:"dim"`
	Rows int `json:"rows"`
}

// BuildANN constructs an in-memory HNSW graph over vf's rows, inserted
// in id order (the insertion ordinal equals the chunk id).
func BuildANN(vf VectorFile) *ANNIndex {
	graph := hnsw.NewGraph[uint64]()
	graph.M = annM
	graph.Ml = annMlDefault
	graph.EfSearch = annEfSearch
	graph.Distance = hnsw.CosineDistance

	for i, id := range vf.IDs {
		graph.Add(hnsw.MakeNode(id, vf.Data[i]))
	}

	return &ANNIndex{graph: graph, dim: vf.Dim}
}

// ANNResult is one neighbor returned by Search.
type ANNResult struct {
	ID    uint64
	Score float32
}

// Search returns up to k nearest neighbors to query by cosine
// similarity, converting coder/hnsw's cosine distance d (range [0,2])
// to similarity via 1-d. Every stored vector is already
// L2-normalized, so no further rescaling is needed.
func (a *ANNIndex) Search(query []float32, k int) []ANNResult {
	nodes := a.graph.Search(query, k)
	out := make([]ANNResult, 0, len(nodes))
	for _, n := range nodes {
		d := a.graph.Distance(query, n.Value)
		out = append(out, ANNResult{ID: n.Key, Score: 1 - d})
	}
	return out
}

// Len reports how many vectors the graph holds.
func (a *ANNIndex) Len() int {
	return a.graph.Len()
}

// Save exports the graph to graphPath and a small dimension/row-count
// sidecar to dataPath, both via tmp-file + rename.
func (a *ANNIndex) Save(graphPath, dataPath string) error {
	tmp := graphPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}
	if err := a.graph.Export(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, graphPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}

	data, err := json.Marshal(annSidecar{Dim: a.dim, Rows: a.graph.Len()})
	if err != nil {
		return fmt.Errorf("marshal ann sidecar: %w", err)
	}
	return writeAtomic(dataPath, data)
}

// LoadANN reloads a graph previously written by Save. Import requires
// an io.ByteReader, hence the bufio wrapper around the file.
func LoadANN(graphPath, dataPath string) (*ANNIndex, error) {
	sidecarBytes, err := os.ReadFile(dataPath)
	if err != nil {
		return nil, err
	}
	var sidecar annSidecar
	if err := json.Unmarshal(sidecarBytes, &sidecar); err != nil {
		return nil, fmt.Errorf("parse ann sidecar: %w", err)
	}

	f, err := os.Open(graphPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	graph := hnsw.NewGraph[uint64]()
	graph.M = annM
	graph.Ml = annMlDefault
	graph.EfSearch = annEfSearch
	graph.Distance = hnsw.CosineDistance

	if err := graph.Import(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("import graph: %w", err)
	}

	return &ANNIndex{graph: graph, dim: sidecar.Dim}, nil
}

// Exists reports whether both ANN graph artifacts are present. The
// query engine takes the ANN path only when both files exist.
func Exists(paths Paths) bool {
	if _, err := os.Stat(paths.Graph); err != nil {
		return false
	}
	if _, err := os.Stat(paths.GraphData); err != nil {
		return false
	}
	return true
}
