// Package chunk implements the chunker (C2): splitting file content into
// overlapping, semantically coherent byte ranges. Auto mode uses
// tree-sitter for rust and python, falling back to blank-line-block
// coalescing; lines mode is a deterministic sliding window.
package chunk

import (
	"context"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
)

// Mode selects the chunking strategy.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeLines Mode = "lines"
)

// Chunking defaults.
const (
	DefaultTarget  = 160
	DefaultOverlap = 32
	MinTarget      = 8
)

// Options configures a chunking pass.
type Options struct {
	Mode    Mode
	Target  int
	Overlap int
}

// Normalize clamps Target/Overlap to their legal bounds, filling zero
// values with the defaults.
func (o Options) Normalize() Options {
	if o.Target == 0 {
		o.Target = DefaultTarget
	}
	if o.Target < MinTarget {
		o.Target = MinTarget
	}
	if o.Overlap == 0 {
		o.Overlap = DefaultOverlap
	}
	if o.Overlap > o.Target/2 {
		o.Overlap = o.Target / 2
	}
	return o
}

// Range is a single (start, end) byte range produced by a chunking pass.
type Range struct {
	StartByte int
	EndByte   int
}

// symbolNodeKinds lists the AST node kinds collected for each
// tree-sitter-backed language.
var symbolNodeKinds = map[string][]string{
	"rust":   {"function_item", "impl_item", "trait_item", "struct_item", "enum_item", "mod_item"},
	"python": {"function_definition", "class_definition"},
}

var treeSitterLanguages = map[string]*sitter.Language{
	"rust":   rust.GetLanguage(),
	"python": python.GetLanguage(),
}

// Chunk splits content according to opts, dispatching by language when
// in auto mode.
func Chunk(ctx context.Context, language string, content []byte, opts Options) []Range {
	opts = opts.Normalize()

	if opts.Mode == ModeLines {
		return linesMode(content, opts)
	}
	return autoMode(ctx, language, content, opts)
}

func autoMode(ctx context.Context, language string, content []byte, opts Options) []Range {
	if kinds, ok := symbolNodeKinds[language]; ok {
		if ranges, ok := treeSitterRanges(ctx, language, content, kinds); ok && len(ranges) > 0 {
			// The collected kinds include containers and their contents
			// (an impl block and its functions, a class and its
			// methods); sorting by start and merging to the line budget
			// collapses those into a single chunk.
			sort.SliceStable(ranges, func(i, j int) bool { return ranges[i].StartByte < ranges[j].StartByte })
			merged := mergeToTarget(content, ranges, opts.Target)
			return applyOverlap(content, merged, opts.Overlap)
		}
	}
	return blankLineBlocks(content, opts)
}

// treeSitterRanges parses content with the grammar for language and
// collects byte ranges of nodes whose kind is in kinds, in document
// order. ok is false if parsing failed outright.
func treeSitterRanges(ctx context.Context, language string, content []byte, kinds []string) ([]Range, bool) {
	lang, ok := treeSitterLanguages[language]
	if !ok {
		return nil, false
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil || tree == nil {
		return nil, false
	}
	defer tree.Close()

	wanted := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		wanted[k] = true
	}

	var ranges []Range
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if wanted[n.Type()] {
			ranges = append(ranges, Range{StartByte: int(n.StartByte()), EndByte: int(n.EndByte())})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(tree.RootNode())

	return ranges, true
}

// applyOverlap extends the start of every chunk but the first backward
// by overlap lines, scanning for '\n' boundaries.
func applyOverlap(content []byte, ranges []Range, overlap int) []Range {
	out := make([]Range, len(ranges))
	for i, r := range ranges {
		if i == 0 {
			out[i] = r
			continue
		}
		out[i] = Range{StartByte: backNLines(content, r.StartByte, overlap), EndByte: r.EndByte}
	}
	return out
}

// backNLines returns the byte offset obtained by scanning backward from
// pos across n newline boundaries, never going below 0.
func backNLines(content []byte, pos, n int) int {
	if pos > len(content) {
		pos = len(content)
	}
	for ; n > 0 && pos > 0; n-- {
		idx := lastIndexByte(content[:pos], '\n')
		if idx < 0 {
			return 0
		}
		pos = idx
	}
	if pos < 0 {
		return 0
	}
	return pos
}

func lastIndexByte(b []byte, c byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == c {
			return i
		}
	}
	return -1
}
