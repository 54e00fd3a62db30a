// Package scanner implements the workspace scanner (C1): it walks a
// repository root, applies the ignore ruleset and built-in filters, and
// streams back text files as (path, language, content) triples.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/codex-agentic/semidx/internal/ignore"
)

// MaxFileSize is the largest file the scanner will read.
const MaxFileSize = 5 * 1024 * 1024

// File is one discovered, readable, non-binary source file.
type File struct {
	Path     string // relative to root, slash-separated
	Language string
	Content  []byte
}

// Scanner discovers indexable files under a repository root.
type Scanner struct {
	matcher *ignore.Matcher
}

// New creates a Scanner that filters with the given ignore ruleset.
func New(matcher *ignore.Matcher) *Scanner {
	return &Scanner{matcher: matcher}
}

// Scan walks root and returns every file that survives the filter
// chain: ignore ruleset, symlinks, path length, size, and binary
// detection. Reads happen concurrently (bounded) via errgroup, but the
// returned slice is in a stable, deterministic path order.
func (s *Scanner) Scan(ctx context.Context, root string) ([]File, error) {
	var candidates []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // per-file errors skip the file, not the scan
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if s.matcher.MatchDir(rel) {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil // reject symlinks
		}
		if len(path) > platformPathLimit {
			return nil // platform path-length bound
		}
		if s.matcher.Match(rel) {
			return nil
		}

		candidates = append(candidates, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	results := make([]File, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency())

	for i, rel := range candidates {
		i, rel := i, rel
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			f, ok, readErr := s.readOne(root, rel)
			if readErr != nil {
				slog.Warn("scan_skip_file", slog.String("path", rel), slog.String("error", readErr.Error()))
				return nil
			}
			if ok {
				results[i] = f
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && err != context.Canceled {
		return nil, err
	}

	out := make([]File, 0, len(results))
	for _, f := range results {
		if f.Path != "" {
			out = append(out, f)
		}
	}
	return out, nil
}

// readOne applies the size and binary-detection filters to a single
// candidate path, returning ok=false if the file should be
// skipped rather than an error.
func (s *Scanner) readOne(root, rel string) (File, bool, error) {
	abs := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Lstat(abs)
	if err != nil {
		return File{}, false, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return File{}, false, nil
	}
	if info.Size() > MaxFileSize {
		return File{}, false, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return File{}, false, err
	}
	if IsBinary(content) {
		return File{}, false, nil
	}

	return File{
		Path:     rel,
		Language: LanguageForPath(rel),
		Content:  content,
	}, true, nil
}

// binaryMagicPrefixes are checked in order against the start of the
// buffer.
var binaryMagicPrefixes = [][]byte{
	[]byte("%PDF-"),
	{'P', 'K', 0x03, 0x04},
	{0x7F, 'E', 'L', 'F'},
	{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'},
	[]byte("MZ"),
}

// IsBinary reports whether a buffer is binary: magic prefix, >10% NUL
// bytes, or invalid UTF-8.
func IsBinary(buf []byte) bool {
	for _, magic := range binaryMagicPrefixes {
		if bytes.HasPrefix(buf, magic) {
			return true
		}
	}
	if len(buf) == 0 {
		return false
	}
	nul := bytes.Count(buf, []byte{0})
	if nul*10 > len(buf) {
		return true
	}
	return !utf8.Valid(buf)
}

// languageByExt maps file extensions to language tags, falling back to
// "text" for everything else.
var languageByExt = map[string]string{
	".rs":  "rust",
	".ts":  "typescript",
	".tsx": "typescript",
	".js":  "javascript",
	".jsx": "javascript",
	".mjs": "javascript",
	".py":  "python",
	".pyi": "python",
}

// LanguageForPath derives the language tag from a file extension.
func LanguageForPath(path string) string {
	ext := filepath.Ext(path)
	if lang, ok := languageByExt[ext]; ok {
		return lang
	}
	return "text"
}

func readConcurrency() int {
	n := 8
	if v := os.Getenv("CODEX_SCAN_WORKERS"); v != "" {
		var parsed int
		if _, err := fmt.Sscanf(v, "%d", &parsed); err == nil && parsed > 0 {
			n = parsed
		}
	}
	return n
}
