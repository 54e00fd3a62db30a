// Package ignore implements the ignore ruleset: a
// persisted, ordered list of glob patterns that excludes paths from the
// workspace scan. Unlike a full gitignore matcher, a pattern here is a
// plain glob: '*' and '?' are the only metacharacters, matched against
// the whole relative path.
package ignore

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// FileName is the name of the ruleset file at the repository root.
const FileName = ".codex/ignore"

// DefaultPatterns seed a freshly materialized ruleset.
var DefaultPatterns = []string{
	".*",
	".git/*",
	".codex/*",
	"node_modules/*",
	"target/*",
	"dist/*",
	"build/*",
	".idea/*",
	".vscode/*",
}

// Matcher holds a compiled, ordered glob ruleset. It is safe for
// concurrent reads; callers must not mutate it from multiple goroutines
// without wrapping Add/Remove/Reset themselves.
type Matcher struct {
	mu       sync.RWMutex
	patterns []string
	cache    *lru.Cache[string, *regexp.Regexp]
}

// New builds a Matcher from an explicit pattern list.
func New(patterns []string) *Matcher {
	cache, _ := lru.New[string, *regexp.Regexp](256)
	m := &Matcher{cache: cache}
	m.patterns = normalize(patterns)
	return m
}

// Load reads the ruleset file under root, materializing the default
// ruleset atomically if it does not yet exist.
func Load(root string) (*Matcher, error) {
	path := filepath.Join(root, filepath.FromSlash(FileName))
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		m := New(DefaultPatterns)
		if werr := m.save(path); werr != nil {
			return nil, werr
		}
		return m, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []string
	sc := bufio.NewScanner(bytes.NewReader(content))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return New(patterns), nil
}

// Patterns returns a sorted, deduplicated copy of the current ruleset.
func (m *Matcher) Patterns() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.patterns))
	copy(out, m.patterns)
	return out
}

// Add inserts patterns into the ruleset (deduplicated, sorted) and
// persists the result under root.
func (m *Matcher) Add(root string, patterns ...string) error {
	m.mu.Lock()
	m.patterns = normalize(append(m.patterns, patterns...))
	m.mu.Unlock()
	return m.Save(root)
}

// Remove deletes patterns from the ruleset and persists the result.
func (m *Matcher) Remove(root string, patterns ...string) error {
	drop := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		drop[p] = true
	}
	m.mu.Lock()
	kept := m.patterns[:0:0]
	for _, p := range m.patterns {
		if !drop[p] {
			kept = append(kept, p)
		}
	}
	m.patterns = kept
	m.mu.Unlock()
	return m.Save(root)
}

// Reset replaces the ruleset with DefaultPatterns and persists it.
func (m *Matcher) Reset(root string) error {
	m.mu.Lock()
	m.patterns = normalize(append([]string{}, DefaultPatterns...))
	m.mu.Unlock()
	return m.Save(root)
}

// Save writes the ruleset to its file under root atomically (tmp+rename).
func (m *Matcher) Save(root string) error {
	return m.save(filepath.Join(root, filepath.FromSlash(FileName)))
}

func (m *Matcher) save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	m.mu.RLock()
	var sb strings.Builder
	for _, p := range m.patterns {
		sb.WriteString(p)
		sb.WriteByte('\n')
	}
	m.mu.RUnlock()

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(sb.String()), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Match reports whether a relative file path matches any pattern.
func (m *Matcher) Match(relPath string) bool {
	return m.matchAny(relPath)
}

// MatchDir reports whether a relative directory path matches any
// pattern, so the scanner can prune whole subtrees.
func (m *Matcher) MatchDir(relPath string) bool {
	if m.matchAny(relPath) {
		return true
	}
	return m.matchAny(relPath + "/*")
}

func (m *Matcher) matchAny(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	m.mu.RLock()
	patterns := m.patterns
	m.mu.RUnlock()

	for _, p := range patterns {
		re := m.compiled(p)
		if re.MatchString(relPath) {
			return true
		}
	}
	return false
}

func (m *Matcher) compiled(pattern string) *regexp.Regexp {
	if re, ok := m.cache.Get(pattern); ok {
		return re
	}
	re := regexp.MustCompile("^" + globToRegex(pattern) + "$")
	m.cache.Add(pattern, re)
	return re
}

// globToRegex escapes regex metacharacters except '*' (-> ".*") and '?'
// (-> "."), anchored by the caller at both ends.
func globToRegex(pattern string) string {
	var sb strings.Builder
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			if strings.ContainsRune(`.+()|[]{}^$\`, r) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func normalize(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	var out []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
