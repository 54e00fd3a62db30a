// Package embed implements the embedding gateway (C3): a model-name-keyed
// callable mapping text to a fixed-dimension, L2-normalized vector. The
// real model runtime is an external black box; this package supplies a
// deterministic, dependency-free stand-in keyed by the two recognized
// model names so the rest of the pipeline has a real implementation to
// embed against and test with.
package embed

import (
	"fmt"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Dimensions for the two recognized model names.
const (
	DimBgeSmall = 384
	DimBgeLarge = 1024
)

const (
	ModelBgeSmall = "bge-small"
	ModelBgeLarge = "bge-large"
)

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9]+`)

var programmingStopWords = map[string]bool{
	"func": true, "function": true, "def": true, "class": true,
	"return": true, "import": true, "const": true, "var": true,
	"let": true, "int": true, "string": true, "bool": true,
	"void": true, "true": true, "false": true, "nil": true,
	"null": true, "this": true, "self": true, "new": true,
}

// Dimension returns the vector dimension for a recognized model name,
// and false for any other name.
func Dimension(model string) (int, bool) {
	switch model {
	case ModelBgeSmall:
		return DimBgeSmall, true
	case ModelBgeLarge:
		return DimBgeLarge, true
	default:
		return 0, false
	}
}

// Embed computes the vector for text under model. An unrecognized model
// name returns an error. The build command checks the name against
// Dimension before building; the query engine passes the manifest's
// model name straight through and reports this error as an embedding
// failure.
func Embed(model, text string) ([]float32, error) {
	dim, ok := Dimension(model)
	if !ok {
		return nil, fmt.Errorf("embed: unrecognized model %q", model)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float32, dim), nil
	}
	return generateVector(trimmed, dim), nil
}

// generateVector builds an unnormalized hash-based vector: tokens
// (camelCase/snake_case aware, stop words removed) at tokenWeight, plus
// character n-grams at ngramWeight, each hashed into a fixed-size
// array.
func generateVector(text string, dim int) []float32 {
	vector := make([]float32, dim)

	for _, token := range filterStopWords(tokenize(text)) {
		vector[hashToIndex(token, dim)] += tokenWeight
	}

	normalized := normalizeForNgrams(text)
	for _, ngram := range extractNgrams(normalized, ngramSize) {
		vector[hashToIndex(ngram, dim)] += ngramWeight
	}

	return vector
}

func tokenize(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range splitCodeToken(word) {
			if lower := strings.ToLower(t); lower != "" {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

func splitCodeToken(token string) []string {
	if strings.Contains(token, "_") {
		var result []string
		for _, part := range strings.Split(token, "_") {
			if part != "" {
				result = append(result, splitCamelCase(part)...)
			}
		}
		return result
	}
	return splitCamelCase(token)
}

func splitCamelCase(s string) []string {
	if s == "" {
		return nil
	}
	var result []string
	var current strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevIsLower || nextIsLower {
				if current.Len() > 0 {
					result = append(result, current.String())
					current.Reset()
				}
			}
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

func filterStopWords(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if !programmingStopWords[t] {
			out = append(out, t)
		}
	}
	return out
}

func normalizeForNgrams(text string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func extractNgrams(text string, n int) []string {
	if len(text) < n {
		return nil
	}
	out := make([]string, 0, len(text)-n+1)
	for i := 0; i <= len(text)-n; i++ {
		out = append(out, text[i:i+n])
	}
	return out
}

func hashToIndex(s string, size int) int {
	h := fnv.New64()
	_, _ = h.Write([]byte(s))
	return int(h.Sum64() % uint64(size))
}

// Normalize divides v by its L2 norm in place and returns it. A
// zero-magnitude vector is returned unchanged so the caller can detect
// and drop it; zero-norm vectors are never stored.
func Normalize(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// IsZero reports whether v has zero L2 norm.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
