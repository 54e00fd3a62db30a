package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects a query output renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

const emptyText = "No information exists that matches the request."

// RenderOptions controls snippet line-number and diff formatting for
// the text and xml formats.
type RenderOptions struct {
	NoLineNumbers   bool
	LineNumberWidth int
	Diff            bool
}

// Render formats a Result in the requested format.
func Render(result Result, format Format, opts RenderOptions) string {
	switch format {
	case FormatJSON:
		return renderJSON(result)
	case FormatXML:
		return renderXML(result, opts)
	default:
		return renderText(result, opts)
	}
}

func renderText(result Result, opts RenderOptions) string {
	if len(result.Hits) == 0 {
		return emptyText
	}

	width := opts.LineNumberWidth
	if width <= 0 {
		width = 6
	}

	var sb strings.Builder
	for _, h := range result.Hits {
		fmt.Fprintf(&sb, "[%d] %.3f %s:%d-%d (%s)\n", h.Rank, h.Score, h.Path, h.Start, h.End, h.Language)
		for i, line := range h.Snippet {
			prefix := ""
			if opts.Diff {
				prefix = "+ "
			}
			if opts.NoLineNumbers {
				fmt.Fprintf(&sb, "%s%s\n", prefix, line)
			} else {
				lineNo := int(h.Start) + i
				fmt.Fprintf(&sb, "%s%*d | %s\n", prefix, width, lineNo, line)
			}
		}
		sb.WriteString("---\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

type jsonHit struct {
	Rank    int      `json:"rank"`
	Score   float32  `json:"score"`
	Path    string   `json:"path"`
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	Lang    string   `json:"lang"`
	Snippet []string `json:"snippet"`
}

func renderJSON(result Result) string {
	if len(result.Hits) == 0 {
		return "[]"
	}
	hits := make([]jsonHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, jsonHit{
			Rank: h.Rank, Score: h.Score, Path: h.Path,
			Start: h.Start, End: h.End, Lang: h.Language,
			Snippet: h.Snippet,
		})
	}
	data, err := json.MarshalIndent(hits, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

func renderXML(result Result, opts RenderOptions) string {
	if len(result.Hits) == 0 {
		return "<results/>"
	}

	var sb strings.Builder
	sb.WriteString("<results>\n")
	for _, h := range result.Hits {
		fmt.Fprintf(&sb, "  <hit rank=\"%d\" score=\"%.3f\" path=\"%s\" start=\"%d\" end=\"%d\" lang=\"%s\">",
			h.Rank, h.Score, xmlEscape(h.Path), h.Start, h.End, xmlEscape(h.Language))
		if len(h.Snippet) == 0 {
			sb.WriteString("</hit>\n")
			continue
		}
		sb.WriteString("\n    <snippet>\n")
		for i, line := range h.Snippet {
			sb.WriteString("      <line")
			if !opts.NoLineNumbers {
				fmt.Fprintf(&sb, " n=\"%d\"", int(h.Start)+i)
			}
			if opts.Diff {
				sb.WriteString(" op=\"add\"")
			}
			fmt.Fprintf(&sb, ">%s</line>\n", xmlEscape(line))
		}
		sb.WriteString("    </snippet>\n  </hit>\n")
	}
	sb.WriteString("</results>")
	return sb.String()
}

func xmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return replacer.Replace(s)
}
