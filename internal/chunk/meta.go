package chunk

import (
	"bytes"
	"strings"
)

// maxPreviewBytes is the preview truncation bound.
const maxPreviewBytes = 800

// maxPreviewLines is the preview line bound.
const maxPreviewLines = 8

// Preview returns the first up-to-8 lines of text, truncated to 800
// bytes.
func Preview(text []byte) string {
	lines := strings.SplitAfter(string(text), "\n")
	if len(lines) > maxPreviewLines {
		lines = lines[:maxPreviewLines]
	}
	preview := strings.Join(lines, "")
	if len(preview) > maxPreviewBytes {
		preview = preview[:maxPreviewBytes]
	}
	return preview
}

// LineRange converts a [startByte, endByte) range within content into
// 1-based inclusive [startLine, endLine], counting '\n' occurrences
// before each offset.
func LineRange(content []byte, startByte, endByte int) (startLine, endLine int) {
	startLine = 1 + bytes.Count(content[:clamp(startByte, len(content))], []byte{'\n'})
	endLine = 1 + bytes.Count(content[:clamp(endByte, len(content))], []byte{'\n'})
	if endByte > 0 && endByte <= len(content) && content[clamp(endByte, len(content))-1] == '\n' {
		endLine--
	}
	if endLine < startLine {
		endLine = startLine
	}
	return startLine, endLine
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
