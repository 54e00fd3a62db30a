package chunk

import "bytes"

// lineOffsets returns the byte offset where each line starts, plus a
// final sentinel equal to len(content), so line i spans
// [offsets[i], offsets[i+1]).
func lineOffsets(content []byte) []int {
	offsets := []int{0}
	for i, b := range content {
		if b == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	offsets = append(offsets, len(content))
	return offsets
}

// linesMode implements the deterministic sliding window: windows
// [L, L+target) of lines, advancing by target-overlap, ending at EOF.
func linesMode(content []byte, opts Options) []Range {
	offsets := lineOffsets(content)
	numLines := len(offsets) - 1
	if numLines == 0 {
		return nil
	}

	step := opts.Target - opts.Overlap
	if step <= 0 {
		step = 1
	}

	var out []Range
	for start := 0; start < numLines; start += step {
		end := start + opts.Target
		if end > numLines {
			end = numLines
		}
		out = append(out, Range{StartByte: offsets[start], EndByte: offsets[end]})
		if end >= numLines {
			break
		}
	}
	return out
}

// blankLineBlocks partitions content at blank lines ("\n\n"), merges
// the blocks up to opts.Target lines, and applies overlap to every
// chunk but the first.
func blankLineBlocks(content []byte, opts Options) []Range {
	if len(content) == 0 {
		return nil
	}

	blocks := splitBlankLineBlocks(content)
	if len(blocks) == 0 {
		return nil
	}

	merged := mergeToTarget(content, blocks, opts.Target)
	return applyOverlap(content, merged, opts.Overlap)
}

// splitBlankLineBlocks returns the [start,end) byte ranges of the
// non-empty blocks separated by a blank line ("\n\n").
func splitBlankLineBlocks(content []byte) []Range {
	sep := []byte("\n\n")
	var blocks []Range

	pos := 0
	for pos < len(content) {
		idx := bytes.Index(content[pos:], sep)
		var end int
		if idx < 0 {
			end = len(content)
		} else {
			end = pos + idx
		}
		if end > pos {
			blocks = append(blocks, Range{StartByte: pos, EndByte: end})
		}
		if idx < 0 {
			break
		}
		pos = end + len(sep)
	}
	return blocks
}

// mergeToTarget greedily coalesces start-sorted ranges: each successive
// range folds into the current chunk while the chunk's line span stays
// below target, and flushes it otherwise. Folding a range that is
// nested inside the current chunk moves the chunk's end to the nested
// range's end, collapsing a container and its contents into one chunk
// instead of emitting both.
func mergeToTarget(content []byte, ranges []Range, target int) []Range {
	if len(ranges) == 0 {
		return nil
	}

	var out []Range
	cur := ranges[0]
	for _, r := range ranges[1:] {
		if lineSpan(content, cur.StartByte, r.EndByte) < target {
			cur.EndByte = r.EndByte
			continue
		}
		out = append(out, cur)
		cur = r
	}
	return append(out, cur)
}

// lineSpan counts the lines covered by the [s, e) byte range.
func lineSpan(content []byte, s, e int) int {
	return bytes.Count(content[s:e], []byte{'\n'}) + 1
}
