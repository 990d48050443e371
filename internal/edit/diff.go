package edit

import (
	"regexp"
	"strconv"
	"strings"
)

// hunkHeader matches a unified-diff hunk header. Counts are optional and
// default to 1.
var hunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// opKind classifies one hunk body line.
type opKind int

const (
	opContext opKind = iota
	opAdd
	opDelete
)

type hunkOp struct {
	kind opKind
	text string
}

// hunk is one parsed unified-diff section. Start values are 0-indexed.
type hunk struct {
	oldStart int
	oldCount int
	newStart int
	newCount int
	ops      []hunkOp
}

// parseHunks scans the edit text for hunks. A header line opens a hunk;
// body lines prefixed ' ', '+', or '-' are appended as operations until the
// next header or end of input. Any other line ends the hunk body silently.
func parseHunks(edit string) []hunk {
	var hunks []hunk
	open := false

	for _, line := range strings.Split(edit, "\n") {
		if m := hunkHeader.FindStringSubmatch(line); m != nil {
			hunks = append(hunks, hunk{
				oldStart: atoiDefault(m[1], 1) - 1,
				oldCount: atoiDefault(m[2], 1),
				newStart: atoiDefault(m[3], 1) - 1,
				newCount: atoiDefault(m[4], 1),
			})
			open = true
			continue
		}
		if !open || line == "" {
			open = false
			continue
		}

		cur := &hunks[len(hunks)-1]
		switch line[0] {
		case ' ':
			cur.ops = append(cur.ops, hunkOp{kind: opContext, text: line[1:]})
		case '+':
			cur.ops = append(cur.ops, hunkOp{kind: opAdd, text: line[1:]})
		case '-':
			cur.ops = append(cur.ops, hunkOp{kind: opDelete, text: line[1:]})
		default:
			open = false
		}
	}
	return hunks
}

// applyPatch replays parsed hunks against the original content. One cursor
// walks the original lines and never rewinds; hunks are taken in parse
// order. Context-line mismatches are tolerated: the hunk's recorded text is
// emitted regardless of what the original holds at the cursor. Malformed
// input degrades to best-effort output, never an error.
func applyPatch(original, edit string) string {
	lines := splitLines(original)
	hunks := parseHunks(edit)
	if len(hunks) == 0 {
		return original
	}

	out := make([]string, 0, len(lines))
	cursor := 0
	for _, h := range hunks {
		start := h.oldStart
		if start < cursor {
			start = cursor
		}
		if start > len(lines) {
			start = len(lines)
		}
		out = append(out, lines[cursor:start]...)
		cursor = start

		for _, op := range h.ops {
			switch op.kind {
			case opContext:
				out = append(out, op.text)
				if cursor < len(lines) {
					cursor++
				}
			case opDelete:
				if cursor < len(lines) {
					cursor++
				}
			case opAdd:
				out = append(out, op.text)
			}
		}
	}
	out = append(out, lines[cursor:]...)

	joined := strings.Join(out, "\n")
	if strings.HasSuffix(original, "\n") && !strings.HasSuffix(joined, "\n") {
		joined += "\n"
	}
	return joined
}

// atoiDefault parses a decimal string, returning def when empty or invalid.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// splitLines splits content into lines without a trailing empty element for
// content that ends in a newline.
func splitLines(s string) []string {
	trimmed := strings.TrimSuffix(s, "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
