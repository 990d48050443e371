package edit

import "strings"

// anchorLen caps how many literal lines form an anchor next to an elision
// marker.
const anchorLen = 3

// resyncWindow caps how far ahead the reconciler searches the original when
// an edit line does not match the line at the cursor.
const resyncWindow = 10

// reconcile applies an elision-marker based partial edit. Two cursors walk
// the input: one over the edit lines in order, one over the original lines.
// The original cursor is monotonic and never rewinds. The result is
// best-effort: malformed input never raises, but short or duplicated
// anchors can misplace content.
func reconcile(original, edit string) string {
	orig := splitLines(original)
	lines := splitLines(edit)

	var out []string
	cursor := 0

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if isElisionMarker(line) {
			forward := collectForwardAnchor(lines, i+1)
			if len(forward) > 0 {
				if pos, ok := findForward(orig, cursor, forward); ok {
					cursor = pos
				}
				continue
			}
			backward := collectBackwardAnchor(lines, i-1)
			if len(backward) > 0 {
				if pos, ok := findBackward(orig, cursor, backward); ok {
					cursor = pos
				}
			}
			continue
		}

		out = append(out, line)
		if cursor < len(orig) && orig[cursor] == line {
			cursor++
			continue
		}

		// Inserted or modified line. Look a bounded distance ahead in the
		// original for the next edit line; on a hit, carry over the
		// intervening original lines and fast-forward the cursor so the
		// streams re-synchronize without an explicit marker.
		if next, ok := nextNonMarker(lines, i+1); ok {
			limit := cursor + resyncWindow
			if limit > len(orig) {
				limit = len(orig)
			}
			for j := cursor + 1; j < limit; j++ {
				if orig[j] == next {
					out = append(out, orig[cursor+1:j]...)
					cursor = j
					break
				}
			}
		}
	}

	out = append(out, orig[cursor:]...)

	joined := strings.Join(out, "\n")
	if strings.HasSuffix(original, "\n") && !strings.HasSuffix(joined, "\n") {
		joined += "\n"
	}
	return joined
}

// collectForwardAnchor gathers up to anchorLen consecutive non-marker edit
// lines starting at from.
func collectForwardAnchor(lines []string, from int) []string {
	var anchor []string
	for i := from; i < len(lines) && len(anchor) < anchorLen; i++ {
		if isElisionMarker(lines[i]) {
			break
		}
		anchor = append(anchor, lines[i])
	}
	return anchor
}

// collectBackwardAnchor gathers up to anchorLen non-marker edit lines
// ending at upto, preserving their original order.
func collectBackwardAnchor(lines []string, upto int) []string {
	var anchor []string
	for i := upto; i >= 0 && len(anchor) < anchorLen; i-- {
		if isElisionMarker(lines[i]) {
			break
		}
		anchor = append([]string{lines[i]}, anchor...)
	}
	return anchor
}

// findForward scans the original from the cursor for the first position
// where the next len(anchor) lines equal the anchor.
func findForward(orig []string, cursor int, anchor []string) (int, bool) {
	for p := cursor; p+len(anchor) <= len(orig); p++ {
		if linesEqual(orig[p:p+len(anchor)], anchor) {
			return p, true
		}
	}
	return 0, false
}

// findBackward scans forward from the cursor for a position whose preceding
// lines equal the anchor, returning the position immediately after the
// match.
func findBackward(orig []string, cursor int, anchor []string) (int, bool) {
	for p := cursor; p <= len(orig); p++ {
		if p >= len(anchor) && linesEqual(orig[p-len(anchor):p], anchor) {
			return p, true
		}
	}
	return 0, false
}

// nextNonMarker returns the first non-marker edit line at or after from.
func nextNonMarker(lines []string, from int) (string, bool) {
	for i := from; i < len(lines); i++ {
		if !isElisionMarker(lines[i]) {
			return lines[i], true
		}
	}
	return "", false
}

func linesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
