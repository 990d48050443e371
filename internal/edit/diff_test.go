package edit

import (
	"strings"
	"testing"
)

func TestParseHunks_HeaderCounts(t *testing.T) {
	hunks := parseHunks("@@ -3,2 +5,4 @@\n a\n+b\n-c")
	if len(hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(hunks))
	}
	h := hunks[0]
	if h.oldStart != 2 || h.oldCount != 2 {
		t.Errorf("old = (%d,%d), want (2,2)", h.oldStart, h.oldCount)
	}
	if h.newStart != 4 || h.newCount != 4 {
		t.Errorf("new = (%d,%d), want (4,4)", h.newStart, h.newCount)
	}
	if len(h.ops) != 3 {
		t.Errorf("ops = %d, want 3", len(h.ops))
	}
}

func TestParseHunks_OmittedCountsDefaultToOne(t *testing.T) {
	hunks := parseHunks("@@ -7 +9 @@\n x")
	if len(hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(hunks))
	}
	if hunks[0].oldCount != 1 || hunks[0].newCount != 1 {
		t.Errorf("counts = (%d,%d), want (1,1)", hunks[0].oldCount, hunks[0].newCount)
	}
}

func TestParseHunks_UnprefixedLineEndsBody(t *testing.T) {
	hunks := parseHunks("@@ -1 +1 @@\n a\nsome commentary\n b")
	if len(hunks) != 1 {
		t.Fatalf("hunks = %d, want 1", len(hunks))
	}
	// " b" after the commentary line must not be collected.
	if len(hunks[0].ops) != 1 {
		t.Errorf("ops = %d, want 1", len(hunks[0].ops))
	}
}

func TestParseHunks_MultipleHeaders(t *testing.T) {
	hunks := parseHunks("@@ -1 +1 @@\n a\n@@ -5 +5 @@\n b")
	if len(hunks) != 2 {
		t.Fatalf("hunks = %d, want 2", len(hunks))
	}
	if hunks[1].oldStart != 4 {
		t.Errorf("second oldStart = %d, want 4", hunks[1].oldStart)
	}
}

func TestApplyPatch_ContextOnlyLeavesContentUnchanged(t *testing.T) {
	got := applyPatch("a\nb\nc", "@@ -1,3 +1,3 @@\n a\n b\n c")
	if got != "a\nb\nc" {
		t.Errorf("got %q, want %q", got, "a\nb\nc")
	}
}

func TestApplyPatch_Addition(t *testing.T) {
	got := applyPatch("a\nb\nc", "@@ -1,3 +1,4 @@\n a\n b\n+x\n c")
	if got != "a\nb\nx\nc" {
		t.Errorf("got %q, want %q", got, "a\nb\nx\nc")
	}
}

func TestApplyPatch_DeleteThenAdd(t *testing.T) {
	got := applyPatch("a\nb\nc", "@@ -1,3 +1,3 @@\n a\n-b\n+y\n c")
	if got != "a\ny\nc" {
		t.Errorf("got %q, want %q", got, "a\ny\nc")
	}
}

func TestApplyPatch_ContextMismatchTolerated(t *testing.T) {
	// The recorded context text wins over the actual original content.
	got := applyPatch("a\nZZZ\nc", "@@ -1,3 +1,3 @@\n a\n b\n c")
	if got != "a\nb\nc" {
		t.Errorf("got %q, want %q", got, "a\nb\nc")
	}
}

func TestApplyPatch_HunkBeyondEnd(t *testing.T) {
	got := applyPatch("a\nb", "@@ -10,1 +10,2 @@\n+tail")
	if got != "a\nb\ntail" {
		t.Errorf("got %q, want %q", got, "a\nb\ntail")
	}
}

func TestApplyPatch_HunksApplyInParseOrderWithMonotonicCursor(t *testing.T) {
	original := "a\nb\nc\nd\ne"
	edit := "@@ -2,1 +2,1 @@\n-b\n+B\n@@ -4,1 +4,1 @@\n-d\n+D"
	got := applyPatch(original, edit)
	if got != "a\nB\nc\nD\ne" {
		t.Errorf("got %q, want %q", got, "a\nB\nc\nD\ne")
	}
}

func TestApplyPatch_OverlappingHunkDoesNotRewind(t *testing.T) {
	// The second hunk targets a line the cursor has already passed; the
	// cursor clamps forward instead of rewinding.
	original := "a\nb\nc\nd"
	edit := "@@ -3,1 +3,1 @@\n-c\n+C\n@@ -1,1 +1,1 @@\n+late"
	got := applyPatch(original, edit)
	if !strings.HasPrefix(got, "a\nb\nC") {
		t.Errorf("got %q, want prefix %q", got, "a\nb\nC")
	}
	if !strings.Contains(got, "late") {
		t.Errorf("got %q, want added line present", got)
	}
}

func TestApplyPatch_NoHunksReturnsOriginal(t *testing.T) {
	original := "a\nb"
	if got := applyPatch(original, "not a diff at all"); got != original {
		t.Errorf("got %q, want original unchanged", got)
	}
}

func TestApplyPatch_PreservesTrailingNewline(t *testing.T) {
	got := applyPatch("a\nb\n", "@@ -1,1 +1,1 @@\n-a\n+A")
	if got != "A\nb\n" {
		t.Errorf("got %q, want %q", got, "A\nb\n")
	}
}
