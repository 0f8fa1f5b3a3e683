package workspace

import (
	"fmt"
	"strings"
	"testing"
)

func manyLines(prefix string, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%s %d\n", prefix, i)
	}
	return b.String()
}

func TestProposeModificationAcceptsSmallChange(t *testing.T) {
	old := "a\nb\nc\nd\n"
	updated := "a\nB\nc\nd\n"
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if !res.Accepted {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.ChangedLines != 2 || res.AddedLines != 1 || res.RemovedLines != 1 {
		t.Fatalf("counts = %+v", res)
	}
	if res.Ratio != 0.5 {
		t.Fatalf("ratio = %f, want 0.5", res.Ratio)
	}
}

func TestProposeModificationRejectsAboveLineLimit(t *testing.T) {
	old := manyLines("line", 100)
	updated := old + manyLines("extra", 600)
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.99})
	if res.Accepted {
		t.Fatal("600 added lines should exceed max_lines=500")
	}
	if res.ChangedLines != 600 {
		t.Fatalf("changed = %d, want 600", res.ChangedLines)
	}
	if !strings.Contains(res.Reason, "500") {
		t.Fatalf("reason %q should mention the limit", res.Reason)
	}
}

func TestProposeModificationRejectsAboveRatio(t *testing.T) {
	old := manyLines("keep", 10)
	updated := manyLines("replaced", 10)
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if res.Accepted {
		t.Fatalf("full rewrite should exceed ratio, got %+v", res)
	}
	if res.Ratio <= 0.5 {
		t.Fatalf("ratio = %f, want > 0.5", res.Ratio)
	}
}

func TestProposeModificationIdenticalContent(t *testing.T) {
	content := "x\ny\nz\n"
	res := ProposeModification(content, content, Thresholds{MaxLines: 1, MaxRatio: 0.01})
	if !res.Accepted {
		t.Fatalf("identical content rejected: %s", res.Reason)
	}
	if res.ChangedLines != 0 {
		t.Fatalf("changed = %d, want 0", res.ChangedLines)
	}
}

func TestProposeModificationNewFileIgnoresRatio(t *testing.T) {
	updated := manyLines("fresh", 20)
	res := ProposeModification("", updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if !res.Accepted {
		t.Fatalf("new file within max_lines rejected: %s", res.Reason)
	}

	big := manyLines("fresh", 600)
	res = ProposeModification("", big, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if res.Accepted {
		t.Fatal("new file above max_lines should be rejected")
	}
}

func TestProposeModificationEmptyNewContent(t *testing.T) {
	old := manyLines("gone", 10)
	res := ProposeModification(old, "", Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if res.Accepted {
		t.Fatal("wiping the whole file should exceed the ratio bound")
	}
	if res.RemovedLines != 10 {
		t.Fatalf("removed = %d, want 10", res.RemovedLines)
	}
}

func TestProposeModificationNormalizesLineEndings(t *testing.T) {
	old := "a\nb\nc\n"
	updated := "a\r\nb\r\nc\r\n"
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if res.ChangedLines != 0 {
		t.Fatalf("CRLF conversion counted as %d changed lines", res.ChangedLines)
	}
}

func TestProposeModificationCutsOffLargeRewrite(t *testing.T) {
	// Same length on both sides, every line different: the length delta
	// gives no early out, so the bounded diff search must cut off instead
	// of measuring all 24000 changed lines.
	old := manyLines("before", 12000)
	updated := manyLines("after", 12000)
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if res.Accepted {
		t.Fatal("full rewrite of a 12000-line file should be rejected")
	}
	if res.ChangedLines <= 500 {
		t.Fatalf("changed = %d, want a count above the limit", res.ChangedLines)
	}
	if !strings.Contains(res.Reason, "500") {
		t.Fatalf("reason %q should mention the limit", res.Reason)
	}
}

func TestProposeModificationShortCircuitsOnShrink(t *testing.T) {
	old := manyLines("line", 700)
	updated := manyLines("line", 100)
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.99})
	if res.Accepted {
		t.Fatal("removing 600 lines should exceed max_lines=500")
	}
	if res.RemovedLines != 600 || res.ChangedLines != 600 {
		t.Fatalf("counts = %+v, want 600 removed", res)
	}
	if !strings.Contains(res.Reason, "at least") {
		t.Fatalf("reason %q should state the count is a floor", res.Reason)
	}
}

func TestProposeModificationPreviewContent(t *testing.T) {
	res := ProposeModification("a\nb\nc\n", "a\nB\nc\n", Thresholds{MaxLines: 500, MaxRatio: 0.99})
	if !res.Accepted {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if !strings.Contains(res.Preview, "-b") || !strings.Contains(res.Preview, "+B") {
		t.Fatalf("preview = %q, want -b and +B", res.Preview)
	}
	if strings.Contains(res.Preview, "-a") || strings.Contains(res.Preview, "-c") {
		t.Fatalf("preview %q includes unchanged lines", res.Preview)
	}
}

func TestProposeModificationCountsMidFileEdit(t *testing.T) {
	old := manyLines("keep", 2000)
	lines := strings.Split(strings.TrimSuffix(old, "\n"), "\n")
	lines[1000] = "edited"
	updated := strings.Join(lines, "\n") + "\n"

	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	if !res.Accepted {
		t.Fatalf("rejected: %s", res.Reason)
	}
	if res.AddedLines != 1 || res.RemovedLines != 1 || res.ChangedLines != 2 {
		t.Fatalf("counts = %+v, want +1/-1", res)
	}
}

func TestProposeModificationPreviewBounded(t *testing.T) {
	old := ""
	updated := manyLines("added", 200)
	res := ProposeModification(old, updated, Thresholds{MaxLines: 500, MaxRatio: 0.5})
	previewLines := strings.Split(res.Preview, "\n")
	if len(previewLines) > previewLimit+1 {
		t.Fatalf("preview has %d lines, want at most %d", len(previewLines), previewLimit+1)
	}
	if !strings.Contains(res.Preview, "more changed lines") {
		t.Error("long preview should note truncation")
	}
}
