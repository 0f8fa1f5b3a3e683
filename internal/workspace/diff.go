package workspace

import (
	"fmt"
	"strings"
)

// Thresholds bound how large a single proposed modification may be.
type Thresholds struct {
	MaxLines int
	MaxRatio float64
}

// DiffResult reports the measured size of a proposed modification and
// whether it falls within the configured thresholds. When the change is
// rejected before the diff completes, ChangedLines is a lower bound on
// the true count.
type DiffResult struct {
	AddedLines   int
	RemovedLines int
	ChangedLines int
	TotalLines   int
	Ratio        float64
	Accepted     bool
	Reason       string
	Preview      string
}

const previewLimit = 40

// ProposeModification computes a line-level diff between old and new
// content and applies the threshold policy. Line endings are normalized
// before diffing so CRLF churn never counts as a change. The diff search
// is cut off once the change count exceeds MaxLines, so memory is
// bounded by the threshold rather than the file size. The content on
// disk is never touched here; callers apply the accepted content with
// ApplyModification.
func ProposeModification(oldContent, newContent string, th Thresholds) DiffResult {
	oldLines := splitLines(normalizeNewlines(oldContent))
	newLines := splitLines(normalizeNewlines(newContent))

	res := DiffResult{TotalLines: len(oldLines)}
	total := res.TotalLines
	if total < 1 {
		total = 1
	}

	bound := th.MaxLines
	if bound <= 0 {
		bound = len(oldLines) + len(newLines)
	}

	// The changed count can never be smaller than the length delta, so an
	// oversized growth or shrink is rejected before any diff work.
	delta := len(newLines) - len(oldLines)
	if delta < 0 {
		delta = -delta
	}
	if th.MaxLines > 0 && delta > th.MaxLines {
		if len(newLines) > len(oldLines) {
			res.AddedLines = delta
		} else {
			res.RemovedLines = delta
		}
		res.ChangedLines = delta
		res.Ratio = float64(delta) / float64(total)
		res.Reason = fmt.Sprintf("change of at least %d lines exceeds the %d line limit", delta, th.MaxLines)
		return res
	}

	added, removed, preview, within := diffLines(oldLines, newLines, bound)
	if !within {
		res.ChangedLines = bound + 1
		res.Ratio = float64(res.ChangedLines) / float64(total)
		res.Reason = fmt.Sprintf("change of more than %d lines exceeds the %d line limit", bound, th.MaxLines)
		return res
	}

	res.AddedLines = added
	res.RemovedLines = removed
	res.ChangedLines = added + removed
	res.Ratio = float64(res.ChangedLines) / float64(total)
	res.Preview = preview

	if res.ChangedLines == 0 {
		res.Accepted = true
		res.Reason = "no changes detected"
		return res
	}
	// A brand new file has no baseline to measure a ratio against; only the
	// absolute line limit applies.
	if len(oldLines) > 0 && th.MaxRatio > 0 && res.Ratio > th.MaxRatio {
		res.Reason = fmt.Sprintf("change touches %.0f%% of the file, above the %.0f%% limit", res.Ratio*100, th.MaxRatio*100)
		return res
	}
	res.Accepted = true
	res.Reason = fmt.Sprintf("%d lines changed (+%d/-%d)", res.ChangedLines, added, removed)
	return res
}

// ApplyModification replaces the file content in one atomic write. Call
// only after ProposeModification accepted the change.
func ApplyModification(abs string, newContent string) error {
	return WriteFileAtomic(abs, normalizeNewlines(newContent))
}

// diffLines runs Myers' greedy edit-distance search, cut off at
// maxChanged edits. Memory is bounded by the cutoff for the backtrack
// trace, independent of input length. within is false when the edit
// distance exceeds the cutoff; counts and preview are then unset.
func diffLines(oldLines, newLines []string, maxChanged int) (added, removed int, preview string, within bool) {
	n, m := len(oldLines), len(newLines)
	bound := maxChanged
	if bound <= 0 || bound > n+m {
		bound = n + m
	}

	offset := bound
	v := make([]int, 2*bound+2)
	var trace [][]int

	distance := -1
search:
	for d := 0; d <= bound; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && oldLines[x] == newLines[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				distance = d
				break search
			}
		}
	}
	if distance < 0 {
		return 0, 0, "", false
	}

	// Walk the trace back from (n, m); each step is one changed line.
	var ops []string
	x, y := n, m
	for d := distance; d > 0; d-- {
		vd := trace[d]
		k := x - y
		var prevK int
		if k == -d || (k != d && vd[offset+k-1] < vd[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := vd[offset+prevK]
		prevY := prevX - prevK
		for x > prevX && y > prevY {
			x--
			y--
		}
		if x == prevX {
			y--
			added++
			ops = append(ops, "+"+newLines[y])
		} else {
			x--
			removed++
			ops = append(ops, "-"+oldLines[x])
		}
	}

	// ops were collected newest-first; the preview reads top-down.
	out := make([]string, 0, previewLimit+1)
	limit := len(ops)
	if limit > previewLimit {
		limit = previewLimit
	}
	for i := 0; i < limit; i++ {
		out = append(out, ops[len(ops)-1-i])
	}
	if len(ops) > previewLimit {
		out = append(out, fmt.Sprintf("... (%d more changed lines)", len(ops)-previewLimit))
	}
	return added, removed, strings.Join(out, "\n"), true
}

func normalizeNewlines(content string) string {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	return strings.ReplaceAll(normalized, "\r", "\n")
}

// splitLines splits content into lines without a phantom trailing entry.
// Empty content has zero lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
