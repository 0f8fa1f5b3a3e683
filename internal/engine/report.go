package engine

import (
	"fmt"
	"strings"
	"time"

	"filewright/internal/plan"
	"filewright/internal/workspace"
)

// Report is the ordered record of a plan run. Results appear in
// execution order; commands after a FINISH or an abort are absent.
type Report struct {
	Results       []Result
	State         State
	Aborted       bool
	AbortReason   string
	FinishMessage string
	Started       time.Time
	Ended         time.Time
}

// Append records the next result.
func (r *Report) Append(res Result) {
	r.Results = append(r.Results, res)
}

// Succeeded counts commands that completed successfully.
func (r *Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed counts commands recorded as failures.
func (r *Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Render produces the plain-text report appended to the session log and
// fed back to the model as conversational context.
func (r *Report) Render() string {
	var b strings.Builder
	for i, res := range r.Results {
		status := "OK"
		if !res.Success {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%d] %s %s", i+1, status, res.Command.String())
		if res.Message != "" {
			fmt.Fprintf(&b, ": %s", res.Message)
		}
		b.WriteString("\n")
		if res.Data != "" {
			b.WriteString(indent(res.Data))
			b.WriteString("\n")
		}
	}
	if r.Aborted {
		fmt.Fprintf(&b, "plan aborted: %s\n", r.AbortReason)
	}
	fmt.Fprintf(&b, "%d succeeded, %d failed\n", r.Succeeded(), r.Failed())
	return b.String()
}

// Markdown renders the report for terminal display.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("# Plan Execution Report\n\n")
	for i, res := range r.Results {
		marker := "✓"
		if !res.Success {
			marker = "✗"
		}
		fmt.Fprintf(&b, "%d. %s `%s`", i+1, marker, res.Command.String())
		if res.Message != "" {
			fmt.Fprintf(&b, ": %s", res.Message)
		}
		if !res.Success && res.Category != "" {
			fmt.Fprintf(&b, " _(%s)_", res.Category)
		}
		b.WriteString("\n")
		if res.Data != "" {
			data := res.Data
			// File content reads nicer with line numbers.
			if res.Command.Kind == plan.KindRead {
				data = workspace.NumberLines(data)
			}
			b.WriteString("\n```\n")
			b.WriteString(strings.TrimRight(data, "\n"))
			b.WriteString("\n```\n\n")
		}
	}
	if r.Aborted {
		fmt.Fprintf(&b, "\n**Plan aborted:** %s\n", r.AbortReason)
	}
	fmt.Fprintf(&b, "\n**%d succeeded, %d failed** in %s\n",
		r.Succeeded(), r.Failed(), r.Ended.Sub(r.Started).Round(time.Millisecond))
	return b.String()
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}
