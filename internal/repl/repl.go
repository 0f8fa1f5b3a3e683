// Package repl provides the interactive prompt and one-shot plan runner
// around the execution engine.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	prompt "github.com/c-bata/go-prompt"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"filewright/internal/engine"
	"filewright/internal/logging"
	"filewright/internal/plan"
	"filewright/internal/session"
)

var commandSuggestions = []prompt.Suggest{
	{Text: "MKDIR::", Description: "Create a directory (idempotent)"},
	{Text: "TOUCH::", Description: "Create an empty file"},
	{Text: "WRITE::", Description: "Write content to a file: WRITE::path::content"},
	{Text: "READ::", Description: "Read a file"},
	{Text: "LIST::", Description: "List a directory"},
	{Text: "TREE::", Description: "Render a directory tree"},
	{Text: "MODIFY::", Description: "Replace file content, diff-bounded: MODIFY::path::content"},
	{Text: "DELETE::", Description: "Delete a file or directory"},
	{Text: "MOVE::", Description: "Move or rename: MOVE::src::dst"},
	{Text: "FINISH", Description: "End the plan"},
	{Text: ":help", Description: "Show usage"},
	{Text: ":stats", Description: "Show stored command statistics"},
	{Text: ":quit", Description: "Exit"},
}

// Runner drives the engine from user input, records every run in the
// command store, and appends reports to the session event log.
type Runner struct {
	engine  *engine.Engine
	store   *session.Store
	events  *session.EventLog
	history *session.History
	render  *glamour.TermRenderer
	isTTY   bool
}

// New wires a runner. store, events and history may be nil; the
// corresponding persistence is then skipped.
func New(e *engine.Engine, store *session.Store, events *session.EventLog, history *session.History) *Runner {
	var renderer *glamour.TermRenderer
	if fd := int(os.Stdout.Fd()); term.IsTerminal(fd) {
		wrap := 0
		if width, _, err := term.GetSize(fd); err == nil && width > 0 {
			wrap = width
		}
		if r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		); err == nil {
			renderer = r
		}
	}
	return &Runner{
		engine:  e,
		store:   store,
		events:  events,
		history: history,
		render:  renderer,
		isTTY:   term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// ExecutePlan parses and runs a block of command text, persisting the
// outcome. This is the single entry point for both the prompt loop and
// one-shot plan files.
func (r *Runner) ExecutePlan(ctx context.Context, text string) *engine.Report {
	if r.events != nil {
		r.events.Append("input", strings.TrimSpace(text))
	}
	commands, skipped := plan.Parse(text)
	for _, line := range skipped {
		logging.UserLog("ignoring unparseable line: %q", line)
		fmt.Printf("(ignoring unparseable line: %q)\n", line)
	}

	report := r.engine.Execute(ctx, commands)

	if r.store != nil {
		for _, res := range report.Results {
			run := session.CommandRun{
				Kind:     string(res.Command.Kind),
				Target:   res.Command.Target,
				Success:  res.Success,
				Category: string(res.Category),
				Message:  res.Message,
			}
			if err := r.store.Record(run); err != nil {
				logging.ErrorLog("record command run: %v", err)
			}
		}
	}
	if r.events != nil {
		r.events.Append("report", report.Render())
	}
	return report
}

// PrintReport renders the report to stdout, through glamour when the
// terminal supports it.
func (r *Runner) PrintReport(report *engine.Report) {
	if r.render != nil {
		if out, err := r.render.Render(report.Markdown()); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(report.Render())
}

// Run starts the interactive loop and blocks until the user exits.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Printf("filewright ready in %s\n", r.engine.Root())
	fmt.Println("Enter commands like WRITE::notes.txt::hello, or :help for usage.")

	if r.isTTY {
		return r.runPrompt(ctx, cancel)
	}
	return r.runNonInteractive(ctx)
}

type promptExit struct{}

func (r *Runner) runPrompt(ctx context.Context, cancel context.CancelFunc) (err error) {
	var entries []string
	if r.history != nil {
		entries = r.history.Entries()
	}

	var restore func()
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		if state, terr := term.GetState(fd); terr == nil {
			restore = func() { _ = term.Restore(fd, state) }
		}
	}
	if restore != nil {
		defer restore()
	}

	var exitRequested atomic.Bool
	defer func() {
		if rec := recover(); rec != nil {
			if _, ok := rec.(promptExit); ok {
				err = nil
				return
			}
			panic(rec)
		}
	}()

	executor := func(in string) {
		if exitRequested.Load() || ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(in)
		if line == "" {
			return
		}
		if r.history != nil {
			r.history.Add(line)
		}
		if exit := r.handleLine(ctx, line); exit {
			exitRequested.Store(true)
			cancel()
			panic(promptExit{})
		}
	}

	p := prompt.New(
		executor,
		completer,
		prompt.OptionHistory(entries),
		prompt.OptionTitle("filewright"),
		prompt.OptionPrefix("plan> "),
		prompt.OptionAddKeyBind(
			prompt.KeyBind{
				Key: prompt.ControlC,
				Fn: func(buf *prompt.Buffer) {
					fmt.Println("\n(Use :quit or Ctrl+D to exit)")
				},
			},
			prompt.KeyBind{
				Key: prompt.ControlD,
				Fn: func(buf *prompt.Buffer) {
					if buf.Text() == "" {
						exitRequested.Store(true)
						cancel()
						panic(promptExit{})
					}
				},
			},
		),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			if exitRequested.Load() {
				return true
			}
			select {
			case <-ctx.Done():
				return true
			default:
				return false
			}
		}),
	)

	p.Run()
	return nil
}

func (r *Runner) runNonInteractive(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		fmt.Print("plan> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r.history != nil {
			r.history.Add(line)
		}
		if exit := r.handleLine(ctx, line); exit {
			return nil
		}
	}
}

// handleLine runs one prompt entry. The returned flag requests exit.
func (r *Runner) handleLine(ctx context.Context, line string) bool {
	switch line {
	case ":quit", ":exit", ":q":
		return true
	case ":help", ":h":
		r.printHelp()
		return false
	case ":stats":
		r.printStats()
		return false
	}
	if strings.HasPrefix(line, ":") {
		fmt.Printf("unknown command %s, try :help\n", line)
		return false
	}

	report := r.ExecutePlan(ctx, line)
	r.PrintReport(report)
	return false
}

func completer(doc prompt.Document) []prompt.Suggest {
	word := doc.GetWordBeforeCursor()
	if word == "" {
		return nil
	}
	return prompt.FilterHasPrefix(commandSuggestions, word, true)
}

func (r *Runner) printHelp() {
	fmt.Println("Commands take the form KIND::path with an optional ::payload.")
	for _, s := range commandSuggestions {
		fmt.Printf("  %-10s %s\n", strings.TrimSuffix(s.Text, "::"), s.Description)
	}
	fmt.Println("Aliases: LIST_PATH, RM and MV map to LIST, DELETE and MOVE.")
}

func (r *Runner) printStats() {
	if r.store == nil {
		fmt.Println("Command store is disabled.")
		return
	}
	stats, err := r.store.Stats()
	if err != nil {
		fmt.Printf("stats unavailable: %v\n", err)
		return
	}
	fmt.Print(FormatStats(stats))
}

// FormatStats renders store statistics for terminal output.
func FormatStats(stats session.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d commands recorded: %d succeeded, %d failed\n", stats.Total, stats.Succeeded, stats.Failed)
	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(&b, "  %-8s %d\n", kind, stats.ByKind[kind])
	}
	return b.String()
}
