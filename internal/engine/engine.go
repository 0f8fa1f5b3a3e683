// Package engine executes parsed command plans against a confined
// workspace and collects per-command outcomes into an execution report.
package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"filewright/internal/logging"
	"filewright/internal/plan"
	"filewright/internal/workspace"
)

// State tracks where the executor is in a plan.
type State string

const (
	StateRunning       State = "running"
	StateFinished      State = "finished"
	StateHaltedOnFatal State = "halted_on_fatal"
)

// Options configure one engine instance. Everything is passed in
// explicitly so isolated engines can run side by side against different
// roots.
type Options struct {
	Root         string
	DenyList     []string
	Thresholds   workspace.Thresholds
	TreeMaxDepth int
	HaltOnDenial bool
	Logger       *logging.StructuredLogger
}

// Engine runs plans sequentially. It holds no per-plan state; Execute
// may be called repeatedly.
type Engine struct {
	filter       *workspace.Filter
	thresholds   workspace.Thresholds
	treeMaxDepth int
	haltOnDenial bool
	log          *logging.StructuredLogger
}

// New builds an engine confined to opts.Root.
func New(opts Options) (*Engine, error) {
	filter, err := workspace.NewFilter(opts.Root, opts.DenyList)
	if err != nil {
		return nil, fmt.Errorf("create path filter: %w", err)
	}
	depth := opts.TreeMaxDepth
	if depth < 1 {
		depth = 12
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewStructuredLogger(nil, "engine", false)
	}
	return &Engine{
		filter:       filter,
		thresholds:   opts.Thresholds,
		treeMaxDepth: depth,
		haltOnDenial: opts.HaltOnDenial,
		log:          logger.WithWorkspace(filter.Root()),
	}, nil
}

// Root returns the absolute workspace root the engine operates in.
func (e *Engine) Root() string {
	return e.filter.Root()
}

// Execute runs the commands in order. Per-command failures are recorded
// and never stop the plan; only an unusable workspace root or context
// cancellation aborts it. Cancellation is honored between commands, a
// command already started always completes.
func (e *Engine) Execute(ctx context.Context, commands []plan.Command) *Report {
	report := &Report{State: StateRunning, Started: time.Now()}
	defer func() { report.Ended = time.Now() }()

	if err := e.checkRoot(); err != nil {
		report.State = StateHaltedOnFatal
		report.Aborted = true
		report.AbortReason = err.Error()
		e.log.Error("workspace root unusable", map[string]interface{}{"error": err.Error()})
		return report
	}

	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			report.State = StateHaltedOnFatal
			report.Aborted = true
			report.AbortReason = fmt.Sprintf("plan canceled: %v", err)
			e.log.Warn("plan canceled", map[string]interface{}{"remaining": len(commands) - len(report.Results)})
			return report
		}

		res := e.dispatch(cmd)
		report.Append(res)
		e.logResult(res)

		if cmd.Kind == plan.KindFinish && res.Success {
			report.State = StateFinished
			report.FinishMessage = res.Message
			return report
		}
		if !res.Success && res.Category == CategoryPolicyDenied && e.haltOnDenial {
			report.State = StateHaltedOnFatal
			report.Aborted = true
			report.AbortReason = fmt.Sprintf("halted on policy denial at %s", cmd.String())
			return report
		}
	}
	report.State = StateFinished
	return report
}

// checkRoot verifies the workspace root exists and is a directory.
// Anything else is fatal for the whole plan.
func (e *Engine) checkRoot() error {
	info, err := os.Stat(e.filter.Root())
	if err != nil {
		return fmt.Errorf("workspace root %s: %w", e.filter.Root(), err)
	}
	if !info.IsDir() {
		return fmt.Errorf("workspace root %s is not a directory", e.filter.Root())
	}
	return nil
}

func (e *Engine) dispatch(cmd plan.Command) Result {
	if !cmd.Known() {
		return failure(cmd, CategoryProtocol, fmt.Sprintf("unrecognized command %q", cmd.Raw))
	}

	switch cmd.Kind {
	case plan.KindMkdir:
		return e.runMkdir(cmd)
	case plan.KindTouch:
		return e.runTouch(cmd)
	case plan.KindWrite:
		return e.runWrite(cmd)
	case plan.KindRead:
		return e.runRead(cmd)
	case plan.KindList:
		return e.runList(cmd)
	case plan.KindTree:
		return e.runTree(cmd)
	case plan.KindModify:
		return e.runModify(cmd)
	case plan.KindDelete:
		return e.runDelete(cmd)
	case plan.KindMove:
		return e.runMove(cmd)
	case plan.KindFinish:
		return e.runFinish(cmd)
	default:
		return failure(cmd, CategoryProtocol, fmt.Sprintf("unrecognized command %q", cmd.Raw))
	}
}

func (e *Engine) logResult(res Result) {
	fields := map[string]interface{}{
		"kind":    string(res.Command.Kind),
		"target":  res.Command.Target,
		"success": res.Success,
	}
	if res.Success {
		e.log.Debug("command executed", fields)
		return
	}
	fields["category"] = string(res.Category)
	fields["message"] = res.Message
	e.log.Info("command failed", fields)
}
