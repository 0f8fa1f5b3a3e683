package engine

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"filewright/internal/plan"
	"filewright/internal/workspace"
)

// Category classifies why a command failed. Successful results carry no
// category.
type Category string

const (
	CategoryPolicyDenied      Category = "policy_denied"
	CategoryThresholdExceeded Category = "threshold_exceeded"
	CategoryNotFound          Category = "not_found"
	CategoryAlreadyExists     Category = "already_exists"
	CategoryWrongType         Category = "wrong_type"
	CategoryProtocol          Category = "protocol"
	CategoryIO                Category = "io"
)

// Result is the recorded outcome of one command. Data carries
// kind-specific output such as file content or a directory listing.
type Result struct {
	Command  plan.Command
	Success  bool
	Category Category
	Message  string
	Data     string
}

func success(cmd plan.Command, message string) Result {
	return Result{Command: cmd, Success: true, Message: message}
}

func failure(cmd plan.Command, category Category, message string) Result {
	return Result{Command: cmd, Category: category, Message: message}
}

// resolve runs the path filter and converts a denial into a finished
// policy result.
func (e *Engine) resolve(cmd plan.Command, path string) (string, Result, bool) {
	abs, dec := e.filter.Resolve(path)
	if !dec.Allowed {
		return "", failure(cmd, CategoryPolicyDenied, dec.Reason), false
	}
	return abs, Result{}, true
}

// fsFailure maps a file-system error onto the result taxonomy.
func fsFailure(cmd plan.Command, err error) Result {
	switch {
	case os.IsNotExist(err):
		return failure(cmd, CategoryNotFound, err.Error())
	case os.IsExist(err):
		return failure(cmd, CategoryAlreadyExists, err.Error())
	case errors.Is(err, workspace.ErrIsDirectory), errors.Is(err, workspace.ErrNotDirectory):
		return failure(cmd, CategoryWrongType, err.Error())
	default:
		return failure(cmd, CategoryIO, err.Error())
	}
}

func (e *Engine) runMkdir(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	created, err := workspace.Mkdir(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	if !created {
		return success(cmd, fmt.Sprintf("directory already exists: %s", cmd.Target))
	}
	return success(cmd, fmt.Sprintf("directory created: %s", cmd.Target))
}

func (e *Engine) runTouch(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	created, err := workspace.Touch(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	if !created {
		return success(cmd, fmt.Sprintf("file already exists: %s", cmd.Target))
	}
	return success(cmd, fmt.Sprintf("file created: %s", cmd.Target))
}

func (e *Engine) runWrite(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return failure(cmd, CategoryWrongType, fmt.Sprintf("%s is a directory", cmd.Target))
	}
	if err := workspace.WriteFileAtomic(abs, cmd.Payload); err != nil {
		return fsFailure(cmd, err)
	}
	return success(cmd, fmt.Sprintf("content written to: %s", cmd.Target))
}

func (e *Engine) runRead(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	content, err := workspace.ReadFile(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	out := success(cmd, fmt.Sprintf("read %d bytes from %s", len(content), cmd.Target))
	out.Data = content
	return out
}

func (e *Engine) runList(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	entries, err := workspace.List(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	visible := entries[:0]
	for _, entry := range entries {
		if e.filter.DeniedName(entry.Name) {
			continue
		}
		visible = append(visible, entry)
	}
	out := success(cmd, fmt.Sprintf("%d entries in %s", len(visible), displayPath(cmd.Target)))
	out.Data = workspace.FormatEntries(visible)
	return out
}

func (e *Engine) runTree(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	rendered, err := workspace.Tree(e.filter, abs, e.treeMaxDepth)
	if err != nil {
		return fsFailure(cmd, err)
	}
	out := success(cmd, fmt.Sprintf("tree of %s", displayPath(cmd.Target)))
	out.Data = rendered
	return out
}

func (e *Engine) runModify(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	old, err := workspace.ReadFile(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	proposal := workspace.ProposeModification(old, cmd.Payload, e.thresholds)
	if !proposal.Accepted {
		out := failure(cmd, CategoryThresholdExceeded, fmt.Sprintf("modification of %s rejected: %s", cmd.Target, proposal.Reason))
		out.Data = proposal.Preview
		return out
	}
	if proposal.ChangedLines == 0 {
		return success(cmd, fmt.Sprintf("no changes detected for %s, file left untouched", cmd.Target))
	}
	if err := workspace.ApplyModification(abs, cmd.Payload); err != nil {
		return fsFailure(cmd, err)
	}
	return success(cmd, fmt.Sprintf("applied modification to %s (%d lines changed)", cmd.Target, proposal.ChangedLines))
}

func (e *Engine) runDelete(cmd plan.Command) Result {
	abs, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	if abs == e.filter.Root() {
		return failure(cmd, CategoryPolicyDenied, "refusing to delete the workspace root")
	}
	wasDir, err := workspace.Delete(abs)
	if err != nil {
		return fsFailure(cmd, err)
	}
	if wasDir {
		return success(cmd, fmt.Sprintf("directory deleted: %s", cmd.Target))
	}
	return success(cmd, fmt.Sprintf("file deleted: %s", cmd.Target))
}

func (e *Engine) runMove(cmd plan.Command) Result {
	dst := strings.TrimSpace(cmd.Payload)
	if dst == "" {
		return failure(cmd, CategoryProtocol, "MOVE requires a destination path")
	}
	absSrc, res, ok := e.resolve(cmd, cmd.Target)
	if !ok {
		return res
	}
	absDst, res, ok := e.resolve(cmd, dst)
	if !ok {
		return res
	}
	if _, err := os.Stat(absDst); err == nil {
		return failure(cmd, CategoryAlreadyExists, fmt.Sprintf("destination already exists: %s", dst))
	}
	if err := workspace.Move(absSrc, absDst); err != nil {
		return fsFailure(cmd, err)
	}
	return success(cmd, fmt.Sprintf("moved %s to %s", cmd.Target, dst))
}

func (e *Engine) runFinish(cmd plan.Command) Result {
	message := cmd.Target
	if message == "" {
		message = "plan finished"
	}
	return success(cmd, message)
}

func displayPath(target string) string {
	if target == "" {
		return "."
	}
	return target
}
