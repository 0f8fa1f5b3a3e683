// Package plan parses the line-oriented command protocol a model emits
// into an ordered list of executable commands.
package plan

import (
	"strings"
)

// Kind identifies a command verb.
type Kind string

const (
	KindMkdir  Kind = "MKDIR"
	KindTouch  Kind = "TOUCH"
	KindWrite  Kind = "WRITE"
	KindRead   Kind = "READ"
	KindList   Kind = "LIST"
	KindTree   Kind = "TREE"
	KindModify Kind = "MODIFY"
	KindDelete Kind = "DELETE"
	KindMove   Kind = "MOVE"
	KindFinish Kind = "FINISH"
)

// Separator joins the fields of a protocol line: KIND::target[::payload].
const Separator = "::"

// aliases maps legacy verb spellings onto their canonical kind.
var aliases = map[string]Kind{
	"LIST_PATH": KindList,
	"RM":        KindDelete,
	"MV":        KindMove,
}

var knownKinds = map[Kind]bool{
	KindMkdir:  true,
	KindTouch:  true,
	KindWrite:  true,
	KindRead:   true,
	KindList:   true,
	KindTree:   true,
	KindModify: true,
	KindDelete: true,
	KindMove:   true,
	KindFinish: true,
}

// Command is one parsed protocol line. Raw keeps the verb exactly as it
// appeared so unrecognized kinds can be reported back verbatim.
type Command struct {
	Kind    Kind
	Raw     string
	Target  string
	Payload string
	Line    int
}

// Known reports whether the command verb is one the executor can run.
func (c Command) Known() bool {
	return knownKinds[c.Kind]
}

func (c Command) String() string {
	if c.Target == "" {
		return string(c.Kind)
	}
	return string(c.Kind) + Separator + c.Target
}

// NeedsPayload reports whether the verb carries a third field.
func (k Kind) NeedsPayload() bool {
	return k == KindWrite || k == KindModify || k == KindMove
}

// Normalize resolves aliases and upper-cases the verb. The boolean is
// false when the verb is not a recognized kind.
func Normalize(verb string) (Kind, bool) {
	upper := strings.ToUpper(strings.TrimSpace(verb))
	if canonical, ok := aliases[upper]; ok {
		return canonical, true
	}
	k := Kind(upper)
	return k, knownKinds[k]
}

// Parse reads a block of protocol text, one command per line. Lines that
// carry no separator and are not a bare FINISH are returned in skipped
// for the caller to report; they never become commands. Unrecognized
// verbs ARE returned as commands so the executor can surface a protocol
// error at the right position instead of silently losing the line.
func Parse(text string) (commands []Command, skipped []string) {
	for i, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		cmd, ok := parseLine(trimmed, i+1)
		if !ok {
			skipped = append(skipped, trimmed)
			continue
		}
		commands = append(commands, cmd)
	}
	return commands, skipped
}

func parseLine(line string, lineNo int) (Command, bool) {
	if !strings.Contains(line, Separator) {
		// A lone FINISH is the one verb valid without fields.
		if kind, ok := Normalize(line); ok && kind == KindFinish {
			return Command{Kind: KindFinish, Raw: line, Line: lineNo}, true
		}
		return Command{}, false
	}

	parts := strings.SplitN(line, Separator, 3)
	verb := strings.TrimSpace(parts[0])
	if verb == "" {
		return Command{}, false
	}

	cmd := Command{Raw: verb, Line: lineNo}
	if kind, ok := Normalize(verb); ok {
		cmd.Kind = kind
	} else {
		cmd.Kind = Kind(strings.ToUpper(verb))
	}
	if len(parts) > 1 {
		cmd.Target = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		// Payload is carried verbatim. WRITE and MODIFY content may
		// legitimately contain the separator or leading whitespace.
		cmd.Payload = parts[2]
	}
	return cmd, true
}
