// Package session persists per-session artifacts: the event log fed
// back to the model as context, the prompt input history, and the
// durable record of executed commands.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"filewright/internal/logging"
)

// EventLog appends plan reports and other session events to a
// timestamped file. Logging is best effort: a failed write is reported
// through the error log and never fails the caller.
type EventLog struct {
	path string
	mu   sync.Mutex
}

// NewEventLog creates a log for a fresh session under dir.
func NewEventLog(dir string) *EventLog {
	if dir == "" {
		return &EventLog{}
	}
	name := fmt.Sprintf("session_%s.log", time.Now().Format("20060102_150405"))
	return &EventLog{path: filepath.Join(dir, name)}
}

// Path returns the log file location, empty when logging is disabled.
func (l *EventLog) Path() string {
	return l.path
}

// Append writes one timestamped entry. Multi-line entries are stored
// verbatim under their header line.
func (l *EventLog) Append(label, body string) {
	if l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		logging.ErrorLog("session log dir: %v", err)
		return
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		logging.ErrorLog("session log open: %v", err)
		return
	}
	defer f.Close()

	stamp := time.Now().Format(time.RFC3339)
	if _, err := fmt.Fprintf(f, "=== %s %s ===\n%s\n", stamp, label, body); err != nil {
		logging.ErrorLog("session log write: %v", err)
	}
}
