package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	// ErrIsDirectory is returned when a file operation targets a directory.
	ErrIsDirectory = errors.New("target is a directory")
	// ErrNotDirectory is returned when a directory operation targets a file.
	ErrNotDirectory = errors.New("target is not a directory")
)

// Entry is one child of a listed directory.
type Entry struct {
	Name  string
	IsDir bool
}

// Mkdir creates a directory and any missing parents. The returned flag
// distinguishes a fresh directory from an already-existing one.
func Mkdir(abs string) (created bool, err error) {
	info, statErr := os.Stat(abs)
	if statErr == nil {
		if !info.IsDir() {
			return false, ErrNotDirectory
		}
		return false, nil
	}
	if !os.IsNotExist(statErr) {
		return false, statErr
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// Touch creates an empty file if absent, creating missing parents. Touching
// an existing file is a no-op; touching a directory fails.
func Touch(abs string) (created bool, err error) {
	info, statErr := os.Stat(abs)
	if statErr == nil {
		if info.IsDir() {
			return false, ErrIsDirectory
		}
		return false, nil
	}
	if !os.IsNotExist(statErr) {
		return false, statErr
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return false, err
	}
	return true, f.Close()
}

// ReadFile returns the file's content as text.
func ReadFile(abs string) (string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrIsDirectory
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFileAtomic writes content through a temp file in the target's
// directory followed by a rename, so no reader ever observes a partial
// write. Missing parents are created.
func WriteFileAtomic(abs string, content string) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".fw-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// List returns the immediate children of a directory, sorted by name.
func List(abs string) ([]Entry, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}
	children, err := os.ReadDir(abs)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		entries = append(entries, Entry{Name: child.Name(), IsDir: child.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// FormatEntries renders directory entries one per line, directories with a
// trailing separator.
func FormatEntries(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Name)
		if e.IsDir {
			b.WriteByte('/')
		}
	}
	return b.String()
}

// Delete removes a file or a directory tree. The returned flag reports
// whether the target was a directory.
func Delete(abs string) (wasDir bool, err error) {
	info, err := os.Lstat(abs)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return true, os.RemoveAll(abs)
	}
	return false, os.Remove(abs)
}

// Move renames a file or directory. Missing destination parents are
// created so MOVE can relocate into fresh directories.
func Move(absSrc, absDst string) error {
	if _, err := os.Lstat(absSrc); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(absDst), 0o755); err != nil {
		return err
	}
	return os.Rename(absSrc, absDst)
}

// NumberLines renders content with 1-based line numbers for display.
func NumberLines(content string) string {
	if content == "" {
		return ""
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	width := len(fmt.Sprintf("%d", len(lines)))
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d | %s", width, i+1, line)
	}
	return b.String()
}
