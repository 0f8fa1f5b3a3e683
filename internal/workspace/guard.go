package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Decision is the outcome of classifying a workspace-relative path.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Filter confines every operation to a single workspace root and blocks
// deny-listed path components. Classification is deterministic and never
// touches storage.
type Filter struct {
	root string
	deny map[string]struct{}
}

// NewFilter builds a filter rooted at root. Deny entries are matched
// case-sensitively against each path component at any depth.
func NewFilter(root string, denyList []string) (*Filter, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	deny := make(map[string]struct{}, len(denyList))
	for _, entry := range denyList {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		deny[entry] = struct{}{}
	}
	return &Filter{root: abs, deny: deny}, nil
}

// Root returns the absolute workspace root.
func (f *Filter) Root() string {
	return f.root
}

// Classify decides whether a workspace-relative path may be touched.
func (f *Filter) Classify(path string) Decision {
	_, dec := f.Resolve(path)
	return dec
}

// Resolve classifies path and, when allowed, returns its absolute location
// inside the workspace root.
func (f *Filter) Resolve(path string) (string, Decision) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "." {
		return f.root, allow()
	}

	cleaned := filepath.Clean(trimmed)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", deny(fmt.Sprintf("path %q is outside the workspace root", path))
	}

	var target string
	if filepath.IsAbs(cleaned) {
		target = cleaned
	} else {
		target = filepath.Join(f.root, cleaned)
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", deny(fmt.Sprintf("path %q cannot be resolved: %v", path, err))
	}
	if abs != f.root && !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) {
		return "", deny(fmt.Sprintf("path %q is outside the workspace root", path))
	}

	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return "", deny(fmt.Sprintf("path %q cannot be resolved: %v", path, err))
	}
	if rel != "." {
		for _, part := range strings.Split(rel, string(os.PathSeparator)) {
			if f.DeniedName(part) {
				return "", deny(fmt.Sprintf("access to sensitive path %q is denied", path))
			}
		}
	}
	return abs, allow()
}

// DeniedName reports whether a single path component is on the deny list.
// Used by listing and tree traversal to skip sensitive entries.
func (f *Filter) DeniedName(name string) bool {
	_, blocked := f.deny[name]
	return blocked
}

// Rel converts an absolute path back to workspace-relative form for display.
func (f *Filter) Rel(path string) string {
	rel, err := filepath.Rel(f.root, path)
	if err != nil {
		return path
	}
	return rel
}

// WithinRoot reports whether abs resolves inside the workspace after
// following symlinks. Tree traversal uses this to avoid descending into
// links that point outside the root.
func (f *Filter) WithinRoot(abs string) bool {
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return false
	}
	rootResolved, err := filepath.EvalSymlinks(f.root)
	if err != nil {
		rootResolved = f.root
	}
	return resolved == rootResolved || strings.HasPrefix(resolved, rootResolved+string(os.PathSeparator))
}
