package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Tree renders a directory subtree with box-drawing connectors. Deny-listed
// names are skipped, symlinks that resolve outside the workspace root are
// never followed, and recursion stops at maxDepth.
func Tree(f *Filter, abs string, maxDepth int) (string, error) {
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", ErrNotDirectory
	}
	if maxDepth < 1 {
		maxDepth = 1
	}

	name := filepath.Base(abs)
	if abs == f.Root() {
		name = filepath.Base(f.Root())
	}
	lines := []string{name + "/"}
	walkTree(f, abs, "", 1, maxDepth, &lines)
	return strings.Join(lines, "\n"), nil
}

func walkTree(f *Filter, dir, prefix string, depth, maxDepth int, lines *[]string) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	names := make([]string, 0, len(children))
	byName := make(map[string]os.DirEntry, len(children))
	for _, child := range children {
		if f.DeniedName(child.Name()) {
			continue
		}
		names = append(names, child.Name())
		byName[child.Name()] = child
	}
	sort.Strings(names)

	for i, name := range names {
		pointer := "├── "
		childPrefix := prefix + "│   "
		if i == len(names)-1 {
			pointer = "└── "
			childPrefix = prefix + "    "
		}
		child := byName[name]
		childPath := filepath.Join(dir, name)

		descend := child.IsDir()
		if child.Type()&os.ModeSymlink != 0 {
			// Render the link but only descend when it stays inside the root.
			descend = f.WithinRoot(childPath) && isDirTarget(childPath)
		}

		label := name
		if descend || child.IsDir() {
			label += "/"
		}
		*lines = append(*lines, prefix+pointer+label)

		if descend && depth < maxDepth {
			walkTree(f, childPath, childPrefix, depth+1, maxDepth, lines)
		}
	}
}

func isDirTarget(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
