package workspace

import (
	"testing"
)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()
	f, err := NewFilter(t.TempDir(), []string{".env", ".git", "venv", ".idea"})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	return f
}

func TestClassifyDeniesSensitiveComponents(t *testing.T) {
	f := newTestFilter(t)

	cases := []string{
		".env",
		".git",
		".git/config",
		"src/.env",
		"a/b/venv/lib/thing.py",
		"nested/.idea/workspace.xml",
	}
	for _, path := range cases {
		dec := f.Classify(path)
		if dec.Allowed {
			t.Errorf("Classify(%q) allowed, want denied", path)
		}
		if dec.Reason == "" {
			t.Errorf("Classify(%q) has no reason", path)
		}
	}
}

func TestClassifyDeniesRootEscape(t *testing.T) {
	f := newTestFilter(t)

	cases := []string{
		"..",
		"../outside.txt",
		"a/../../outside.txt",
		"a/b/../../../etc/passwd",
	}
	for _, path := range cases {
		if dec := f.Classify(path); dec.Allowed {
			t.Errorf("Classify(%q) allowed, want denied", path)
		}
	}
}

func TestClassifyAllowsOrdinaryPaths(t *testing.T) {
	f := newTestFilter(t)

	cases := []string{
		".",
		"",
		"main.go",
		"src/app/handler.go",
		"environment.txt", // prefix of a denied name is not a match
		"a/../b.txt",      // normalizes inside the root
	}
	for _, path := range cases {
		if dec := f.Classify(path); !dec.Allowed {
			t.Errorf("Classify(%q) denied: %s", path, dec.Reason)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	f := newTestFilter(t)
	first := f.Classify("src/.env")
	for i := 0; i < 5; i++ {
		if got := f.Classify("src/.env"); got != first {
			t.Fatalf("decision changed between calls: %v vs %v", got, first)
		}
	}
}

func TestResolveReturnsAbsolutePathInsideRoot(t *testing.T) {
	f := newTestFilter(t)
	abs, dec := f.Resolve("pkg/util.go")
	if !dec.Allowed {
		t.Fatalf("resolve denied: %s", dec.Reason)
	}
	if f.Rel(abs) != "pkg/util.go" {
		t.Fatalf("rel round trip = %q", f.Rel(abs))
	}
}

func TestDenyListIsCaseSensitive(t *testing.T) {
	f := newTestFilter(t)
	if dec := f.Classify(".ENV"); !dec.Allowed {
		t.Errorf(".ENV should not match the .env deny entry: %s", dec.Reason)
	}
}
