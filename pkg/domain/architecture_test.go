package domain

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestDomainStaysLeaf enforces two architectural rules close to the code:
// the domain layer must not depend on any internal implementation package,
// and it must not log (records travel as values and errors, nothing else).
// Scanning by hand keeps this test free of helper-package imports that the
// rules themselves would outlaw elsewhere.
func TestDomainStaysLeaf(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("cannot get working dir: %v", err)
	}

	entries, err := os.ReadDir(wd)
	if err != nil {
		t.Fatalf("cannot read dir: %v", err)
	}

	forbidden := func(path string) bool {
		return strings.Contains(path, "rostercore/internal/") || path == "log" || path == "log/slog"
	}

	violations := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(wd, name)
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		inBlock := false
		for _, raw := range strings.Split(string(data), "\n") {
			line := strings.TrimSpace(raw)
			if !inBlock {
				if strings.HasPrefix(line, "import (") {
					inBlock = true
					continue
				}
				if strings.HasPrefix(line, "import ") {
					if q := extractQuoted(line); q != "" && forbidden(q) {
						violations++
						t.Errorf("domain package must not import %s (%s)", q, name)
					}
				}
				continue
			}
			if line == ")" {
				inBlock = false
				continue
			}
			if q := extractQuoted(line); q != "" && forbidden(q) {
				violations++
				t.Errorf("domain package must not import %s (%s)", q, name)
			}
		}
	}

	if violations > 0 {
		t.Fatalf("found %d forbidden imports in domain package", violations)
	}
}

// extractQuoted returns the first double-quoted string literal in a line, or "".
func extractQuoted(line string) string {
	start := strings.Index(line, "\"")
	if start == -1 {
		return ""
	}
	end := strings.Index(line[start+1:], "\"")
	if end == -1 {
		return ""
	}
	return line[start+1 : start+1+end]
}
