package core

import (
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestBackendImplementationsHardening ensures only sanctioned persistence
// packages provide concrete implementations of persist.Backend. This guards
// architectural drift from introducing additional backends outside the vetted
// locations (file + sqlite + postgres) without an explicit test update.
func TestBackendImplementationsHardening(t *testing.T) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes, Tests: true}
	pkgs, err := packages.Load(cfg, "rostercore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	// Locate the Backend interface type from the persist package.
	var backend *types.Interface
	for _, p := range pkgs {
		if p.PkgPath == "rostercore/internal/persist" {
			obj := p.Types.Scope().Lookup("Backend")
			if obj == nil {
				t.Fatalf("persist.Backend not found")
			}
			iface, ok := obj.Type().Underlying().(*types.Interface)
			if !ok {
				t.Fatalf("persist.Backend is not an interface")
			}
			backend = iface
		}
	}
	if backend == nil {
		t.Fatalf("failed to resolve Backend interface")
	}
	allowed := map[string]struct{}{
		"rostercore/internal/persist/file":     {},
		"rostercore/internal/persist/sqlite":   {},
		"rostercore/internal/persist/postgres": {},
	}
	var unexpected []string
	for _, p := range pkgs {
		if p.Types == nil || p.Types.Scope() == nil {
			continue
		}
		for _, name := range p.Types.Scope().Names() {
			obj := p.Types.Scope().Lookup(name)
			// Only concrete named struct types can carry an implementation.
			named, ok := obj.Type().(*types.Named)
			if !ok {
				continue
			}
			if _, ok := named.Underlying().(*types.Struct); !ok {
				continue
			}
			if types.Implements(types.NewPointer(named), backend) {
				if _, ok := allowed[p.PkgPath]; !ok {
					unexpected = append(unexpected, p.PkgPath+"."+name)
				}
			}
		}
	}
	if len(unexpected) > 0 {
		_, file, line, _ := runtime.Caller(0)
		t.Fatalf("unexpected Backend implementations (update the allowed list intentionally when adding a backend):\nfile=%s:%d\n%s", filepath.Base(file), line, unexpected)
	}
}
