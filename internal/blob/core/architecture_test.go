package core

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyCompositionRootsImportBlobInfra ensures the concrete blob backends
// stay behind the Store interface: only the server entrypoint (which wires a
// backend from config) and test packages may import them. Everything else
// must depend on this package's Store interface.
func TestOnlyCompositionRootsImportBlobInfra(t *testing.T) {
	infraPrefix := "rulecore/internal/infra/blob"
	allowed := []string{
		"rulecore/internal/blob",
		"rulecore/internal/infra/blob",
		"rulecore/cmd/rulecore-server",
	}

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "rulecore/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if isTestVariant(pkg.ID) || isAllowedImporter(pkg.PkgPath, allowed) {
			continue
		}
		for importPath := range pkg.Imports {
			if isInfraImport(importPath, infraPrefix) {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of blob infra package: %s", v)
		}
		t.Fatalf("found %d forbidden imports of blob infra packages", len(violations))
	}
}

// isTestVariant reports whether the package ID names a test binary or a
// package recompiled with its test files. Tests may import backends as
// fixtures.
func isTestVariant(id string) bool {
	return strings.Contains(id, ".test") || strings.Contains(id, " [")
}

func isAllowedImporter(pkgPath string, allowed []string) bool {
	for _, prefix := range allowed {
		if pkgPath == prefix || strings.HasPrefix(pkgPath, prefix+"/") {
			return true
		}
	}
	return false
}

func isInfraImport(importPath, prefix string) bool {
	return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
}
