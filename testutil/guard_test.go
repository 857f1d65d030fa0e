package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDomainImportForbiddenPredicate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"plantcore/pkg/domain", true},
		{"example.com/mod/pkg/domain@v1", true},
		{"plantcore/pkg/notdomain", false},
	}
	for _, c := range cases {
		if got := DomainImportForbidden(c.in); got != c.want {
			t.Fatalf("DomainImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbiddenPredicate(t *testing.T) {
	if !InternalImportForbidden("plantcore/internal/core") {
		t.Fatalf("expected internal path to be forbidden")
	}
	if InternalImportForbidden("plantcore/pkg/domain") {
		t.Fatalf("pkg path must not match")
	}
}

func TestAssertNoDirectImportsAcceptsCleanPackage(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

func TestAssertNoTransitiveDependencyAcceptsCleanPattern(t *testing.T) {
	AssertNoTransitiveDependency(t, ".", func(string) bool { return false }, "none")
}
