package core

import (
	"fmt"
	"go/ast"
	"go/types"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/tools/go/packages"
)

// The service struct is the seam other layers build against; this test keeps
// its collaborator set stable across refactors.
func TestServiceStructContract(t *testing.T) {
	pkg := loadCorePackage(t)

	obj := pkg.Types.Scope().Lookup("Service")
	if obj == nil {
		t.Fatalf("Service type not found in package")
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		t.Fatalf("Service is not a named type")
	}
	structType, ok := named.Underlying().(*types.Struct)
	if !ok {
		t.Fatalf("Service is not a struct")
	}

	qualifier := func(p *types.Package) string {
		if p == nil {
			return ""
		}
		return p.Path()
	}

	fields := make(map[string]string, structType.NumFields())
	for i := 0; i < structType.NumFields(); i++ {
		field := structType.Field(i)
		fields[field.Name()] = types.TypeString(field.Type(), qualifier)
	}

	required := map[string]string{
		"store":      "plantcore/pkg/domain.PersistentStore",
		"slots":      "*plantcore/internal/core.SlotAllocator",
		"dispatcher": "plantcore/internal/notify.Dispatcher",
		"images":     "plantcore/internal/blob/core.Store",
		"profiles":   "*plantcore/internal/kv.ProfileCache",
		"logger":     "plantcore/internal/core.Logger",
		"metrics":    "plantcore/internal/core.MetricsRecorder",
		"clock":      "plantcore/internal/core.Clock",
	}

	var missing []string
	var mismatched []string
	for name, want := range required {
		got, ok := fields[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if got != want {
			mismatched = append(mismatched, fmt.Sprintf("%s: want %s, got %s", name, want, got))
		}
	}

	if len(missing) > 0 || len(mismatched) > 0 {
		var details []string
		if len(missing) > 0 {
			details = append(details, "missing fields: "+strings.Join(missing, ", "))
		}
		if len(mismatched) > 0 {
			details = append(details, "type mismatches: "+strings.Join(mismatched, "; "))
		}
		t.Fatalf("service struct contract violated: %s", strings.Join(details, "; "))
	}
}

// Every exported mutation on the service must go through the transactional
// store so rule evaluation cannot be bypassed.
func TestServiceMutationsUseTransactions(t *testing.T) {
	pkg := loadCorePackage(t)

	var violations []string
	for _, file := range pkg.Syntax {
		pos := pkg.Fset.Position(file.Pos())
		name := filepath.Base(pos.Filename)
		if strings.HasSuffix(name, "_test.go") {
			continue
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || fn.Body == nil {
				continue
			}
			if !isServiceReceiver(fn) || !ast.IsExported(fn.Name.Name) {
				continue
			}
			if !methodReturnsResult(fn) {
				continue
			}
			if callsRunInTransaction(fn.Body) {
				continue
			}
			violations = append(violations, fmt.Sprintf("%s:%d %s", name, pos.Line, fn.Name.Name))
		}
	}

	if len(violations) > 0 {
		t.Fatalf("service methods returning Result must commit through RunInTransaction:\n%s", strings.Join(violations, "\n"))
	}
}

var (
	corePkgOnce sync.Once
	corePkg     *packages.Package
	corePkgErr  error
)

func loadCorePackage(t *testing.T) *packages.Package {
	t.Helper()

	corePkgOnce.Do(func() {
		cfg := &packages.Config{
			Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedCompiledGoFiles | packages.NeedFiles,
		}
		pkgs, err := packages.Load(cfg, "plantcore/internal/core")
		if err != nil {
			corePkgErr = fmt.Errorf("load core package: %w", err)
			return
		}
		for _, pkg := range pkgs {
			if len(pkg.Errors) > 0 {
				corePkgErr = fmt.Errorf("package load errors: %v", pkg.Errors)
				return
			}
			if pkg.PkgPath == "plantcore/internal/core" {
				corePkg = pkg
				return
			}
		}
		corePkgErr = fmt.Errorf("core package not found in load results")
	})

	if corePkgErr != nil {
		t.Fatalf("core package load: %v", corePkgErr)
	}
	return corePkg
}

func isServiceReceiver(fn *ast.FuncDecl) bool {
	if len(fn.Recv.List) == 0 {
		return false
	}
	var ident *ast.Ident
	switch expr := fn.Recv.List[0].Type.(type) {
	case *ast.StarExpr:
		if inner, ok := expr.X.(*ast.Ident); ok {
			ident = inner
		}
	case *ast.Ident:
		ident = expr
	}
	return ident != nil && ident.Name == "Service"
}

func methodReturnsResult(fn *ast.FuncDecl) bool {
	if fn.Type.Results == nil {
		return false
	}
	for _, res := range fn.Type.Results.List {
		switch expr := res.Type.(type) {
		case *ast.Ident:
			if expr.Name == "Result" {
				return true
			}
		case *ast.SelectorExpr:
			if expr.Sel.Name == "Result" {
				return true
			}
		}
	}
	return false
}

func callsRunInTransaction(body *ast.BlockStmt) bool {
	found := false
	ast.Inspect(body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		if sel, ok := call.Fun.(*ast.SelectorExpr); ok && sel.Sel.Name == "RunInTransaction" {
			found = true
			return false
		}
		return true
	})
	return found
}
