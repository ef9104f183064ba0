package validate

import (
	"fmt"
	goparser "go/parser"
	"go/token"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"docforge/internal/logging"
)

// GoCompileChecker type-checks full Go source snippets (those starting with a
// package clause) by compiling them in a yaegi interpreter. Compilation only;
// nothing is executed. This catches problems tree-sitter's grammar cannot,
// like undefined identifiers inside a snippet that claims to be complete.
//
// Snippets importing packages outside the standard library are skipped:
// the interpreter cannot resolve them and a missing third-party import is not
// a documentation defect.
type GoCompileChecker struct{}

// NewGoCompileChecker returns a checker backed by a fresh interpreter per
// snippet (yaegi interpreters accumulate state across Compile calls).
func NewGoCompileChecker() *GoCompileChecker {
	return &GoCompileChecker{}
}

// Applicable reports whether the snippet is a full Go file worth compiling.
func (g *GoCompileChecker) Applicable(body string) bool {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		return strings.HasPrefix(trimmed, "package ")
	}
	return false
}

// Check compiles the snippet and returns the compile error, if any.
func (g *GoCompileChecker) Check(body string) error {
	if hasNonStdImport(body) {
		logging.ValidateDebug("yaegi: skipping snippet with non-stdlib imports")
		return nil
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("yaegi stdlib: %w", err)
	}
	if _, err := i.Compile(body); err != nil {
		return fmt.Errorf("go snippet does not compile: %w", err)
	}
	return nil
}

// hasNonStdImport reports whether the snippet imports a module path (a dot
// in the first path element). Aliased, dot, and blank imports all count.
// An unparseable snippet returns false so the compile step reports the
// actual syntax problem.
func hasNonStdImport(body string) bool {
	f, err := goparser.ParseFile(token.NewFileSet(), "snippet.go", body, goparser.ImportsOnly)
	if err != nil {
		return false
	}
	for _, imp := range f.Imports {
		path := strings.Trim(imp.Path.Value, `"`)
		first := strings.SplitN(path, "/", 2)[0]
		if strings.Contains(first, ".") {
			return true
		}
	}
	return false
}
