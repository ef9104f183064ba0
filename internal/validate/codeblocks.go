package validate

import (
	"context"
	"fmt"

	"github.com/alecthomas/chroma/v2/lexers"

	"docforge/internal/config"
	"docforge/internal/document"
)

// CodeBlockCheck verifies that every code block is well-formed in its stated
// language. Languages with a tree-sitter grammar get a real parse; full Go
// files additionally go through a yaegi compile. Anything else falls back to
// a chroma lexer lookup: an unknown language name is itself suspicious.
type CodeBlockCheck struct {
	cfg     *config.Config
	sitter  *TreeSitterChecker
	goCheck *GoCompileChecker
}

func NewCodeBlockCheck(cfg *config.Config) *CodeBlockCheck {
	return &CodeBlockCheck{
		cfg:     cfg,
		sitter:  NewTreeSitterChecker(),
		goCheck: NewGoCompileChecker(),
	}
}

func (c *CodeBlockCheck) Name() string { return "codeblocks" }

func (c *CodeBlockCheck) Run(ctx context.Context, _ *document.Project, d *document.Document) []document.Diagnostic {
	var diags []document.Diagnostic
	diag := func(sev document.Severity, line int, format string, args ...interface{}) {
		diags = append(diags, document.Diagnostic{
			Severity: sev, Check: c.Name(), Doc: d.Path, Line: line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	d.Walk(func(_ *document.Section, n *document.Node) bool {
		if n.Kind != document.KindCodeBlock {
			return true
		}
		if c.cfg.IsExemptLanguage(n.Language) {
			return true
		}
		if n.Body == "" {
			diag(document.SeverityWarning, n.Line, "empty %s code block", n.Language)
			return true
		}

		if c.sitter.Supports(n.Language) {
			if err := c.sitter.Check(ctx, n.Language, []byte(n.Body)); err != nil {
				line := n.BodyLine
				if se, ok := err.(*SyntaxError); ok {
					line = n.BodyLine + se.Line
				}
				diag(document.SeverityError, line, "malformed %s code block: %v", n.Language, err)
				return true
			}
			if normalizeLang(n.Language) == "go" && c.goCheck.Applicable(n.Body) {
				if err := c.goCheck.Check(n.Body); err != nil {
					diag(document.SeverityError, n.BodyLine, "%v", err)
				}
			}
			return true
		}

		// No grammar: at least the language must be one a highlighter knows.
		if lexers.Get(n.Language) == nil {
			diag(document.SeverityWarning, n.Line, "unknown code block language %q", n.Language)
		}
		return true
	})
	return diags
}
