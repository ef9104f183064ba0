package validate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"docforge/internal/document"
)

// ImageCheck verifies that every image directive points at an existing regular
// file. Targets resolve relative to the document's directory first, then the
// configured static root.
type ImageCheck struct {
	StaticRoot string
}

func (c *ImageCheck) Name() string { return "images" }

func (c *ImageCheck) Run(_ context.Context, p *document.Project, d *document.Document) []document.Diagnostic {
	var diags []document.Diagnostic
	diag := func(sev document.Severity, line int, format string, args ...interface{}) {
		diags = append(diags, document.Diagnostic{
			Severity: sev, Check: c.Name(), Doc: d.Path, Line: line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	d.Walk(func(_ *document.Section, n *document.Node) bool {
		if n.Kind != document.KindImage {
			return true
		}
		if filepath.IsAbs(n.Target) {
			diag(document.SeverityWarning, n.Line, "image target %q is an absolute path; use a project-relative one", n.Target)
		}
		if n.Alt == "" {
			diag(document.SeverityWarning, n.Line, "image %q has no :alt: text", n.Target)
		}

		resolved, ok := c.resolve(p.Root, d.Path, n.Target)
		if !ok {
			diag(document.SeverityError, n.Line, "image %q not found", n.Target)
			return true
		}
		info, err := os.Stat(resolved)
		if err != nil {
			diag(document.SeverityError, n.Line, "image %q not found", n.Target)
			return true
		}
		if info.IsDir() {
			diag(document.SeverityError, n.Line, "image target %q is a directory", n.Target)
		}
		return true
	})
	return diags
}

// resolve tries the document-relative path, then the static root.
func (c *ImageCheck) resolve(root, docPath, target string) (string, bool) {
	if filepath.IsAbs(target) {
		_, err := os.Stat(target)
		return target, err == nil
	}
	candidates := []string{
		filepath.Join(root, filepath.Dir(docPath), filepath.FromSlash(target)),
	}
	if c.StaticRoot != "" {
		candidates = append(candidates, filepath.Join(root, c.StaticRoot, filepath.Base(filepath.FromSlash(target))))
	}
	for _, cand := range candidates {
		if _, err := os.Stat(cand); err == nil {
			return cand, true
		}
	}
	return "", false
}
