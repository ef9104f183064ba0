package validate

import (
	"context"
	"fmt"

	"docforge/internal/document"
)

// XrefCheck resolves every :ref: occurrence against the project anchor table.
// Duplicate anchors are reported by the engine; this check covers the lookup
// side plus unreferenced explicit targets.
type XrefCheck struct{}

func (c *XrefCheck) Name() string { return "xrefs" }

func (c *XrefCheck) Run(_ context.Context, p *document.Project, d *document.Document) []document.Diagnostic {
	var diags []document.Diagnostic

	referenced := make(map[string]bool)
	d.Walk(func(_ *document.Section, n *document.Node) bool {
		for _, ref := range n.Refs {
			referenced[ref.Label] = true
			if _, ok := p.Anchors[ref.Label]; !ok {
				diags = append(diags, document.Diagnostic{
					Severity: document.SeverityError,
					Check:    c.Name(),
					Doc:      d.Path,
					Line:     ref.Line,
					Message:  fmt.Sprintf("unresolved cross-reference %q", ref.Label),
				})
			}
		}
		return true
	})

	// An explicit target nothing points at is usually a leftover.
	for _, a := range d.Anchors {
		if !a.Explicit {
			continue
		}
		if !projectReferences(p, a.Label) {
			diags = append(diags, document.Diagnostic{
				Severity: document.SeverityInfo,
				Check:    c.Name(),
				Doc:      d.Path,
				Line:     a.Line,
				Message:  fmt.Sprintf("explicit target %q is never referenced", a.Label),
			})
		}
	}
	return diags
}

// projectReferences scans the whole project for a :ref: to label.
func projectReferences(p *document.Project, label string) bool {
	for _, d := range p.Documents {
		found := false
		d.Walk(func(_ *document.Section, n *document.Node) bool {
			for _, ref := range n.Refs {
				if ref.Label == label {
					found = true
					return false
				}
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}
