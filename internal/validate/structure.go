package validate

import (
	"context"
	"fmt"

	"docforge/internal/document"
)

// StructureCheck flags empty sections and duplicate sibling titles. Depth
// skips are reported by the parser as it reads the adornments; repeated
// sibling titles produce colliding anchors within a page even when the
// project table is clean.
type StructureCheck struct{}

func (c *StructureCheck) Name() string { return "structure" }

func (c *StructureCheck) Run(_ context.Context, _ *document.Project, d *document.Document) []document.Diagnostic {
	var diags []document.Diagnostic
	diag := func(sev document.Severity, line int, format string, args ...interface{}) {
		diags = append(diags, document.Diagnostic{
			Severity: sev, Check: c.Name(), Doc: d.Path, Line: line,
			Message: fmt.Sprintf(format, args...),
		})
	}

	if len(d.Sections) == 0 {
		diag(document.SeverityWarning, 1, "document has no sections")
		return diags
	}

	var checkSiblings func(secs []*document.Section)
	checkSiblings = func(secs []*document.Section) {
		seen := make(map[string]int)
		for _, s := range secs {
			if prev, ok := seen[s.Title]; ok {
				diag(document.SeverityWarning, s.Line,
					"duplicate sibling section title %q (also at line %d)", s.Title, prev)
			} else {
				seen[s.Title] = s.Line
			}
			if len(s.Nodes) == 0 && len(s.Sections) == 0 {
				diag(document.SeverityWarning, s.Line, "section %q is empty", s.Title)
			}
			checkSiblings(s.Sections)
		}
	}
	checkSiblings(d.Sections)
	return diags
}
