package parser

import (
	"regexp"
	"strings"

	"docforge/internal/document"
)

var (
	refRe       = regexp.MustCompile(":ref:`([^`]+)`")
	refTargetRe = regexp.MustCompile(`^(.*?)\s*<([^>]+)>$`)
)

// extractRefs finds :ref:`label` and :ref:`text <label>` roles in a run of
// paragraph lines. firstLine is the 1-based source line of lines[0].
func extractRefs(lines []string, firstLine int) []document.CrossRef {
	var refs []document.CrossRef
	for i, line := range lines {
		for _, m := range refRe.FindAllStringSubmatch(line, -1) {
			inner := strings.TrimSpace(m[1])
			ref := document.CrossRef{Label: inner, Line: firstLine + i}
			if tm := refTargetRe.FindStringSubmatch(inner); tm != nil {
				ref.Text = strings.TrimSpace(tm[1])
				ref.Label = strings.TrimSpace(tm[2])
			}
			refs = append(refs, ref)
		}
	}
	return refs
}
