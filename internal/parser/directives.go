package parser

import (
	"regexp"
	"strings"

	"docforge/internal/document"
)

var (
	directiveRe = regexp.MustCompile(`^\.\.\s+([A-Za-z][A-Za-z0-9_-]*)::(?:\s+(.*))?$`)
	optionRe    = regexp.MustCompile(`^:([A-Za-z][A-Za-z0-9_-]*):\s*(.*)$`)
)

// directiveOptions lists the option names each directive accepts. Anything
// else that merely looks like an option stays in the body; a code block may
// legitimately start with a line like ":caption: text" it is documenting.
var directiveOptions = map[string][]string{
	"code-block": {"caption", "name", "linenos", "emphasize-lines"},
	"code":       {"caption", "name", "linenos", "emphasize-lines"},
	"sourcecode": {"caption", "name", "linenos", "emphasize-lines"},
	"image":      {"alt", "width", "height", "scale", "align", "target"},
	"figure":     {"alt", "width", "height", "scale", "align", "target"},
	"note":       {"class", "name"},
	"warning":    {"class", "name"},
	"tip":        {"class", "name"},
	"important":  {"class", "name"},
	"admonition": {"class", "name"},
}

// parseDirective handles a line starting with "..": an explicit directive or,
// failing that, a comment whose indented body is discarded.
func (p *parser) parseDirective() *document.Node {
	raw := strings.TrimRight(p.lines[p.pos], " ")
	startLine := p.line(p.pos)

	m := directiveRe.FindStringSubmatch(raw)
	if m == nil {
		// Comment: swallow the marker line and its indented block.
		p.pos++
		p.collectIndented()
		return nil
	}
	name, arg := strings.ToLower(m[1]), strings.TrimSpace(m[2])
	p.pos++

	body, bodyStart := p.collectIndented()
	opts, rest, skipped := splitOptions(body, directiveOptions[name])
	restStart := bodyStart + skipped

	switch name {
	case "code-block", "code", "sourcecode":
		lang := arg
		if lang == "" {
			lang = "text"
		}
		return &document.Node{
			Kind:     document.KindCodeBlock,
			Line:     startLine,
			Language: lang,
			Caption:  opts["caption"],
			Body:     strings.Join(rest, "\n"),
			BodyLine: restStart,
		}

	case "image", "figure":
		if arg == "" {
			p.diag(document.SeverityError, startLine, "%s directive missing a target path", name)
			return nil
		}
		return &document.Node{
			Kind:   document.KindImage,
			Line:   startLine,
			Target: arg,
			Alt:    opts["alt"],
		}

	case "note", "warning", "tip", "important":
		return &document.Node{
			Kind:       document.KindAdmonition,
			Line:       startLine,
			Admonition: document.AdmonitionKind(name),
			Children:   p.parseNested(rest, restStart-1),
		}

	case "admonition":
		return &document.Node{
			Kind:       document.KindAdmonition,
			Line:       startLine,
			Admonition: document.AdmonitionGeneric,
			Title:      arg,
			Children:   p.parseNested(rest, restStart-1),
		}

	default:
		p.diag(document.SeverityWarning, startLine, "unknown directive %q; body kept as literal text", name)
		if len(rest) == 0 {
			return nil
		}
		return &document.Node{
			Kind: document.KindLiteralBlock,
			Line: restStart,
			Text: strings.Join(rest, "\n"),
		}
	}
}

// splitOptions peels leading ":name: value" option lines (plus the blank line
// separating them from the body) off a directive body. Only names in allowed
// are treated as options. skipped is the number of body lines consumed.
func splitOptions(body []string, allowed []string) (opts map[string]string, rest []string, skipped int) {
	opts = make(map[string]string)
	i := 0
	for i < len(body) {
		m := optionRe.FindStringSubmatch(body[i])
		if m == nil || !optionAllowed(strings.ToLower(m[1]), allowed) {
			break
		}
		opts[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
		i++
	}
	for i < len(body) && isBlank(body[i]) {
		i++
	}
	return opts, body[i:], i
}

func optionAllowed(name string, allowed []string) bool {
	for _, a := range allowed {
		if a == name {
			return true
		}
	}
	return false
}

// parseNested parses an admonition body as a flat node list. Explicit targets
// and diagnostics found inside propagate to the enclosing document.
func (p *parser) parseNested(body []string, offset int) []*document.Node {
	if len(body) == 0 {
		return nil
	}
	sub := &parser{
		lines:  body,
		rel:    p.rel,
		offset: offset,
		doc:    &document.Document{Path: p.rel},
	}
	sub.parseDocument()
	p.diags = append(p.diags, sub.diags...)
	p.doc.Anchors = append(p.doc.Anchors, sub.doc.Anchors...)

	nodes := sub.doc.Preamble
	// Titles inside admonition bodies are out of scope; flatten anything the
	// sub-parse put into sections back into the node list.
	sub.doc.WalkSections(func(s *document.Section) {
		nodes = append(nodes, s.Nodes...)
	})
	return nodes
}
