// Package parser reads structured tutorial sources (a reStructuredText-style
// subset: underlined section titles, directives, explicit targets, literal
// blocks, :ref: roles) into the document AST.
//
// Parsing is forgiving: recoverable problems become diagnostics and the parse
// continues. Only I/O failures return an error.
package parser

import (
	"fmt"
	"os"
	"strings"

	"docforge/internal/document"
	"docforge/internal/logging"
)

// ParseFile reads and parses one source file. rel is the project-relative path
// recorded in the document and its diagnostics.
func ParseFile(path, rel string) (*document.Document, []document.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read source %s: %w", path, err)
	}
	doc, diags := Parse(data, rel)
	return doc, diags, nil
}

// Parse parses source text. It always returns a document; diagnostics report
// anything suspicious encountered on the way.
func Parse(src []byte, rel string) (*document.Document, []document.Diagnostic) {
	p := &parser{
		lines: splitLines(src),
		rel:   rel,
		doc:   &document.Document{Path: rel},
	}
	p.parseDocument()
	logging.ParseDebug("%s: %d sections, %d anchors, %d diagnostics",
		rel, len(p.doc.Sections), len(p.doc.Anchors), len(p.diags))
	return p.doc, p.diags
}

type parser struct {
	lines  []string
	pos    int
	rel    string
	offset int // added to 1-based positions when parsing nested bodies
	doc    *document.Document

	// adornment character -> section depth, in order of first appearance
	styles map[byte]int
	// open sections by depth; stack[0] is the current depth-1 section
	stack []*document.Section

	// explicit targets waiting for the construct they label
	pending []document.Anchor

	diags []document.Diagnostic
}

func (p *parser) line(i int) int { return p.offset + i + 1 }

func (p *parser) diag(sev document.Severity, line int, format string, args ...interface{}) {
	p.diags = append(p.diags, document.Diagnostic{
		Severity: sev,
		Check:    "parse",
		Doc:      p.rel,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (p *parser) parseDocument() {
	p.styles = make(map[byte]int)
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]

		if isBlank(line) {
			p.pos++
			continue
		}

		// Explicit hyperlink target: .. _label:
		if label, ok := matchTarget(line); ok {
			p.pending = append(p.pending, document.Anchor{
				Label:    label,
				Doc:      p.rel,
				Line:     p.line(p.pos),
				Explicit: true,
			})
			p.pos++
			continue
		}

		// Directive or comment.
		if strings.HasPrefix(line, "..") {
			if n := p.parseDirective(); n != nil {
				p.appendNode(n)
			}
			continue
		}

		// A bare "::" introduces the following indented literal block.
		if strings.TrimSpace(line) == "::" {
			p.parseParagraph()
			continue
		}

		// Transition: a lone adornment run surrounded by blank lines.
		if _, ok := adornmentChar(line); ok && p.nextIsBlankOrEOF(p.pos+1) && indentOf(line) == 0 {
			p.pos++
			continue
		}

		// Section title: unindented line followed by an adornment underline.
		if indentOf(line) == 0 && p.pos+1 < len(p.lines) {
			if ch, ok := adornmentChar(p.lines[p.pos+1]); ok {
				p.openSection(strings.TrimSpace(line), ch)
				continue
			}
		}

		p.parseParagraph()
	}
	p.flushPending()
}

// openSection consumes a title line plus its underline and pushes the section
// onto the stack at the depth its adornment style maps to.
func (p *parser) openSection(title string, style byte) {
	titleLine := p.line(p.pos)
	underline := strings.TrimRight(p.lines[p.pos+1], " ")
	if len(underline) < len(strings.TrimRight(p.lines[p.pos], " ")) {
		p.diag(document.SeverityWarning, titleLine+1, "title underline too short for %q", title)
	}
	p.pos += 2

	depth, known := p.styles[style]
	if !known {
		depth = len(p.styles) + 1
		p.styles[style] = depth
	}
	if depth > len(p.stack)+1 {
		p.diag(document.SeverityError, titleLine, "section %q skips from depth %d to %d", title, len(p.stack), depth)
		depth = len(p.stack) + 1
	}

	sec := &document.Section{
		Title:  title,
		Anchor: document.Slug(title),
		Depth:  depth,
		Line:   titleLine,
	}
	p.stack = p.stack[:depth-1]
	if depth == 1 {
		p.doc.Sections = append(p.doc.Sections, sec)
		if p.doc.Title == "" {
			p.doc.Title = title
		}
	} else {
		parent := p.stack[depth-2]
		parent.Sections = append(parent.Sections, sec)
	}
	p.stack = append(p.stack, sec)

	// Explicit targets directly above a title label this section. A target
	// whose label equals the slug collapses into the section anchor; any
	// other label becomes an alias for the same section.
	anchor := document.Anchor{Label: sec.Anchor, Doc: p.rel, Title: title, Line: titleLine}
	for _, pa := range p.pending {
		if pa.Label == sec.Anchor {
			anchor.Explicit = true
			anchor.Line = pa.Line
			continue
		}
		pa.Title = title
		sec.Aliases = append(sec.Aliases, pa.Label)
		p.doc.Anchors = append(p.doc.Anchors, pa)
	}
	p.pending = p.pending[:0]
	p.doc.Anchors = append(p.doc.Anchors, anchor)
}

func (p *parser) flushPending() {
	p.doc.Anchors = append(p.doc.Anchors, p.pending...)
	p.pending = p.pending[:0]
}

// appendNode attaches a node to the innermost open section, or to the
// document preamble when no section has been seen yet. Pending explicit
// targets stick to the node so rendering can give them an id.
func (p *parser) appendNode(n *document.Node) {
	for _, pa := range p.pending {
		n.Labels = append(n.Labels, pa.Label)
	}
	p.flushPending()
	if len(p.stack) == 0 {
		p.doc.Preamble = append(p.doc.Preamble, n)
		return
	}
	cur := p.stack[len(p.stack)-1]
	cur.Nodes = append(cur.Nodes, n)
}

// parseParagraph consumes a run of non-blank lines. A paragraph ending in "::"
// introduces a literal block made of the following indented lines.
func (p *parser) parseParagraph() {
	start := p.pos
	var buf []string
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlank(line) {
			break
		}
		// Stop before a line that underlines the next title.
		if p.pos > start && indentOf(line) == 0 && p.pos+1 < len(p.lines) {
			if _, ok := adornmentChar(p.lines[p.pos+1]); ok {
				break
			}
		}
		buf = append(buf, strings.TrimRight(line, " "))
		p.pos++
	}

	text := strings.TrimSpace(strings.Join(buf, "\n"))
	literalFollows := false
	switch {
	case text == "::":
		text = ""
		literalFollows = true
	case strings.HasSuffix(text, " ::"):
		text = strings.TrimSuffix(text, " ::")
		literalFollows = true
	case strings.HasSuffix(text, "::"):
		text = strings.TrimSuffix(text, "::") + ":"
		literalFollows = true
	}

	if text != "" {
		n := &document.Node{
			Kind: document.KindParagraph,
			Line: p.line(start),
			Text: text,
		}
		n.Refs = extractRefs(buf, p.line(start))
		p.appendNode(n)
	}

	if literalFollows {
		body, bodyStart := p.collectIndented()
		if len(body) == 0 {
			p.diag(document.SeverityWarning, p.line(start), "literal block marker with no indented content")
			return
		}
		p.appendNode(&document.Node{
			Kind: document.KindLiteralBlock,
			Line: bodyStart,
			Text: strings.Join(body, "\n"),
		})
	}
}

// collectIndented consumes the next indented block (after optional blank
// lines), returning its dedented lines and the 1-based line of its first line.
// Interior blank lines are preserved.
func (p *parser) collectIndented() ([]string, int) {
	for p.pos < len(p.lines) && isBlank(p.lines[p.pos]) {
		p.pos++
	}
	if p.pos >= len(p.lines) || indentOf(p.lines[p.pos]) == 0 {
		return nil, 0
	}
	startLine := p.line(p.pos)
	indent := indentOf(p.lines[p.pos])

	var body []string
	blanks := 0
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		if isBlank(line) {
			blanks++
			p.pos++
			continue
		}
		if indentOf(line) < indent {
			break
		}
		for ; blanks > 0; blanks-- {
			body = append(body, "")
		}
		body = append(body, strings.TrimRight(line[indent:], " "))
		p.pos++
	}
	return body, startLine
}

func (p *parser) nextIsBlankOrEOF(i int) bool {
	return i >= len(p.lines) || isBlank(p.lines[i])
}

// splitLines normalizes line endings and expands tabs to 8 spaces so that
// indentation comparisons are uniform.
func splitLines(src []byte) []string {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "        ")
	return strings.Split(text, "\n")
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func indentOf(s string) int {
	return len(s) - len(strings.TrimLeft(s, " "))
}

// adornmentChar reports whether s is a run of a single section adornment
// character, at least two long.
func adornmentChar(s string) (byte, bool) {
	s = strings.TrimRight(s, " ")
	if len(s) < 2 {
		return 0, false
	}
	ch := s[0]
	if !strings.ContainsRune(`=-~^"'*+#:.`+"`", rune(ch)) {
		return 0, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != ch {
			return 0, false
		}
	}
	return ch, true
}

// matchTarget recognizes explicit targets of the form ".. _label:".
func matchTarget(line string) (string, bool) {
	s := strings.TrimRight(line, " ")
	if !strings.HasPrefix(s, ".. _") || !strings.HasSuffix(s, ":") {
		return "", false
	}
	label := strings.TrimSuffix(strings.TrimPrefix(s, ".. _"), ":")
	label = strings.TrimSpace(label)
	if label == "" || strings.Contains(label, " ") {
		return "", false
	}
	return label, true
}
