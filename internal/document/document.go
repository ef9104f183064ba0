// Package document defines the parsed representation of a docforge project:
// documents, sections, and the block-level nodes that appear inside them.
// The parser produces these types; validation, rendering, and indexing consume them.
package document

import (
	"strings"
	"unicode"
)

// NodeKind identifies a block-level node inside a section.
type NodeKind string

const (
	KindParagraph    NodeKind = "paragraph"
	KindCodeBlock    NodeKind = "code_block"
	KindLiteralBlock NodeKind = "literal_block"
	KindImage        NodeKind = "image"
	KindAdmonition   NodeKind = "admonition"
)

// AdmonitionKind is the flavor of an admonition directive.
type AdmonitionKind string

const (
	AdmonitionNote      AdmonitionKind = "note"
	AdmonitionWarning   AdmonitionKind = "warning"
	AdmonitionTip       AdmonitionKind = "tip"
	AdmonitionImportant AdmonitionKind = "important"
	AdmonitionGeneric   AdmonitionKind = "admonition"
)

// CrossRef is a :ref:`...` occurrence. Label is the target anchor; Text is the
// optional display text (empty means "use the target's title").
type CrossRef struct {
	Label string
	Text  string
	Line  int
}

// Node is a block-level element. Exactly the fields relevant to its Kind are set.
type Node struct {
	Kind NodeKind
	Line int // 1-based line in the source file

	// Paragraph / LiteralBlock
	Text string

	// CodeBlock
	Language string
	Caption  string
	Body     string
	// BodyLine is the source line the code body starts on, for diagnostics
	// that point into the snippet.
	BodyLine int

	// Image
	Target string
	Alt    string

	// Admonition
	Admonition AdmonitionKind
	Title      string
	Children   []*Node

	// Cross-references appearing in this node's text.
	Refs []CrossRef

	// Labels are explicit `.. _label:` targets attached directly above
	// this node; rendering gives each one an id at the node's position.
	Labels []string
}

// Section is a titled region of a document. Depth is 1-based; children nest
// exactly one level deeper than their parent.
type Section struct {
	Title  string
	Anchor string
	Depth  int
	Line   int
	// Aliases are explicit target labels attached above the title whose
	// label differs from the slug; they address this section too.
	Aliases  []string
	Nodes    []*Node
	Sections []*Section
}

// Anchor is a link target: either a section slug or an explicit `.. _label:` target.
type Anchor struct {
	Label    string
	Doc      string // source path of the owning document
	Title    string // section title, empty for bare targets
	Line     int
	Explicit bool
}

// Document is one parsed source file.
type Document struct {
	Path     string  // source path, relative to project root
	Title    string  // title of the first depth-1 section, or ""
	Preamble []*Node // nodes appearing before the first section title
	Sections []*Section
	Anchors  []Anchor
}

// Project is a set of documents plus the merged anchor table keyed by label.
// BuildAnchorTable reports duplicates; the table keeps the first definition.
type Project struct {
	Root      string
	Documents []*Document
	Anchors   map[string]Anchor
}

// Duplicate records a second definition of an already-known anchor label.
type Duplicate struct {
	Anchor Anchor // the later definition
	First  Anchor // the definition that won
}

// BuildAnchorTable merges every document's anchors into p.Anchors and returns
// the duplicates encountered, in document order.
func (p *Project) BuildAnchorTable() []Duplicate {
	p.Anchors = make(map[string]Anchor)
	var dups []Duplicate
	for _, d := range p.Documents {
		for _, a := range d.Anchors {
			if first, ok := p.Anchors[a.Label]; ok {
				dups = append(dups, Duplicate{Anchor: a, First: first})
				continue
			}
			p.Anchors[a.Label] = a
		}
	}
	return dups
}

// Walk visits every node of the document in source order, descending into
// sections and admonition bodies. Returning false from fn stops the walk.
func (d *Document) Walk(fn func(s *Section, n *Node) bool) {
	var walkNodes func(s *Section, nodes []*Node) bool
	walkNodes = func(s *Section, nodes []*Node) bool {
		for _, n := range nodes {
			if !fn(s, n) {
				return false
			}
			if len(n.Children) > 0 {
				if !walkNodes(s, n.Children) {
					return false
				}
			}
		}
		return true
	}
	var walkSection func(s *Section) bool
	walkSection = func(s *Section) bool {
		if !walkNodes(s, s.Nodes) {
			return false
		}
		for _, sub := range s.Sections {
			if !walkSection(sub) {
				return false
			}
		}
		return true
	}
	if !walkNodes(nil, d.Preamble) {
		return
	}
	for _, s := range d.Sections {
		if !walkSection(s) {
			return
		}
	}
}

// WalkSections visits every section in source order.
func (d *Document) WalkSections(fn func(s *Section)) {
	var walk func(s *Section)
	walk = func(s *Section) {
		fn(s)
		for _, sub := range s.Sections {
			walk(sub)
		}
	}
	for _, s := range d.Sections {
		walk(s)
	}
}

// Slug normalizes a section title into an anchor label: lower-cased, runs of
// non-alphanumerics collapsed to single hyphens, trimmed.
func Slug(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// PlainText flattens a section's paragraphs and literal text for indexing.
// Code bodies are included so searches can hit snippet contents.
func (s *Section) PlainText() string {
	var parts []string
	var collect func(nodes []*Node)
	collect = func(nodes []*Node) {
		for _, n := range nodes {
			switch n.Kind {
			case KindParagraph, KindLiteralBlock:
				parts = append(parts, n.Text)
			case KindCodeBlock:
				parts = append(parts, n.Body)
			case KindAdmonition:
				collect(n.Children)
			}
		}
	}
	collect(s.Nodes)
	return strings.Join(parts, "\n")
}
