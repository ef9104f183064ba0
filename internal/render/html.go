// Package render turns parsed documents into HTML pages (with chroma syntax
// highlighting), a site index, and terminal previews via glamour.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"path"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"docforge/internal/config"
	"docforge/internal/document"
	"docforge/internal/logging"
)

// Renderer produces the HTML site for a project. Not safe for concurrent
// use: cross-reference resolution tracks the document being rendered.
type Renderer struct {
	cfg  *config.Config
	tmpl *template.Template

	currentAnchors map[string]document.Anchor
	currentDoc     string
}

// New builds a renderer from the embedded page templates.
func New(cfg *config.Config) (*Renderer, error) {
	r := &Renderer{cfg: cfg}
	tmpl := template.New("site").Funcs(template.FuncMap{
		"node": r.nodeHTML,
		"heading": func(depth int, title string) template.HTML {
			if depth < 1 {
				depth = 1
			}
			if depth > 6 {
				depth = 6
			}
			return template.HTML(fmt.Sprintf("<h%d>%s</h%d>", depth, template.HTMLEscapeString(title), depth))
		},
	})
	var err error
	if tmpl, err = tmpl.Parse(pageTemplate); err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	if tmpl, err = tmpl.Parse(indexTemplate); err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// PagePath maps a source path to its output page path.
func PagePath(docPath string) string {
	p := path.Clean(strings.ReplaceAll(docPath, "\\", "/"))
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + ".html"
}

// RenderProject renders every document plus the index page. Keys of the
// returned map are output-relative paths.
func (r *Renderer) RenderProject(p *document.Project) (map[string][]byte, error) {
	timer := logging.StartTimer(logging.CategoryRender, "RenderProject")
	defer timer.Stop()

	pages := make(map[string][]byte, len(p.Documents)+1)
	for _, d := range p.Documents {
		out, err := r.renderDoc(p, d)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", d.Path, err)
		}
		pages[PagePath(d.Path)] = out
	}

	idx, err := r.renderIndex(p)
	if err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	pages["index.html"] = idx
	logging.Render("rendered %d pages", len(pages))
	return pages, nil
}

type pageData struct {
	SiteTitle string
	Title     string
	// Home is the href back to the site index, adjusted for page depth.
	Home string
	Doc  *document.Document
}

func (r *Renderer) renderDoc(p *document.Project, d *document.Document) ([]byte, error) {
	title := d.Title
	if title == "" {
		title = d.Path
	}
	data := &pageData{
		SiteTitle: r.cfg.Output.SiteTitle,
		Title:     title,
		Home:      homeHref(d.Path),
		Doc:       d,
	}
	r.currentAnchors = p.Anchors
	r.currentDoc = d.Path
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type indexData struct {
	SiteTitle string
	Documents []*document.Document
	PagePath  func(string) string
}

func (r *Renderer) renderIndex(p *document.Project) ([]byte, error) {
	var buf bytes.Buffer
	err := r.tmpl.ExecuteTemplate(&buf, "index", indexData{
		SiteTitle: r.cfg.Output.SiteTitle,
		Documents: p.Documents,
		PagePath:  PagePath,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// nodeHTML renders one block node, preceded by an empty span per explicit
// target label attached to it so those labels are addressable.
func (r *Renderer) nodeHTML(n *document.Node) template.HTML {
	body := r.blockHTML(n)
	if len(n.Labels) == 0 {
		return body
	}
	var b strings.Builder
	for _, label := range n.Labels {
		fmt.Fprintf(&b, `<span id=%q></span>`, label)
	}
	return template.HTML(b.String()) + body
}

// blockHTML dispatches on the node kind. Dispatching in Go keeps the
// templates declarative while code blocks go through chroma.
func (r *Renderer) blockHTML(n *document.Node) template.HTML {
	switch n.Kind {
	case document.KindParagraph:
		return "<p>" + r.inlineHTML(n.Text) + "</p>"

	case document.KindLiteralBlock:
		return template.HTML("<pre class=\"literal\">" + template.HTMLEscapeString(n.Text) + "</pre>")

	case document.KindCodeBlock:
		var buf bytes.Buffer
		if n.Caption != "" {
			buf.WriteString("<figcaption>" + template.HTMLEscapeString(n.Caption) + "</figcaption>")
		}
		if err := r.highlight(&buf, n.Language, n.Body); err != nil {
			logging.RenderError("highlight %s block: %v", n.Language, err)
			buf.WriteString("<pre>" + template.HTMLEscapeString(n.Body) + "</pre>")
		}
		return template.HTML("<figure class=\"code\">" + buf.String() + "</figure>")

	case document.KindImage:
		return template.HTML(fmt.Sprintf(`<img src=%q alt=%q>`,
			strings.ReplaceAll(n.Target, "\\", "/"), n.Alt))

	case document.KindAdmonition:
		title := n.Title
		if title == "" {
			title = capitalize(string(n.Admonition))
		}
		var buf bytes.Buffer
		fmt.Fprintf(&buf, `<div class="admonition %s"><p class="admonition-title">%s</p>`,
			n.Admonition, template.HTMLEscapeString(title))
		for _, child := range n.Children {
			buf.WriteString(string(r.nodeHTML(child)))
		}
		buf.WriteString("</div>")
		return template.HTML(buf.String())
	}
	return ""
}

var (
	inlineRefRe     = regexp.MustCompile(":ref:`([^`]+)`")
	inlineLiteralRe = regexp.MustCompile("``([^`]+)``")
)

// inlineHTML escapes paragraph text and expands the inline markup docforge
// understands: :ref: roles become links, double-backtick spans become <code>.
func (r *Renderer) inlineHTML(text string) template.HTML {
	escaped := template.HTMLEscapeString(text)
	escaped = inlineRefRe.ReplaceAllStringFunc(escaped, func(m string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(m, ":ref:`"), "`")
		label, display := inner, inner
		if t := refDisplayRe.FindStringSubmatch(inner); t != nil {
			display = strings.TrimSpace(t[1])
			label = strings.TrimSpace(t[2])
		}
		return r.refLink(label, display)
	})
	escaped = inlineLiteralRe.ReplaceAllString(escaped, "<code>$1</code>")
	return template.HTML(escaped)
}

var refDisplayRe = regexp.MustCompile(`^(.*?)\s*&lt;([^&]+)&gt;$`)

// refLink resolves a label against the project anchor table. Unresolved
// labels render as plain code spans; validation reports them separately.
func (r *Renderer) refLink(label, display string) string {
	a, ok := r.currentAnchors[label]
	if !ok {
		return "<code>" + label + "</code>"
	}
	if display == label && a.Title != "" {
		display = template.HTMLEscapeString(a.Title)
	}
	href := "#" + label
	if a.Doc != r.currentDoc {
		href = relHref(r.currentDoc, a.Doc) + "#" + label
	}
	return fmt.Sprintf(`<a href=%q>%s</a>`, href, display)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// homeHref is the link from a page back to index.html at the site root.
func homeHref(docPath string) string {
	dir := path.Dir(strings.ReplaceAll(docPath, "\\", "/"))
	if dir == "." {
		return "index.html"
	}
	return strings.Repeat("../", strings.Count(dir, "/")+1) + "index.html"
}

// relHref computes the href from one document's page to another's.
func relHref(fromDoc, toDoc string) string {
	from := path.Dir(strings.ReplaceAll(fromDoc, "\\", "/"))
	target := PagePath(toDoc)
	if from == "." {
		return target
	}
	up := strings.Count(from, "/") + 1
	return strings.Repeat("../", up) + target
}

// highlight writes the chroma-highlighted snippet as HTML.
func (r *Renderer) highlight(buf *bytes.Buffer, lang, code string) error {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(r.cfg.Output.HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	formatter := chromahtml.New(
		chromahtml.WithLineNumbers(r.cfg.Output.LineNumbers),
	)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return err
	}
	return formatter.Format(buf, style, iterator)
}
