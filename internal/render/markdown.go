package render

import (
	"fmt"
	"strings"

	"docforge/internal/document"
)

// ToMarkdown flattens a document into Markdown, the interchange format the
// terminal preview renders. Cross-reference roles degrade to code spans.
func ToMarkdown(d *document.Document) string {
	var b strings.Builder

	var writeNodes func(nodes []*document.Node, quote string)
	writeNodes = func(nodes []*document.Node, quote string) {
		for _, n := range nodes {
			switch n.Kind {
			case document.KindParagraph:
				text := inlineRefRe.ReplaceAllString(n.Text, "`$1`")
				for _, line := range strings.Split(text, "\n") {
					b.WriteString(quote + line + "\n")
				}
				b.WriteString(quote + "\n")

			case document.KindLiteralBlock:
				b.WriteString(quote + "```text\n")
				for _, line := range strings.Split(n.Text, "\n") {
					b.WriteString(quote + line + "\n")
				}
				b.WriteString(quote + "```\n" + quote + "\n")

			case document.KindCodeBlock:
				if n.Caption != "" {
					b.WriteString(quote + "*" + n.Caption + "*\n" + quote + "\n")
				}
				b.WriteString(quote + "```" + n.Language + "\n")
				for _, line := range strings.Split(n.Body, "\n") {
					b.WriteString(quote + line + "\n")
				}
				b.WriteString(quote + "```\n" + quote + "\n")

			case document.KindImage:
				fmt.Fprintf(&b, "%s![%s](%s)\n%s\n", quote, n.Alt, n.Target, quote)

			case document.KindAdmonition:
				title := n.Title
				if title == "" {
					title = capitalize(string(n.Admonition))
				}
				b.WriteString(quote + "> **" + title + "**\n" + quote + ">\n")
				writeNodes(n.Children, quote+"> ")
			}
		}
	}

	var writeSection func(s *document.Section)
	writeSection = func(s *document.Section) {
		b.WriteString(strings.Repeat("#", s.Depth) + " " + s.Title + "\n\n")
		writeNodes(s.Nodes, "")
		for _, sub := range s.Sections {
			writeSection(sub)
		}
	}

	writeNodes(d.Preamble, "")
	for _, s := range d.Sections {
		writeSection(s)
	}
	return b.String()
}
