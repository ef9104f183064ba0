package render

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"

	"docforge/internal/document"
	"docforge/internal/logging"
)

// AuditLinks parses the rendered pages and confirms every intra-site href
// points at an existing page and, when it carries a fragment, an existing id.
func AuditLinks(pages map[string][]byte) []document.Diagnostic {
	timer := logging.StartTimer(logging.CategoryRender, "AuditLinks")
	defer timer.Stop()

	ids := make(map[string]map[string]bool, len(pages))
	hrefs := make(map[string][]string)

	for page, content := range pages {
		root, err := html.Parse(bytes.NewReader(content))
		if err != nil {
			return []document.Diagnostic{{
				Severity: document.SeverityError,
				Check:    "linkaudit",
				Doc:      page,
				Message:  fmt.Sprintf("rendered page does not parse as HTML: %v", err),
			}}
		}
		ids[page] = map[string]bool{}
		var walk func(n *html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.ElementNode {
				for _, a := range n.Attr {
					switch a.Key {
					case "id":
						ids[page][a.Val] = true
					case "href":
						hrefs[page] = append(hrefs[page], a.Val)
					}
				}
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c)
			}
		}
		walk(root)
	}

	var diags []document.Diagnostic
	for page, links := range hrefs {
		for _, href := range links {
			if strings.Contains(href, "://") || strings.HasPrefix(href, "mailto:") {
				continue
			}
			target, frag := splitFragment(href)
			targetPage := page
			if target != "" {
				targetPage = path.Join(path.Dir(page), target)
				if _, ok := pages[targetPage]; !ok {
					diags = append(diags, document.Diagnostic{
						Severity: document.SeverityError,
						Check:    "linkaudit",
						Doc:      page,
						Message:  fmt.Sprintf("href %q points at missing page %q", href, targetPage),
					})
					continue
				}
			}
			if frag != "" && !ids[targetPage][frag] {
				diags = append(diags, document.Diagnostic{
					Severity: document.SeverityError,
					Check:    "linkaudit",
					Doc:      page,
					Message:  fmt.Sprintf("href %q points at missing fragment #%s in %q", href, frag, targetPage),
				})
			}
		}
	}
	return diags
}

func splitFragment(href string) (target, frag string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}
