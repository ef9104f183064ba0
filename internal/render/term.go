package render

import (
	"github.com/charmbracelet/glamour"

	"docforge/internal/document"
	"docforge/internal/logging"
)

// RenderTerm renders a document for the terminal via glamour.
// Falls back to the raw Markdown if the renderer cannot be built or panics.
func RenderTerm(d *document.Document, width int) (result string, err error) {
	md := ToMarkdown(d)

	defer func() {
		if r := recover(); r != nil {
			// If glamour panics, return plain text
			logging.RenderError("glamour panic: %v", r)
			result = md
			err = nil
		}
	}()

	if width <= 0 {
		width = 100
	}
	renderer, rerr := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if rerr != nil {
		logging.RenderError("glamour renderer: %v", rerr)
		return md, nil
	}
	out, rerr := renderer.Render(md)
	if rerr != nil {
		return md, nil
	}
	return out, nil
}
