package tui

import (
	"strings"

	glam "github.com/charmbracelet/glamour"
)

// RenderMarkdown renders md for the terminal, wrapping at width. The fixed
// dark style avoids OSC background queries. Rendering failures fall back to
// the raw markdown.
func RenderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 80
	}
	r, err := glam.NewTermRenderer(
		glam.WithStylePath("dark"),
		glam.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}
