package editors

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// PreviewOptions tunes rich text rendering.
type PreviewOptions struct {
	HardWraps bool
	// AllowHTML passes raw HTML in the source through to the output.
	AllowHTML bool
}

// Previewer renders rich text content into HTML for the editing surface.
// It is stateless and safe for concurrent use.
type Previewer struct {
	engine goldmark.Markdown
}

// NewPreviewer builds a goldmark engine with GFM, linkify and task lists.
func NewPreviewer(opts PreviewOptions) *Previewer {
	rendererOptions := []renderer.Option{}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if opts.AllowHTML {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	return &Previewer{engine: goldmark.New(engineOptions...)}
}

// Preview renders markdown into HTML.
func (p *Previewer) Preview(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := p.engine.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("editors: preview: %w", err)
	}
	return buf.String(), nil
}

// PreviewState renders the rich text content of the active locale. Content
// whose metadata declares html format is returned unchanged.
func (p *Previewer) PreviewState(state State) (string, error) {
	content := state.Content(state.ActiveLocale)
	if format, _ := state.Metadata["format"].(string); format == "html" {
		return content, nil
	}
	return p.Preview(content)
}
