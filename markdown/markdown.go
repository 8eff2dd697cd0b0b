// Package markdown renders CommonMark to HTML with goldmark. Raw HTML in the
// source is passed through unchanged.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer implements fragments.MarkdownRenderer.
type Renderer struct {
	md goldmark.Markdown
}

// Options configures a Renderer.
type Options struct {
	// GFM enables GitHub Flavored Markdown tables, strikethrough, autolinks
	// and task lists on top of CommonMark.
	GFM bool
}

func New(opts Options) *Renderer {
	var extensions []goldmark.Extender
	if opts.GFM {
		extensions = append(extensions, extension.GFM)
	}

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extensions...),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Render converts markdown source to an HTML fragment.
func (r *Renderer) Render(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
