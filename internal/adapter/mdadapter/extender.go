package mdadapter

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type AttachmentExtension struct{}

func NewAttachmentExtension() goldmark.Extender {
	return &AttachmentExtension{}
}

func (e *AttachmentExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewAttachmentDirectiveParser(), 500),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(NewAttachmentDirectiveRenderer(), 500),
		),
	)
}
