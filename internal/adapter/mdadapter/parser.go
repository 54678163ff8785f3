package mdadapter

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var directiveRegexp = regexp.MustCompile(`^\{\{(?:\s+)?attachment:\s?([^\s]+)\s?\}\}`)

type attachmentDirectiveParser struct{}

func NewAttachmentDirectiveParser() parser.InlineParser {
	return &attachmentDirectiveParser{}
}

func (s *attachmentDirectiveParser) Trigger() []byte {
	return []byte{'{', '{'}
}

func (s *attachmentDirectiveParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()

	matches := directiveRegexp.FindSubmatch(line)
	if matches == nil {
		return nil
	}

	block.Advance(len(matches[0]))

	return &AttachmentDirective{
		Path: string(matches[1]),
	}
}
