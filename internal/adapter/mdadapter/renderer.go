package mdadapter

import (
	"fmt"
	"path"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

type attachmentDirectiveRenderer struct{}

func NewAttachmentDirectiveRenderer() renderer.NodeRenderer {
	return &attachmentDirectiveRenderer{}
}

func (r *attachmentDirectiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindAttachmentDirective, r.renderAttachmentDirective)
}

func (r *attachmentDirectiveRenderer) renderAttachmentDirective(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	directive := n.(*AttachmentDirective)

	w.WriteString(fmt.Sprintf(`<a class="attachment" href="%s">%s</a>`, directive.Path, path.Base(directive.Path)))

	return ast.WalkContinue, nil
}
