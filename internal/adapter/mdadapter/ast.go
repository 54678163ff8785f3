package mdadapter

import (
	"github.com/yuin/goldmark/ast"
)

var KindAttachmentDirective = ast.NewNodeKind("AttachmentDirective")

// AttachmentDirective is an inline reference to a bundled recipe file.
type AttachmentDirective struct {
	ast.BaseInline
	Path string
}

func (n *AttachmentDirective) Kind() ast.NodeKind {
	return KindAttachmentDirective
}

func (n *AttachmentDirective) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Path": n.Path,
	}, nil)
}
