package mdadapter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

func newTestMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			NewAttachmentExtension(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
}

func TestAttachmentDirective(t *testing.T) {
	md := newTestMarkdown()

	buf := bytes.Buffer{}
	require.NoError(t, md.Convert([]byte("Run {{attachment: downloadExecutables/executable.json}} first."), &buf))

	require.Contains(t, buf.String(), `<a class="attachment" href="downloadExecutables/executable.json">executable.json</a>`)
}

func TestAttachmentDirectiveSpacing(t *testing.T) {
	md := newTestMarkdown()

	buf := bytes.Buffer{}
	require.NoError(t, md.Convert([]byte("{{ attachment: images/img_1_aa_shot.png }}"), &buf))

	require.Contains(t, buf.String(), `href="images/img_1_aa_shot.png"`)
}

func TestPlainBracesPassThrough(t *testing.T) {
	md := newTestMarkdown()

	buf := bytes.Buffer{}
	require.NoError(t, md.Convert([]byte("{{not a directive}}"), &buf))

	require.NotContains(t, buf.String(), "<a")
	require.Contains(t, buf.String(), "{{not a directive}}")
}
