package tpladapter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"recipevault/internal/entity"
)

func testRecord() *entity.RecipeRecord {
	return &entity.RecipeRecord{
		ID:            "batch-csv-upload",
		Title:         "Batch CSV Upload",
		Category:      "Batch",
		Versions:      []string{"24.1"},
		Prerequisites: []string{"Admin access"},
		Walkthrough: []entity.WalkthroughStep{
			{
				Step:        "Create the batch",
				Description: "<p>Open the <strong>designer</strong>.</p>",
				Config: []entity.StepConfig{
					{Field: "Source", Value: "upload.csv"},
				},
				Media: []entity.StepMedia{
					{Type: entity.MediaTypeImage, URL: "images/img_1_aa_designer.png", Alt: "Designer"},
					{Type: entity.MediaTypeLink, URL: "https://example.com/docs", Alt: "Docs"},
				},
			},
			{Step: "Run it", Config: []entity.StepConfig{}, Media: []entity.StepMedia{}},
		},
		DownloadExecutables: []entity.ExecutableDescriptor{
			{FilePath: "downloadExecutables/executable.json"},
		},
		RelatedRecipes: []string{"trigger-on-upload"},
		Keywords:       []string{"csv"},
	}
}

func TestParse(t *testing.T) {
	a, err := NewTplAdapter("", "http://localhost:8080")
	require.NoError(t, err)

	page, err := a.Parse(testRecord(), 7)
	require.NoError(t, err)

	require.Contains(t, page, "Batch CSV Upload")
	require.Contains(t, page, "Create the batch")
	require.Contains(t, page, "<strong>designer</strong>")
	require.Contains(t, page, "upload.csv")
	require.Contains(t, page, ">7</span> views")
	require.Contains(t, page, "http://localhost:8080/share/trigger-on-upload")
}

func TestParseRewritesAttachmentURLs(t *testing.T) {
	a, err := NewTplAdapter("", "http://localhost:8080")
	require.NoError(t, err)

	page, err := a.Parse(testRecord(), 0)
	require.NoError(t, err)

	require.Contains(t, page, `src="/media/batch-csv-upload/images/img_1_aa_designer.png"`)
	require.Contains(t, page, `href="/media/batch-csv-upload/downloadExecutables/executable.json"`)
	require.Contains(t, page, `href="https://example.com/docs"`)
	require.NotContains(t, page, `src="images/`)
}

func TestParseCustomTemplateFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(f, []byte(`<h1>{{.Title}} ({{.Views}})</h1>`), 0o644))

	a, err := NewTplAdapter(f, "http://localhost:8080")
	require.NoError(t, err)

	page, err := a.Parse(testRecord(), 3)
	require.NoError(t, err)
	require.Equal(t, "<h1>Batch CSV Upload (3)</h1>", page)
}

func TestParseMissingTemplateFile(t *testing.T) {
	_, err := NewTplAdapter("no-such-template.html", "http://localhost:8080")
	require.Error(t, err)
}
