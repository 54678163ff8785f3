package tpladapter

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"

	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	templateNameMedia = "MEDIA"

	funcNameMedia = "media"
	funcNameDesc  = "desc"
	funcNameInc   = "inc"
)

// PageContext is the data a share page template is executed with.
type PageContext struct {
	URL   string
	Views int64
	*entity.RecipeRecord
}

type mediaContext struct {
	Type string
	Src  string
	Alt  string
}

// tplAdapter renders recipe share pages. The built-in template can be
// replaced by a template file; a custom template may use the media, desc and
// inc helpers the same way the built-in one does.
type tplAdapter struct {
	tpl *template.Template
	url string
}

func NewTplAdapter(templateFileName string, siteURL string) (*tplAdapter, error) {
	a := &tplAdapter{
		url: siteURL,
	}
	tpl := template.New("").Funcs(template.FuncMap{
		funcNameMedia: a.renderMedia,
		funcNameDesc: func(s string) template.HTML {
			return template.HTML(s)
		},
		funcNameInc: func(i int) int {
			return i + 1
		},
	})

	src := defaultTemplate
	if templateFileName != "" {
		data, err := os.ReadFile(templateFileName)
		if err != nil {
			return nil, fmt.Errorf("cannot read template: %w", err)
		}

		src = string(data)
	}

	if _, err := tpl.Parse(src); err != nil {
		return nil, fmt.Errorf("cannot parse template: %w", err)
	}

	a.tpl = tpl

	return a, nil
}

func (a *tplAdapter) Parse(rec *entity.RecipeRecord, views int64) (string, error) {
	buf := bytes.Buffer{}
	if err := a.tpl.Execute(&buf, &PageContext{URL: a.url, Views: views, RecipeRecord: rec}); err != nil {
		return "", fmt.Errorf("cannot execute template: %w", err)
	}

	return buf.String(), nil
}

// renderMedia renders one step media entry through the MEDIA sub-template.
// Attachment URLs are rewritten to the media endpoint, external URLs pass
// through untouched.
func (a *tplAdapter) renderMedia(recipeID string, m entity.StepMedia) (template.HTML, error) {
	tpl := a.tpl.Lookup(templateNameMedia)
	if tpl == nil {
		return "", fmt.Errorf("template %s must be defined", templateNameMedia)
	}

	src := m.URL
	if recipe.IsAttachmentRef(m.URL) {
		src = path.Join("/media", recipeID, m.URL)
	}

	buf := bytes.Buffer{}
	if err := tpl.Execute(&buf, &mediaContext{Type: m.Type, Src: src, Alt: m.Alt}); err != nil {
		return "", fmt.Errorf("cannot execute template %s: %w", templateNameMedia, err)
	}

	return template.HTML(buf.String()), nil
}
