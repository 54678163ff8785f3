package bundle

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"

	"recipevault/internal/adapter/mdadapter"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	stepHeadingLevel = 2
)

type markdownMeta struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Category      string   `yaml:"category"`
	Versions      []string `yaml:"versions"`
	Prerequisites []string `yaml:"prerequisites"`
	Keywords      []string `yaml:"keywords"`
	Related       []string `yaml:"related"`
}

/*
recordFromMarkdown builds a recipe from an authored markdown document.
The yaml frontmatter carries the catalog fields, every second-level heading
starts a walkthrough step and the content below it becomes the step
description rendered to HTML. Images, links and attachment directives inside
a step are collected as step media.
*/
func (a *bundleAdapter) recordFromMarkdown(folderName string, src []byte) (*entity.RecipeRecord, error) {
	pctx := parser.NewContext()
	doc := a.md.Parser().Parse(text.NewReader(src), parser.WithContext(pctx))

	var meta markdownMeta
	if fm := frontmatter.Get(pctx); fm != nil {
		if err := fm.Decode(&meta); err != nil {
			return nil, fmt.Errorf("cannot decode frontmatter: %w", err)
		}
	}

	rec := &entity.RecipeRecord{
		ID:             meta.ID,
		Title:          meta.Title,
		Category:       meta.Category,
		Versions:       meta.Versions,
		Prerequisites:  meta.Prerequisites,
		Keywords:       meta.Keywords,
		RelatedRecipes: meta.Related,
	}
	if rec.ID == "" {
		rec.ID = folderName
	}

	steps, err := a.stepsFromAST(doc, src)
	if err != nil {
		return nil, fmt.Errorf("cannot build walkthrough: %w", err)
	}
	rec.Walkthrough = steps
	rec.DownloadExecutables = executablesFromSteps(steps)

	if err := recipe.Validate(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// executablesFromSteps lifts executables referenced by attachment directives
// into the record's download list.
func executablesFromSteps(steps []entity.WalkthroughStep) []entity.ExecutableDescriptor {
	seen := make(map[string]struct{})

	var execs []entity.ExecutableDescriptor
	for _, step := range steps {
		for _, m := range step.Media {
			if !recipe.IsExecutableRef(m.URL) {
				continue
			}

			if _, exists := seen[m.URL]; exists {
				continue
			}
			seen[m.URL] = struct{}{}

			execs = append(execs, entity.ExecutableDescriptor{FilePath: m.URL})
		}
	}

	return execs
}

func (a *bundleAdapter) stepsFromAST(doc ast.Node, src []byte) ([]entity.WalkthroughStep, error) {
	var (
		steps []entity.WalkthroughStep
		step  *entity.WalkthroughStep
		buf   bytes.Buffer
	)

	flush := func() {
		if step == nil {
			return
		}

		step.Description = strings.TrimSpace(buf.String())
		buf.Reset()
		steps = append(steps, *step)
		step = nil
	}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if heading, ok := n.(*ast.Heading); ok && heading.Level == stepHeadingLevel {
			flush()
			step = &entity.WalkthroughStep{
				Step:   nodeText(heading, src),
				Config: []entity.StepConfig{},
				Media:  []entity.StepMedia{},
			}

			continue
		}

		// Prose above the first step heading belongs to no step.
		if step == nil {
			continue
		}

		if err := a.md.Renderer().Render(&buf, src, n); err != nil {
			return nil, fmt.Errorf("cannot render step content: %w", err)
		}

		collectMedia(n, src, &step.Media)
	}
	flush()

	return steps, nil
}

func collectMedia(n ast.Node, src []byte, media *[]entity.StepMedia) {
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := child.(type) {
		case *ast.Image:
			*media = append(*media, entity.StepMedia{
				Type: entity.MediaTypeImage,
				URL:  string(node.Destination),
				Alt:  nodeText(node, src),
			})
		case *ast.Link:
			*media = append(*media, entity.StepMedia{
				Type: entity.MediaTypeLink,
				URL:  string(node.Destination),
				Alt:  nodeText(node, src),
			})
		case *mdadapter.AttachmentDirective:
			*media = append(*media, entity.StepMedia{
				Type: attachmentMediaType(node.Path),
				URL:  node.Path,
				Alt:  path.Base(node.Path),
			})
		}

		return ast.WalkContinue, nil
	})
}

// attachmentMediaType classifies a directive target by its bundle namespace.
func attachmentMediaType(p string) string {
	if recipe.IsImageRef(p) {
		return entity.MediaTypeImage
	}

	return entity.MediaTypeDocument
}

func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer

	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		if t, ok := child.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
		}

		return ast.WalkContinue, nil
	})

	return buf.String()
}
