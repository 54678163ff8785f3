package bundle

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"

	"recipevault/internal/adapter/mdadapter"
	"recipevault/internal/common"
	"recipevault/internal/config"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	maxFolders = 500
)

type bundleAdapter struct {
	fs  afero.Fs
	cfg *config.BundleConfig
	md  goldmark.Markdown

	log *slog.Logger
}

func NewBundleAdapter(cfg *config.BundleConfig, log *slog.Logger) (*bundleAdapter, error) {
	return NewBundleAdapterWithFS(afero.NewReadOnlyFs(afero.NewOsFs()), cfg, log)
}

func NewBundleAdapterWithFS(fs afero.Fs, cfg *config.BundleConfig, log *slog.Logger) (*bundleAdapter, error) {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
			mdadapter.NewAttachmentExtension(),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	a := &bundleAdapter{
		fs:  fs,
		cfg: cfg,
		md:  md,
		log: log,
	}

	return a, nil
}

// Folders lists the recipe folders of the bundle without opening them.
func (a *bundleAdapter) Folders() ([]string, error) {
	entries, err := afero.ReadDir(a.fs, a.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read bundle dir: %w", err)
	}

	var folders []string
	for _, entry := range entries {
		if entry.IsDir() {
			folders = append(folders, entry.Name())
		}

		if len(folders) >= maxFolders {
			break
		}
	}

	return folders, nil
}

// Index loads the bundle manifest. A missing or unparseable manifest is not
// an error, the scan then treats every folder as active.
func (a *bundleAdapter) Index() (*entity.ArchiveIndex, error) {
	indexPath := filepath.Join(a.cfg.Dir, a.cfg.IndexFileName)
	if !a.fileExists(indexPath) {
		return nil, nil
	}

	data, err := afero.ReadFile(a.fs, indexPath)
	if err != nil {
		return nil, fmt.Errorf("cannot read bundle index: %w", err)
	}

	var index entity.ArchiveIndex
	if err := json.Unmarshal(data, &index); err != nil {
		a.log.Warn("Cannot parse bundle index, treating all folders as active", slog.Any("error", err))

		return nil, nil
	}

	return &index, nil
}

/*
ToRecord loads one bundle folder as a validated recipe.
 1. If the folder contains cfg.RecipeFileName, parse it as the recipe document.
 2. Otherwise, if the folder contains cfg.MarkdownFileName, build the recipe
    from the authored markdown.
 3. Otherwise the folder is not a recipe.
*/
func (a *bundleAdapter) ToRecord(folderName string) (*entity.RecipeRecord, error) {
	if strings.Contains(folderName, "..") {
		return nil, fmt.Errorf("invalid folder name")
	}

	folderPath := filepath.Join(a.cfg.Dir, folderName)

	if recipePath := filepath.Join(folderPath, a.cfg.RecipeFileName); a.fileExists(recipePath) {
		data, err := afero.ReadFile(a.fs, recipePath)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", a.cfg.RecipeFileName, err)
		}

		rec, err := recipe.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("cannot load recipe from %s: %w", folderName, err)
		}

		if rec.ID == "" {
			rec.ID = folderName
		}

		return rec, nil
	}

	if mdPath := filepath.Join(folderPath, a.cfg.MarkdownFileName); a.fileExists(mdPath) {
		data, err := afero.ReadFile(a.fs, mdPath)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", a.cfg.MarkdownFileName, err)
		}

		rec, err := a.recordFromMarkdown(folderName, data)
		if err != nil {
			return nil, fmt.Errorf("cannot load recipe from %s: %w", folderName, err)
		}

		return rec, nil
	}

	return nil, fmt.Errorf("folder %s has no recipe document", folderName)
}

// RecordAsset reads one attachment of a record from the bundle. The record id
// doubles as the folder name except for the configured overrides.
func (a *bundleAdapter) RecordAsset(recordID string, relativePath string) ([]byte, error) {
	if strings.Contains(recordID, "..") || strings.Contains(relativePath, "..") {
		return nil, fmt.Errorf("invalid asset path")
	}

	folder := recordID
	if override, exists := a.cfg.FolderOverrides[recordID]; exists {
		folder = override
	}

	data, err := afero.ReadFile(a.fs, filepath.Join(a.cfg.Dir, folder, relativePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrAttachmentNotFoundError
		}

		return nil, fmt.Errorf("cannot read bundle asset: %w", err)
	}

	return data, nil
}

func (a *bundleAdapter) fileExists(path string) bool {
	if path == "" {
		return false
	}

	_, err := a.fs.Stat(path)
	if err == nil {
		return true
	}

	if os.IsNotExist(err) {
		return false
	}

	// Other errors (e.g., permission issues)
	return false
}
