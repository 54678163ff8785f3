package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"recipevault/internal/common"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	serviceName = "importer"

	metadataFolder = "__MACOSX"
)

type BlobStore interface {
	StoreImage(ctx context.Context, key string, data []byte) error
	StoreJSONFile(ctx context.Context, name string, data []byte) error
}

// ImportService unpacks recipe archives. Folders are processed one by one in
// archive order; a folder that cannot be imported is skipped and the rest of
// the archive still goes through. Binary attachments land in the blob store,
// the accepted records are returned for the caller to persist.
type ImportService struct {
	blobs BlobStore
	log   *slog.Logger
}

func NewImportService(blobs BlobStore, log *slog.Logger) *ImportService {
	return &ImportService{
		blobs: blobs,
		log:   log.With(slog.String("service", serviceName)),
	}
}

type archiveFolder struct {
	recipeFile  *zip.File
	images      []*zip.File
	executables []*zip.File
}

// Unpack imports one zip archive. It fails only when the archive itself is
// unreadable or no folder yields a valid recipe.
func (s *ImportService) Unpack(ctx context.Context, data []byte, progress entity.ProgressFunc) (*entity.ImportSummary, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}

	folders, order, indexFile := groupArchiveEntries(zr)
	inactive := s.inactiveFolders(indexFile)

	summary := &entity.ImportSummary{}
	total := len(order)
	current := 0

	for _, folder := range order {
		fe := folders[folder]

		rec, err := s.loadRecipe(folder, fe)
		if err != nil {
			s.log.Warn("Skip folder", slog.String("folder", folder), slog.Any("error", err))
			summary.SkippedFolders = append(summary.SkippedFolders, folder)
		} else if _, skip := inactive[folder]; skip {
			s.log.Info("Skip inactive folder", slog.String("folder", folder))
			summary.SkippedFolders = append(summary.SkippedFolders, folder)
		} else {
			s.restoreAttachments(ctx, folder, fe)
			summary.Records = append(summary.Records, rec)
		}

		current++
		progress.Report(fmt.Sprintf("Importing %s", folder), current, total)
	}

	if len(summary.Records) == 0 {
		return nil, common.ErrNoValidRecipesError
	}

	s.log.Info("Unpacked archive",
		slog.Int("imported", len(summary.Records)), slog.Int("skipped", len(summary.SkippedFolders)))

	return summary, nil
}

// groupArchiveEntries sorts the archive entries into per-folder buckets,
// keeping the folder order of the archive. Root files other than the index
// and platform metadata folders are ignored.
func groupArchiveEntries(zr *zip.Reader) (map[string]*archiveFolder, []string, *zip.File) {
	folders := make(map[string]*archiveFolder)
	var order []string
	var indexFile *zip.File

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		name := path.Clean(f.Name)
		parts := strings.Split(name, "/")

		if parts[0] == metadataFolder {
			continue
		}

		if len(parts) == 1 {
			if parts[0] == entity.ArchiveIndexFile {
				indexFile = f
			}

			continue
		}

		folder := parts[0]
		rest := strings.Join(parts[1:], "/")

		fe, exists := folders[folder]
		if !exists {
			fe = &archiveFolder{}
			folders[folder] = fe
			order = append(order, folder)
		}

		switch {
		case rest == entity.ArchiveRecipeFile:
			fe.recipeFile = f
		case strings.HasPrefix(rest, entity.ArchiveImagesDir+"/"):
			fe.images = append(fe.images, f)
		case strings.HasPrefix(rest, entity.ArchiveExecutablesDir+"/") && strings.HasSuffix(rest, ".json"):
			fe.executables = append(fe.executables, f)
		}
	}

	return folders, order, indexFile
}

// inactiveFolders reads the archive index. An unreadable index never fails
// the import, every folder is then treated as active.
func (s *ImportService) inactiveFolders(indexFile *zip.File) map[string]struct{} {
	inactive := make(map[string]struct{})
	if indexFile == nil {
		return inactive
	}

	data, err := readArchiveFile(indexFile)
	if err != nil {
		s.log.Warn("Cannot read archive index, importing all folders", slog.Any("error", err))

		return inactive
	}

	var index entity.ArchiveIndex
	if err := json.Unmarshal(data, &index); err != nil {
		s.log.Warn("Cannot parse archive index, importing all folders", slog.Any("error", err))

		return inactive
	}

	for _, entry := range index.Recipes {
		if !entry.Active {
			inactive[entry.FolderID] = struct{}{}
		}
	}

	return inactive
}

func (s *ImportService) loadRecipe(folder string, fe *archiveFolder) (*entity.RecipeRecord, error) {
	if fe.recipeFile == nil {
		return nil, fmt.Errorf("folder has no %s", entity.ArchiveRecipeFile)
	}

	data, err := readArchiveFile(fe.recipeFile)
	if err != nil {
		return nil, fmt.Errorf("cannot read recipe document: %w", err)
	}

	rec, err := recipe.Decode(data)
	if err != nil {
		return nil, err
	}

	if rec.ID == "" {
		rec.ID = folder
	}

	return rec, nil
}

// restoreAttachments writes the binary content of one folder into the blob
// store. Images are stored under their attachment key, executable
// definitions under their full file name. A failed attachment is logged and
// skipped, never failing the folder.
func (s *ImportService) restoreAttachments(ctx context.Context, folder string, fe *archiveFolder) {
	for _, f := range fe.images {
		content, err := readArchiveFile(f)
		if err != nil {
			s.log.Warn("Cannot read image", slog.String("entry", f.Name), slog.Any("error", err))

			continue
		}

		key := recipe.AttachmentKey(path.Base(f.Name))
		if err := s.blobs.StoreImage(ctx, key, content); err != nil {
			s.log.Warn("Cannot store image", slog.String("key", key), slog.Any("error", err))
		}
	}

	for _, f := range fe.executables {
		content, err := readArchiveFile(f)
		if err != nil {
			s.log.Warn("Cannot read executable definition", slog.String("entry", f.Name), slog.Any("error", err))

			continue
		}

		name := path.Base(f.Name)
		if err := s.blobs.StoreJSONFile(ctx, name, content); err != nil {
			s.log.Warn("Cannot store executable definition", slog.String("name", name), slog.Any("error", err))
		}
	}
}

func readArchiveFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
