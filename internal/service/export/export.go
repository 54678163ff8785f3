package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"recipevault/internal/common"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	serviceName = "export"

	exportFormatVersion = "1.0"
	exportFormat        = "recipe-collection"

	stepIndex    = "Generating index"
	stepFinalize = "Compressing archive"
)

type AttachmentResolver interface {
	Resolve(ctx context.Context, recordID, relativePath string) ([]byte, error)
}

// ExportService packs recipe collections into zip archives. The archive is
// built completely in memory and handed out only when every part succeeded,
// a failed export never leaves partial output behind.
type ExportService struct {
	resolver AttachmentResolver
	log      *slog.Logger
}

func NewExportService(resolver AttachmentResolver, log *slog.Logger) *ExportService {
	return &ExportService{
		resolver: resolver,
		log:      log.With(slog.String("service", serviceName)),
	}
}

// Pack builds the archive for the given records. catalogTotal is the size of
// the whole catalog and only shows up in the instructions text; the archive
// index always covers exactly the exported records. Attachments that no
// store can resolve are skipped, every other failure aborts the export.
func (s *ExportService) Pack(ctx context.Context, records []*entity.RecipeRecord, catalogTotal int, progress entity.ProgressFunc) ([]byte, error) {
	if len(records) == 0 {
		return nil, common.ErrNoValidRecipesError
	}

	if catalogTotal < len(records) {
		catalogTotal = len(records)
	}

	total := len(records) + 2
	current := 0

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)

	used := make(map[string]struct{}, len(records))
	folders := make([]string, 0, len(records))

	for _, rec := range records {
		if err := recipe.Validate(rec); err != nil {
			return nil, fmt.Errorf("cannot export recipe %s: %w", rec.ID, err)
		}

		folder := recipe.FolderName(rec.Title, used)
		used[folder] = struct{}{}
		folders = append(folders, folder)

		if err := s.writeRecord(ctx, zw, rec, folder); err != nil {
			return nil, err
		}

		current++
		progress.Report(fmt.Sprintf("Exporting %s", rec.Title), current, total)
	}

	if err := writeIndex(zw, folders); err != nil {
		return nil, err
	}

	if err := writeInstructions(zw, records, folders, catalogTotal); err != nil {
		return nil, err
	}

	current++
	progress.Report(stepIndex, current, total)

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("cannot finalize archive: %w", err)
	}

	current++
	progress.Report(stepFinalize, current, total)

	s.log.Info("Packed archive", slog.Int("recipes", len(records)), slog.Int("size", buf.Len()))

	return buf.Bytes(), nil
}

// BuildDocument assembles the direct-download JSON export: the same records
// and index an archive would carry, minus binary attachments.
func (s *ExportService) BuildDocument(records []*entity.RecipeRecord) (*entity.ExportDocument, error) {
	used := make(map[string]struct{}, len(records))
	entries := make([]entity.ArchiveIndexEntry, 0, len(records))

	for _, rec := range records {
		if err := recipe.Validate(rec); err != nil {
			return nil, fmt.Errorf("cannot export recipe %s: %w", rec.ID, err)
		}

		folder := recipe.FolderName(rec.Title, used)
		used[folder] = struct{}{}
		entries = append(entries, entity.ArchiveIndexEntry{FolderID: folder, Active: true})
	}

	sortIndexEntries(entries)

	return &entity.ExportDocument{
		Metadata: entity.ExportMetadata{
			ExportDate:  time.Now().UTC().Format(time.RFC3339),
			Version:     exportFormatVersion,
			RecipeCount: len(records),
			Format:      exportFormat,
		},
		Index:   entries,
		Recipes: records,
	}, nil
}

func (s *ExportService) writeRecord(ctx context.Context, zw *zip.Writer, rec *entity.RecipeRecord, folder string) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal recipe %s: %w", rec.ID, err)
	}

	if err := writeArchiveFile(zw, path.Join(folder, entity.ArchiveRecipeFile), data); err != nil {
		return err
	}

	return s.writeAttachments(ctx, zw, rec, folder)
}

func (s *ExportService) writeAttachments(ctx context.Context, zw *zip.Writer, rec *entity.RecipeRecord, folder string) error {
	written := make(map[string]struct{})

	for _, step := range rec.Walkthrough {
		for _, m := range step.Media {
			if m.Type != entity.MediaTypeImage || !recipe.IsImageRef(m.URL) {
				continue
			}

			if err := s.writeAttachment(ctx, zw, rec, folder, m.URL, written); err != nil {
				return err
			}
		}
	}

	for _, img := range rec.GeneralImages {
		if !recipe.IsImageRef(img.URL) {
			continue
		}

		if err := s.writeAttachment(ctx, zw, rec, folder, img.URL, written); err != nil {
			return err
		}
	}

	for _, exec := range rec.DownloadExecutables {
		if exec.FilePath == "" {
			continue
		}

		if err := s.writeAttachment(ctx, zw, rec, folder, exec.FilePath, written); err != nil {
			return err
		}
	}

	return nil
}

// writeAttachment adds one attachment to the archive. An attachment no store
// can resolve is skipped, only archive write failures propagate.
func (s *ExportService) writeAttachment(ctx context.Context, zw *zip.Writer, rec *entity.RecipeRecord, folder, relativePath string, written map[string]struct{}) error {
	entryName := path.Join(folder, relativePath)
	if _, done := written[entryName]; done {
		return nil
	}

	data, err := s.resolver.Resolve(ctx, rec.ID, relativePath)
	if err != nil {
		s.log.Debug("Skip unresolved attachment",
			slog.String("recipe_id", rec.ID), slog.String("path", relativePath), slog.Any("error", err))

		return nil
	}

	written[entryName] = struct{}{}

	return writeArchiveFile(zw, entryName, data)
}

func writeIndex(zw *zip.Writer, folders []string) error {
	entries := make([]entity.ArchiveIndexEntry, 0, len(folders))
	for _, folder := range folders {
		entries = append(entries, entity.ArchiveIndexEntry{FolderID: folder, Active: true})
	}

	sortIndexEntries(entries)

	data, err := json.MarshalIndent(entity.ArchiveIndex{Recipes: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal index: %w", err)
	}

	return writeArchiveFile(zw, entity.ArchiveIndexFile, data)
}

func sortIndexEntries(entries []entity.ArchiveIndexEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].FolderID < entries[j].FolderID
	})
}

func writeArchiveFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("cannot create archive entry %s: %w", name, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("cannot write archive entry %s: %w", name, err)
	}

	return nil
}
