package httphandler

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"recipevault/internal/common"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
	"recipevault/internal/util"
)

const (
	uploadFieldName = "file"

	opKindExport = "export"
	opKindImport = "import"
)

var (
	idRegexp = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)
)

type CatalogService interface {
	List(ctx context.Context, query string) ([]*entity.RecipeRecord, error)
	Get(ctx context.Context, id string) (*entity.RecipeRecord, error)
	Reindex(ctx context.Context) (int, error)
}

type ExportService interface {
	Pack(ctx context.Context, records []*entity.RecipeRecord, catalogTotal int, progress entity.ProgressFunc) ([]byte, error)
	BuildDocument(records []*entity.RecipeRecord) (*entity.ExportDocument, error)
}

type ImportService interface {
	Unpack(ctx context.Context, data []byte, progress entity.ProgressFunc) (*entity.ImportSummary, error)
	ImportJSON(ctx context.Context, data []byte) (*entity.ImportSummary, error)
}

type RecordStore interface {
	Save(ctx context.Context, records []*entity.RecipeRecord) error
}

type ShareService interface {
	GetPage(ctx context.Context, id string, viewerID string) (string, error)
	Views(ctx context.Context, recipeID string) (int64, error)
}

type AttachmentResolver interface {
	Resolve(ctx context.Context, recordID, relativePath string) ([]byte, error)
}

type OperationService interface {
	Begin(kind string) (string, entity.ProgressFunc, func(error))
	Snapshot(id string) (entity.OperationSnapshot, error)
}

type BlobWriter interface {
	StoreImage(ctx context.Context, key string, data []byte) error
	MintImageKey() string
}

type importResponse struct {
	Imported       int      `json:"imported"`
	SkippedFolders []string `json:"skippedFolders"`
	OperationID    string   `json:"operationId,omitempty"`
}

func NewRecipeListHandler(srv CatalogService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "RecipeListHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		records, err := srv.List(context.Background(), r.URL.Query().Get("q"))
		if err != nil {
			http.Error(w, "Cannot list recipes", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewRecipeHandler(srv CatalogService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "RecipeHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		rec, err := srv.Get(context.Background(), id)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrRecipeNotFoundError):
				http.Error(w, "Cannot find recipe", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get recipe", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewShareHandler(srv ShareService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ShareHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		content, err := srv.GetPage(context.Background(), id, viewerFingerprint(r, id))
		if err != nil {
			switch {
			case errors.Is(err, common.ErrRecipeNotFoundError):
				http.Error(w, "Cannot get page", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get page", http.StatusInternalServerError)
			}

			return
		}

		etag := fmt.Sprintf("%q", util.HashString(content))
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)

			return
		}

		w.Header().Set("ETag", etag)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(content))
	}
}

func NewShareInfoHandler(srv ShareService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ShareInfoHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		views, err := srv.Views(context.Background(), id)
		if err != nil {
			http.Error(w, "Cannot get view counter", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]int64{"views": views}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewMediaHandler(srv AttachmentResolver, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "MediaHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		rel := r.PathValue("path")
		if !idRegexp.MatchString(id) || strings.Contains(rel, "..") {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		data, err := srv.Resolve(context.Background(), id, rel)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrAttachmentNotFoundError):
				http.Error(w, "Cannot find attachment", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get attachment", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", getContentType(rel, data))
		w.Write(data)
	}
}

// NewExportHandler packs selected recipes into a zip download. The request
// body may carry {"recipeIds": [...]}; an empty body exports the whole
// catalog. The operation id goes out in the X-Operation-Id header so clients
// can poll progress while streaming the download.
func NewExportHandler(archiveBaseName string, catalog CatalogService, srv ExportService, ops OperationService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ExportHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Cannot read request", http.StatusBadRequest)

			return
		}

		var req struct {
			RecipeIDs []string `json:"recipeIds"`
		}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, "Bad request", http.StatusBadRequest)

				return
			}
		}

		records, err := catalog.List(context.Background(), "")
		if err != nil {
			http.Error(w, "Cannot list recipes", http.StatusInternalServerError)

			return
		}

		selected := records
		if len(req.RecipeIDs) > 0 {
			selected, err = selectRecords(records, req.RecipeIDs)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)

				return
			}
		}

		opID, progress, finish := ops.Begin(opKindExport)

		data, err := srv.Pack(context.Background(), selected, len(records), progress)
		finish(err)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrNoValidRecipesError):
				http.Error(w, "No recipes to export", http.StatusBadRequest)
			default:
				http.Error(w, "Cannot export recipes", http.StatusInternalServerError)
			}

			return
		}

		fileName := fmt.Sprintf("%s-%s.zip", archiveBaseName, time.Now().Format("20060102"))

		w.Header().Set("X-Operation-Id", opID)
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
		w.Write(data)
	}
}

func NewExportJSONHandler(catalog CatalogService, srv ExportService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ExportJSONHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		records, err := catalog.List(context.Background(), "")
		if err != nil {
			http.Error(w, "Cannot list recipes", http.StatusInternalServerError)

			return
		}

		doc, err := srv.BuildDocument(records)
		if err != nil {
			http.Error(w, "Cannot export recipes", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// NewImportHandler unpacks an uploaded archive and merges the recovered
// records into the catalog.
func NewImportHandler(srv ImportService, store RecordStore, ops OperationService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ImportHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readUploadBody(r)
		if err != nil || len(data) == 0 {
			http.Error(w, "Cannot read upload", http.StatusBadRequest)

			return
		}

		opID, progress, finish := ops.Begin(opKindImport)

		summary, err := srv.Unpack(context.Background(), data, progress)
		if err != nil {
			finish(err)
			switch {
			case errors.Is(err, common.ErrNoValidRecipesError):
				http.Error(w, "No valid recipes in archive", http.StatusBadRequest)
			case errors.Is(err, zip.ErrFormat):
				http.Error(w, "Bad archive", http.StatusBadRequest)
			default:
				http.Error(w, "Cannot import archive", http.StatusInternalServerError)
			}

			return
		}

		err = store.Save(context.Background(), summary.Records)
		finish(err)
		if err != nil {
			http.Error(w, "Cannot save recipes", http.StatusInternalServerError)

			return
		}

		log.Info("Imported archive", slog.Int("count", len(summary.Records)), slog.String("op_id", opID))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(&importResponse{
			Imported:       len(summary.Records),
			SkippedFolders: summary.SkippedFolders,
			OperationID:    opID,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewImportJSONHandler(srv ImportService, store RecordStore, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ImportJSONHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readUploadBody(r)
		if err != nil || len(data) == 0 {
			http.Error(w, "Cannot read upload", http.StatusBadRequest)

			return
		}

		summary, err := srv.ImportJSON(context.Background(), data)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrNoValidRecipesError):
				http.Error(w, "No valid recipes in document", http.StatusBadRequest)
			default:
				http.Error(w, "Cannot import document", http.StatusInternalServerError)
			}

			return
		}

		if err := store.Save(context.Background(), summary.Records); err != nil {
			http.Error(w, "Cannot save recipes", http.StatusInternalServerError)

			return
		}

		log.Info("Imported document", slog.Int("count", len(summary.Records)))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(&importResponse{
			Imported:       len(summary.Records),
			SkippedFolders: summary.SkippedFolders,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewIndexHandler(srv CatalogService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "IndexHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		count, err := srv.Reindex(context.Background())
		if err != nil {
			switch {
			case errors.Is(err, common.ErrIndexingProcessHasAlreadyStarted):
				http.Error(w, "Index process has already started", http.StatusConflict)
			default:
				http.Error(w, "Cannot start index process", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]int{"indexed": count}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func NewOperationHandler(srv OperationService, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "OperationHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if !idRegexp.MatchString(id) {
			http.Error(w, "Bad request", http.StatusBadRequest)

			return
		}

		snap, err := srv.Snapshot(id)
		if err != nil {
			switch {
			case errors.Is(err, common.ErrOperationNotFoundError):
				http.Error(w, "Cannot find operation", http.StatusNotFound)
			default:
				http.Error(w, "Cannot get operation", http.StatusInternalServerError)
			}

			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// NewImageUploadHandler stores an uploaded image in the blob store and
// returns the key recipes can reference it under. A filename query parameter
// reuses the attachment key derived from the name, otherwise a fresh key is
// minted.
func NewImageUploadHandler(blobs BlobWriter, log *slog.Logger) http.HandlerFunc {
	log = log.With(slog.String("handler", "ImageUploadHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := readUploadBody(r)
		if err != nil || len(data) == 0 {
			http.Error(w, "Cannot read upload", http.StatusBadRequest)

			return
		}

		key := blobs.MintImageKey()
		if fileName := r.URL.Query().Get("filename"); fileName != "" {
			key = recipe.AttachmentKey(path.Base(fileName))
		}

		if err := blobs.StoreImage(context.Background(), key, data); err != nil {
			http.Error(w, "Cannot store image", http.StatusInternalServerError)

			return
		}

		log.Info("Stored image", slog.String("key", key), slog.Int("size", len(data)))

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"key": key}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// selectRecords picks records by id, failing on ids the catalog does not
// have.
func selectRecords(records []*entity.RecipeRecord, ids []string) ([]*entity.RecipeRecord, error) {
	byID := make(map[string]*entity.RecipeRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	selected := make([]*entity.RecipeRecord, 0, len(ids))
	for _, id := range ids {
		rec, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown recipe id %s", id)
		}

		selected = append(selected, rec)
	}

	return selected, nil
}

// readUploadBody accepts either a multipart upload under the file field or
// the raw request body.
func readUploadBody(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		f, _, err := r.FormFile(uploadFieldName)
		if err != nil {
			return nil, fmt.Errorf("cannot read upload: %w", err)
		}
		defer f.Close()

		return io.ReadAll(f)
	}

	defer r.Body.Close()

	return io.ReadAll(r.Body)
}

// viewerFingerprint identifies a visitor for view dedup. Only a hash leaves
// the handler, the address itself is never stored.
func viewerFingerprint(r *http.Request, recipeID string) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return util.HashString(host + "|" + r.UserAgent() + "|" + recipeID)
}

func getContentType(name string, data []byte) string {
	if mimeType := mime.TypeByExtension(path.Ext(name)); mimeType != "" {
		return mimeType
	}

	return http.DetectContentType(data)
}
