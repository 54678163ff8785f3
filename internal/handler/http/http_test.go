package httphandler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"recipevault/internal/common"
	"recipevault/internal/entity"
)

type fakeCatalog struct {
	records  []*entity.RecipeRecord
	indexErr error
}

func (f *fakeCatalog) List(_ context.Context, _ string) ([]*entity.RecipeRecord, error) {
	return f.records, nil
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*entity.RecipeRecord, error) {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec, nil
		}
	}

	return nil, common.ErrRecipeNotFoundError
}

func (f *fakeCatalog) Reindex(_ context.Context) (int, error) {
	if f.indexErr != nil {
		return 0, f.indexErr
	}

	return len(f.records), nil
}

type fakeExporter struct {
	packed []*entity.RecipeRecord
}

func (f *fakeExporter) Pack(_ context.Context, records []*entity.RecipeRecord, _ int, _ entity.ProgressFunc) ([]byte, error) {
	if len(records) == 0 {
		return nil, common.ErrNoValidRecipesError
	}
	f.packed = records

	return []byte("archive"), nil
}

func (f *fakeExporter) BuildDocument(records []*entity.RecipeRecord) (*entity.ExportDocument, error) {
	return &entity.ExportDocument{Recipes: records}, nil
}

type fakeImporter struct {
	summary *entity.ImportSummary
	err     error
}

func (f *fakeImporter) Unpack(_ context.Context, _ []byte, _ entity.ProgressFunc) (*entity.ImportSummary, error) {
	return f.summary, f.err
}

func (f *fakeImporter) ImportJSON(_ context.Context, _ []byte) (*entity.ImportSummary, error) {
	return f.summary, f.err
}

type fakeStore struct {
	saved []*entity.RecipeRecord
}

func (f *fakeStore) Save(_ context.Context, records []*entity.RecipeRecord) error {
	f.saved = records

	return nil
}

type fakeOps struct{}

func (f *fakeOps) Begin(kind string) (string, entity.ProgressFunc, func(error)) {
	return kind + "-op", nil, func(error) {}
}

func (f *fakeOps) Snapshot(id string) (entity.OperationSnapshot, error) {
	if id != "export-op" {
		return entity.OperationSnapshot{}, common.ErrOperationNotFoundError
	}

	return entity.OperationSnapshot{ID: id, Kind: "export", Done: true}, nil
}

type fakeResolver struct {
	assets map[string][]byte
}

func (f *fakeResolver) Resolve(_ context.Context, recordID, relativePath string) ([]byte, error) {
	data, ok := f.assets[recordID+"/"+relativePath]
	if !ok {
		return nil, common.ErrAttachmentNotFoundError
	}

	return data, nil
}

func testLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecords() []*entity.RecipeRecord {
	return []*entity.RecipeRecord{
		{ID: "batch-csv-upload", Title: "Batch CSV Upload", Category: "Batch"},
		{ID: "trigger-on-upload", Title: "Trigger On Upload", Category: "Trigger"},
	}
}

func TestRecipeHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /recipes/{id}/{$}", NewRecipeHandler(&fakeCatalog{records: testRecords()}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/batch-csv-upload/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "Batch CSV Upload")
}

func TestRecipeHandlerNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /recipes/{id}/{$}", NewRecipeHandler(&fakeCatalog{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/no-such-recipe/", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipeHandlerBadID(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /recipes/{id}/{$}", NewRecipeHandler(&fakeCatalog{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/"+strings.Repeat("a", 65)+"/", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecipeListHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /recipes/{$}", NewRecipeListHandler(&fakeCatalog{records: testRecords()}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/recipes/", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var records []*entity.RecipeRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &records))
	require.Len(t, records, 2)
}

func TestIndexHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /index/{$}", NewIndexHandler(&fakeCatalog{records: testRecords()}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/index/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"indexed": 2}`, rr.Body.String())
}

func TestIndexHandlerConflict(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /index/{$}", NewIndexHandler(&fakeCatalog{indexErr: common.ErrIndexingProcessHasAlreadyStarted}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/index/", nil))

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestExportHandler(t *testing.T) {
	exporter := &fakeExporter{}
	mux := http.NewServeMux()
	mux.Handle("POST /export/{$}", NewExportHandler("recipes-export", &fakeCatalog{records: testRecords()}, exporter, &fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/export/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/zip", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "recipes-export-")
	require.Equal(t, "export-op", rr.Header().Get("X-Operation-Id"))
	require.Len(t, exporter.packed, 2)
}

func TestExportHandlerSelectsByID(t *testing.T) {
	exporter := &fakeExporter{}
	mux := http.NewServeMux()
	mux.Handle("POST /export/{$}", NewExportHandler("recipes-export", &fakeCatalog{records: testRecords()}, exporter, &fakeOps{}, testLog()))

	body := strings.NewReader(`{"recipeIds": ["trigger-on-upload"]}`)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/export/", body))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, exporter.packed, 1)
	require.Equal(t, "trigger-on-upload", exporter.packed[0].ID)
}

func TestExportHandlerUnknownID(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /export/{$}", NewExportHandler("recipes-export", &fakeCatalog{records: testRecords()}, &fakeExporter{}, &fakeOps{}, testLog()))

	body := strings.NewReader(`{"recipeIds": ["no-such-recipe"]}`)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/export/", body))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestImportHandler(t *testing.T) {
	store := &fakeStore{}
	importer := &fakeImporter{summary: &entity.ImportSummary{
		Records:        testRecords(),
		SkippedFolders: []string{"broken-folder"},
	}}
	mux := http.NewServeMux()
	mux.Handle("POST /import/{$}", NewImportHandler(importer, store, &fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import/", strings.NewReader("archive-bytes")))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, store.saved, 2)

	var resp importResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Imported)
	require.Equal(t, []string{"broken-folder"}, resp.SkippedFolders)
	require.Equal(t, "import-op", resp.OperationID)
}

func TestImportHandlerEmptyBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("POST /import/{$}", NewImportHandler(&fakeImporter{}, &fakeStore{}, &fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import/", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestImportHandlerNoValidRecipes(t *testing.T) {
	importer := &fakeImporter{err: common.ErrNoValidRecipesError}
	mux := http.NewServeMux()
	mux.Handle("POST /import/{$}", NewImportHandler(importer, &fakeStore{}, &fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/import/", strings.NewReader("archive-bytes")))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMediaHandler(t *testing.T) {
	resolver := &fakeResolver{assets: map[string][]byte{
		"batch-csv-upload/images/img_1_aa_shot.png": []byte("png-bytes"),
	}}
	mux := http.NewServeMux()
	mux.Handle("GET /media/{id}/{path...}", NewMediaHandler(resolver, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/batch-csv-upload/images/img_1_aa_shot.png", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	require.Equal(t, "png-bytes", rr.Body.String())
}

func TestMediaHandlerNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /media/{id}/{path...}", NewMediaHandler(&fakeResolver{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/media/batch-csv-upload/images/missing.png", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOperationHandler(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /ops/{id}/{$}", NewOperationHandler(&fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ops/export-op/", nil))

	require.Equal(t, http.StatusOK, rr.Code)

	var snap entity.OperationSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	require.True(t, snap.Done)
}

func TestOperationHandlerNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.Handle("GET /ops/{id}/{$}", NewOperationHandler(&fakeOps{}, testLog()))

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ops/unknown-op/", nil))

	require.Equal(t, http.StatusNotFound, rr.Code)
}
