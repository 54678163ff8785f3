package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	bundleadapter "recipevault/internal/adapter/bundle"
	"recipevault/internal/adapter/tpladapter"
	"recipevault/internal/config"
	httphandler "recipevault/internal/handler/http"
	"recipevault/internal/repository/blob"
	"recipevault/internal/repository/record"
	"recipevault/internal/service/catalog"
	"recipevault/internal/service/export"
	"recipevault/internal/service/importer"
	"recipevault/internal/service/media"
	"recipevault/internal/service/ops"
	"recipevault/internal/service/share"
	"recipevault/internal/storage/bundle"
)

const (
	indexTimeout = 30 * time.Second
	dumpTimeout  = 5 * time.Second
)

type App struct {
	cfgPath string
	cfg     *config.Config
	srv     *http.Server
	catalog *catalog.CatalogService
	export  *export.ExportService
	log     *slog.Logger
}

func New(cfgPath string) *App {
	return &App{
		cfgPath: cfgPath,
	}
}

func (a *App) Start() {
	a.cfg = config.MustLoad(a.cfgPath)

	opt, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		panic(err)
	}

	rdb := redis.NewClient(opt)
	ctx := context.Background()
	_, err = rdb.Ping(ctx).Result()
	if err != nil {
		panic(err)
	}

	lo := &slog.HandlerOptions{}
	switch a.cfg.LogLevel {
	case config.LogLevelInfo:
		lo.Level = slog.LevelInfo
	case config.LogLevelWarn:
		lo.Level = slog.LevelWarn
	case config.LogLevelError:
		lo.Level = slog.LevelError
	case config.LogLevelDebug:
		lo.Level = slog.LevelDebug
	default:
		panic("unknown log level")
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, lo))
	a.log = log

	records, err := record.NewRecordRepository(rdb, log)
	if err != nil {
		panic(err)
	}

	blobs := blob.NewBlobRepository(rdb, log)

	adapter, err := bundleadapter.NewBundleAdapter(&a.cfg.Bundle, log)
	if err != nil {
		panic(err)
	}

	tpl, err := tpladapter.NewTplAdapter(a.cfg.Share.TemplateFile, a.cfg.URL)
	if err != nil {
		panic(err)
	}

	store := bundle.NewBundleStorage(adapter, &a.cfg.Bundle, log)
	a.catalog = catalog.NewCatalogService(store, records, log)

	mediaSrv := media.NewMediaService(blobs, adapter, log)
	a.export = export.NewExportService(mediaSrv, log)
	importSrv := importer.NewImportService(blobs, log)
	shareSrv := share.NewShareService(records, tpl, records, log)
	opsReg := ops.NewRegistry(log)

	http.Handle("GET /recipes/{$}", httphandler.NewRecipeListHandler(a.catalog, log))
	http.Handle("GET /recipes/{id}/{$}", httphandler.NewRecipeHandler(a.catalog, log))
	http.Handle("GET /share/{id}/{$}", httphandler.NewShareHandler(shareSrv, log))
	http.Handle("GET /share/{id}/info", httphandler.NewShareInfoHandler(shareSrv, log))
	http.Handle("GET /media/{id}/{path...}", httphandler.NewMediaHandler(mediaSrv, log))

	http.Handle("POST /export/{$}", httphandler.NewExportHandler(a.cfg.Export.ArchiveBaseName, a.catalog, a.export, opsReg, log))
	http.Handle("GET /export/json/{$}", httphandler.NewExportJSONHandler(a.catalog, a.export, log))
	http.Handle("POST /import/{$}", httphandler.NewImportHandler(importSrv, records, opsReg, log))
	http.Handle("POST /import/json/{$}", httphandler.NewImportJSONHandler(importSrv, records, log))
	http.Handle("POST /images/{$}", httphandler.NewImageUploadHandler(blobs, log))

	http.Handle("POST /index/{$}", httphandler.NewIndexHandler(a.catalog, log))
	http.Handle("GET /ops/{id}/{$}", httphandler.NewOperationHandler(opsReg, log))

	if err := a.catalog.EnsureSeeded(ctx); err != nil {
		log.Warn("Cannot seed catalog from bundle", slog.Any("error", err))
	}

	a.srv = &http.Server{
		Addr: a.cfg.Listen,
	}

	go func() {
		log.Info("Start listen", slog.String("addr", a.cfg.Listen))

		if err := a.srv.ListenAndServe(); err != nil {
			log.Error("Could not serve", slog.String("listen_addr", a.cfg.Listen), slog.Any("error", err))
			os.Exit(2)
		}

	}()
}

// Dump writes the whole catalog as a direct-download export document next to
// the binary.
func (a *App) Dump() {
	ctx, cancel := context.WithTimeout(context.Background(), dumpTimeout)
	defer cancel()

	records, err := a.catalog.List(ctx, "")
	if err != nil {
		a.log.Error("Cannot dump catalog", slog.Any("error", err))

		return
	}

	doc, err := a.export.BuildDocument(records)
	if err != nil {
		a.log.Error("Cannot dump catalog", slog.Any("error", err))

		return
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		a.log.Error("Cannot dump catalog", slog.Any("error", err))

		return
	}

	if err := os.WriteFile(a.cfg.Export.DumpFileName, data, 0o644); err != nil {
		a.log.Error("Cannot write dump file", slog.String("file", a.cfg.Export.DumpFileName), slog.Any("error", err))

		return
	}

	a.log.Info("Dumped catalog", slog.String("file", a.cfg.Export.DumpFileName), slog.Int("recipes", len(records)))
}

func (a *App) Index() {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	fmt.Println("Indexing...")

	count, err := a.catalog.Reindex(ctx)
	if err != nil {
		fmt.Printf("Cannot reindex: %s\n", err)

		return
	}

	fmt.Printf("Indexed %d recipes.\n", count)
}

func (a *App) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.srv.Shutdown(ctx)
}
