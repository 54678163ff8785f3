package bundle

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"recipevault/internal/common"
	"recipevault/internal/config"
	"recipevault/internal/entity"
)

type BundleAdapter interface {
	Folders() ([]string, error)
	Index() (*entity.ArchiveIndex, error)
	ToRecord(folderName string) (*entity.RecipeRecord, error)
}

// bundleStorage walks the static bundle and turns its folders into validated
// recipes. Folders that fail to parse are logged and skipped, the scan never
// fails because of a single bad folder. Only one scan runs at a time.
type bundleStorage struct {
	running atomic.Bool
	adapter BundleAdapter
	cfg     *config.BundleConfig
	log     *slog.Logger
}

func NewBundleStorage(adapter BundleAdapter, cfg *config.BundleConfig, log *slog.Logger) *bundleStorage {
	return &bundleStorage{
		adapter: adapter,
		cfg:     cfg,
		log:     log.With(slog.String("item", "BundleStorage")),
	}
}

func (s *bundleStorage) Scan(ctx context.Context) ([]*entity.RecipeRecord, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, common.ErrIndexingProcessHasAlreadyStarted
	}
	defer s.running.Store(false)

	folders, err := s.adapter.Folders()
	if err != nil {
		return nil, err
	}

	index, err := s.adapter.Index()
	if err != nil {
		return nil, err
	}

	inactive := make(map[string]struct{})
	if index != nil {
		for _, entry := range index.Recipes {
			if !entry.Active {
				inactive[entry.FolderID] = struct{}{}
			}
		}
	}

	var active []string
	for _, folder := range folders {
		if _, skip := inactive[folder]; skip {
			s.log.Info("Skip inactive folder", slog.String("folder", folder))

			continue
		}

		active = append(active, folder)
	}

	if len(active) == 0 {
		return []*entity.RecipeRecord{}, nil
	}

	in := make(chan string, len(active))
	out := make(chan *entity.RecipeRecord, len(active))

	for _, folder := range active {
		in <- folder
	}
	close(in)

	var wg sync.WaitGroup
	wg.Add(s.cfg.ScanWorkers)
	for n := 0; n < s.cfg.ScanWorkers; n++ {
		go s.worker(ctx, n, in, out, &wg)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	var records []*entity.RecipeRecord
	for rec := range out {
		s.log.Info("Found recipe", slog.String("id", rec.ID), slog.String("title", rec.Title))
		records = append(records, rec)
	}

	return records, nil
}

func (s *bundleStorage) worker(ctx context.Context, n int, in chan string, out chan *entity.RecipeRecord, wg *sync.WaitGroup) {
	defer wg.Done()

	log := s.log.With(slog.Int("worker_id", n))
	log.Info("Started")

	for folder := range in {
		rec, err := s.adapter.ToRecord(folder)
		if err != nil {
			log.Error("Cannot scan folder", slog.String("folder", folder), slog.Any("error", err))

			continue
		}

		select {
		case <-ctx.Done():
			log.Info("Interrupted")

			return
		case out <- rec:
		}
	}

	log.Info("Done")
}
