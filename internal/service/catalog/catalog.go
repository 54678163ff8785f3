package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"recipevault/internal/common"
	"recipevault/internal/entity"
)

type BundleScanner interface {
	Scan(ctx context.Context) ([]*entity.RecipeRecord, error)
}

type RecordRepository interface {
	Replace(ctx context.Context, records []*entity.RecipeRecord) error
	All(ctx context.Context) ([]*entity.RecipeRecord, error)
	Get(ctx context.Context, id string) (*entity.RecipeRecord, error)
	Count(ctx context.Context) (int64, error)
}

type CatalogService struct {
	store BundleScanner
	repo  RecordRepository
	log   *slog.Logger
}

func NewCatalogService(store BundleScanner, repo RecordRepository, log *slog.Logger) *CatalogService {
	return &CatalogService{
		store: store,
		repo:  repo,
		log:   log.With(slog.String("item", "CatalogService")),
	}
}

// Reindex rebuilds the catalog from the static bundle and returns the number
// of recipes found. Imported records survive the rebuild.
func (c *CatalogService) Reindex(ctx context.Context) (int, error) {
	records, err := c.store.Scan(ctx)
	if err != nil {
		c.log.Error("Cannot scan", slog.Any("error", err))

		return 0, fmt.Errorf("cannot scan recipe bundle: %w", err)
	}

	if len(records) < 1 {
		c.log.Error("Cannot find recipes in bundle")

		return 0, common.ErrNoValidRecipesError
	}

	c.log.Info("Scanned bundle", slog.Int("count", len(records)))

	if err := c.repo.Replace(ctx, records); err != nil {
		c.log.Error("Cannot save scanned records", slog.Any("error", err))

		return 0, fmt.Errorf("cannot save scanned records: %w", err)
	}

	return len(records), nil
}

// EnsureSeeded runs an initial reindex when the record store is empty, so a
// fresh deployment serves the bundle catalog without manual action.
func (c *CatalogService) EnsureSeeded(ctx context.Context) error {
	count, err := c.repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("cannot count records: %w", err)
	}

	if count > 0 {
		return nil
	}

	c.log.Info("Record store is empty, seeding from bundle")

	if _, err := c.Reindex(ctx); err != nil {
		return err
	}

	return nil
}

// List returns the catalog sorted by title, filtered by the query when one
// is given. The query matches title, category and keywords.
func (c *CatalogService) List(ctx context.Context, query string) ([]*entity.RecipeRecord, error) {
	records, err := c.repo.All(ctx)
	if err != nil {
		c.log.Error("Cannot get records", slog.Any("error", err))

		return nil, fmt.Errorf("cannot get records: %w", err)
	}

	records = filterRecords(records, query)
	sort.Slice(records, func(i, j int) bool {
		return records[i].Title < records[j].Title
	})

	return records, nil
}

func (c *CatalogService) Get(ctx context.Context, id string) (*entity.RecipeRecord, error) {
	rec, err := c.repo.Get(ctx, id)
	if err != nil {
		c.log.Error("Cannot get recipe", slog.String("recipe_id", id), slog.Any("error", err))

		return nil, fmt.Errorf("cannot get recipe %s: %w", id, err)
	}

	return rec, nil
}

func filterRecords(records []*entity.RecipeRecord, query string) []*entity.RecipeRecord {
	query = strings.TrimSpace(strings.ToLower(query))
	if query == "" {
		return records
	}

	filtered := make([]*entity.RecipeRecord, 0, len(records))
	for _, rec := range records {
		if matchesQuery(rec, query) {
			filtered = append(filtered, rec)
		}
	}

	return filtered
}

func matchesQuery(rec *entity.RecipeRecord, query string) bool {
	if strings.Contains(strings.ToLower(rec.Title), query) {
		return true
	}

	if strings.Contains(strings.ToLower(rec.Category), query) {
		return true
	}

	for _, keyword := range rec.Keywords {
		if strings.Contains(strings.ToLower(keyword), query) {
			return true
		}
	}

	return false
}
