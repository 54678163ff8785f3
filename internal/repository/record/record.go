package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"recipevault/internal/common"
	"recipevault/internal/entity"
)

const (
	KeyVersion1      = "v1"
	KeyVersion2      = "v2"
	KeyActiveVersion = "av" // STRING.
	KeyRecipeMap     = "rm" // HASH. recipe_map:ver recipe_id -> recipe JSON
	KeyViewStats     = "vs" // HASH. recipe_id -> share page view counter
	KeyUniqueViewer  = "vw" // STRING. Viewer dedup, SETNX with TTL.

	KeyEmpty     = ""
	KeySeparator = ":"

	defaultViewerExpiration = 24 * time.Hour
)

// recordRepository keeps the recipe catalog in redis under versioned keys.
// A reindex writes the new catalog to the standby version and flips the
// active version pointer afterwards, so readers never observe a half-written
// catalog.
type recordRepository struct {
	ver atomic.Value
	cl  *redis.Client
	log *slog.Logger
}

func NewRecordRepository(cl *redis.Client, log *slog.Logger) (*recordRepository, error) {
	repo := &recordRepository{
		cl:  cl,
		log: log.With(slog.String("item", "RecordRepository")),
	}

	ver, _, err := repo.getVersions(context.Background())
	if err != nil {
		return nil, fmt.Errorf("cannot get active version: %w", err)
	}

	repo.ver.Store(ver)

	return repo, nil
}

// Replace installs the scanned bundle catalog as the new active version.
// Records that exist only in the store (imported ones) are carried over;
// for ids present in both, the bundle copy wins.
func (r *recordRepository) Replace(ctx context.Context, records []*entity.RecipeRecord) error {
	verActive, verStandby, err := r.getVersions(ctx)
	if err != nil {
		r.log.Error("Cannot get standby data version")

		return fmt.Errorf("cannot get active version: %w", err)
	}
	r.log.Info("Save new catalog", slog.String("active_version", verActive), slog.String("standby_version", verStandby))

	if err := r.clearOldData(ctx, verStandby); err != nil {
		r.log.Error("Cannot clear old data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot clear old data: %w", err)
	}

	if err := r.saveNewData(ctx, verStandby, records); err != nil {
		r.log.Error("Cannot save new data", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot save new data: %w", err)
	}

	keep := make(map[string]struct{}, len(records))
	for _, rec := range records {
		keep[rec.ID] = struct{}{}
	}

	carried, err := r.carryOverLocalRecords(ctx, verActive, verStandby, keep)
	if err != nil {
		r.log.Error("Cannot carry over local records", slog.Any("error", err))

		return fmt.Errorf("cannot carry over local records: %w", err)
	}
	for _, id := range carried {
		keep[id] = struct{}{}
	}

	if _, err := r.cl.Set(ctx, KeyActiveVersion, verStandby, 0).Result(); err != nil {
		r.log.Error("Cannot switch to new version", slog.String("version", verStandby), slog.Any("error", err))

		return fmt.Errorf("cannot switch to new version: %w", err)
	}

	r.ver.Store(verStandby)

	if err := r.clearDeletedViewCounters(ctx, keep); err != nil {
		r.log.Error("Cannot clear stale view counters", slog.Any("error", err))

		return fmt.Errorf("cannot clear stale view counters: %w", err)
	}

	return nil
}

// Save upserts records into the active version. Used by imports, which merge
// into the catalog instead of replacing it.
func (r *recordRepository) Save(ctx context.Context, records []*entity.RecipeRecord) error {
	key := getKey(KeyRecipeMap, r.getActiveVersion())

	pipe := r.cl.Pipeline()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("cannot marshal recipe %s: %w", rec.ID, err)
		}

		pipe.HSet(ctx, key, rec.ID, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save records: %w", err)
	}

	return nil
}

func (r *recordRepository) All(ctx context.Context) ([]*entity.RecipeRecord, error) {
	recipeMap, err := r.cl.HGetAll(ctx, getKey(KeyRecipeMap, r.getActiveVersion())).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get recipe map: %w", err)
	}

	records := make([]*entity.RecipeRecord, 0, len(recipeMap))
	for id, data := range recipeMap {
		var rec entity.RecipeRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			r.log.Error("Cannot unmarshal stored recipe", slog.String("recipe_id", id), slog.Any("error", err))

			continue
		}

		records = append(records, &rec)
	}

	return records, nil
}

func (r *recordRepository) Get(ctx context.Context, id string) (*entity.RecipeRecord, error) {
	data, err := r.cl.HGet(ctx, getKey(KeyRecipeMap, r.getActiveVersion()), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRecipeNotFoundError
		}

		return nil, fmt.Errorf("cannot get recipe %s: %w", id, err)
	}

	var rec entity.RecipeRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("cannot unmarshal recipe %s: %w", id, err)
	}

	return &rec, nil
}

func (r *recordRepository) Count(ctx context.Context) (int64, error) {
	count, err := r.cl.HLen(ctx, getKey(KeyRecipeMap, r.getActiveVersion())).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot count records: %w", err)
	}

	return count, nil
}

// ViewerSeen reports whether the viewer already hit a share page within the
// dedup window, marking the viewer as seen as a side effect.
func (r *recordRepository) ViewerSeen(ctx context.Context, viewerID string) (bool, error) {
	res, err := r.cl.SetNX(ctx, getKey(KeyUniqueViewer, viewerID), "1", defaultViewerExpiration).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check viewer exists: %w", err)
	}

	return !res, nil
}

func (r *recordRepository) IncViewCounter(ctx context.Context, recipeID string) (int64, error) {
	counter, err := r.cl.HIncrBy(ctx, KeyViewStats, recipeID, 1).Result()
	if err != nil {
		return 0, fmt.Errorf("cannot increment recipe %s view counter: %w", recipeID, err)
	}

	return counter, nil
}

func (r *recordRepository) GetViewCounter(ctx context.Context, recipeID string) (int64, error) {
	counter, err := r.cl.HGet(ctx, KeyViewStats, recipeID).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("cannot get recipe %s view counter: %w", recipeID, err)
	}

	return counter, nil
}

func (r *recordRepository) saveNewData(ctx context.Context, ver string, records []*entity.RecipeRecord) error {
	log := r.log.With(slog.String("op", "saveNewData"), slog.String("version", ver))
	log.Info("Save new data", slog.Int("count", len(records)))

	key := getKey(KeyRecipeMap, ver)

	pipe := r.cl.Pipeline()
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("cannot marshal recipe %s: %w", rec.ID, err)
		}

		pipe.HSet(ctx, key, rec.ID, data)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cannot save new data: %w", err)
	}

	return nil
}

func (r *recordRepository) clearOldData(ctx context.Context, ver string) error {
	log := r.log.With(slog.String("op", "clearOldData"), slog.String("version", ver))

	key := getKey(KeyRecipeMap, ver)
	log.Info("Clear keys", slog.String("key", key))

	if _, err := r.cl.Del(ctx, key).Result(); err != nil {
		return fmt.Errorf("error deleting keys: %w", err)
	}

	return nil
}

// carryOverLocalRecords copies records absent from the scanned set into the
// standby version, returning the carried recipe ids.
func (r *recordRepository) carryOverLocalRecords(ctx context.Context, verActive, verStandby string, scanned map[string]struct{}) ([]string, error) {
	current, err := r.cl.HGetAll(ctx, getKey(KeyRecipeMap, verActive)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get current recipe map: %w", err)
	}

	var carried []string

	pipe := r.cl.Pipeline()
	for id, data := range current {
		if _, exists := scanned[id]; exists {
			continue
		}

		pipe.HSet(ctx, getKey(KeyRecipeMap, verStandby), id, data)
		carried = append(carried, id)
	}

	if len(carried) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("cannot carry over records: %w", err)
		}
	}

	return carried, nil
}

// clearDeletedViewCounters drops view counters of recipes that left the
// catalog, so the stats hash does not grow without bound.
func (r *recordRepository) clearDeletedViewCounters(ctx context.Context, keep map[string]struct{}) error {
	fields, err := r.cl.HKeys(ctx, KeyViewStats).Result()
	if err != nil {
		return fmt.Errorf("error scanning view counters: %w", err)
	}

	var stale []string
	for _, id := range fields {
		if _, exists := keep[id]; !exists {
			stale = append(stale, id)
		}
	}

	if len(stale) > 0 {
		if _, err := r.cl.HDel(ctx, KeyViewStats, stale...).Result(); err != nil {
			return fmt.Errorf("cannot delete stale view counters: %w", err)
		}

		r.log.Info("Cleared stale view counters", slog.Int("count", len(stale)))
	}

	return nil
}

/*
getVersions return active and standby versions
*/
func (r *recordRepository) getVersions(ctx context.Context) (string, string, error) {
	ver, err := r.cl.Get(ctx, KeyActiveVersion).Result()
	if err != nil && err != redis.Nil {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot get active version: %w", err)
	}

	switch ver {
	case KeyVersion1:
		return KeyVersion1, KeyVersion2, nil
	case KeyVersion2:
		return KeyVersion2, KeyVersion1, nil
	}

	r.log.Info("Active version key is not found. Try to set new one", slog.String("version", KeyVersion1))

	if _, err = r.cl.Set(ctx, KeyActiveVersion, KeyVersion1, 0).Result(); err != nil {
		return KeyEmpty, KeyEmpty, fmt.Errorf("cannot set version key: %w", err)
	}

	return KeyVersion1, KeyVersion2, nil
}

func (r *recordRepository) getActiveVersion() string {
	return r.ver.Load().(string)
}

func getKey(keys ...string) string {
	return strings.Join(keys, KeySeparator)
}
