package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"recipevault/internal/common"
)

const (
	KeyImages    = "img" // HASH. attachment key -> binary content
	KeyJSONFiles = "jf"  // HASH. file name -> executable definition JSON

	imageKeyPrefix = "img"
	shortIDLen     = 4
)

// blobRepository is the editable attachment store: images keyed by their
// attachment key, executable definitions keyed by full file name. Content
// restored by imports and uploaded by users lands here; the static bundle
// stays untouched.
type blobRepository struct {
	cl  *redis.Client
	log *slog.Logger
}

func NewBlobRepository(cl *redis.Client, log *slog.Logger) *blobRepository {
	return &blobRepository{
		cl:  cl,
		log: log.With(slog.String("item", "BlobRepository")),
	}
}

func (r *blobRepository) GetImage(ctx context.Context, key string) ([]byte, error) {
	data, err := r.cl.HGet(ctx, KeyImages, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrAttachmentNotFoundError
		}

		return nil, fmt.Errorf("cannot get image %s: %w", key, err)
	}

	return data, nil
}

func (r *blobRepository) StoreImage(ctx context.Context, key string, data []byte) error {
	if err := r.cl.HSet(ctx, KeyImages, key, data).Err(); err != nil {
		return fmt.Errorf("cannot store image %s: %w", key, err)
	}

	return nil
}

func (r *blobRepository) GetJSONFile(ctx context.Context, name string) ([]byte, error) {
	data, err := r.cl.HGet(ctx, KeyJSONFiles, name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrAttachmentNotFoundError
		}

		return nil, fmt.Errorf("cannot get json file %s: %w", name, err)
	}

	return data, nil
}

func (r *blobRepository) StoreJSONFile(ctx context.Context, name string, data []byte) error {
	if err := r.cl.HSet(ctx, KeyJSONFiles, name, data).Err(); err != nil {
		return fmt.Errorf("cannot store json file %s: %w", name, err)
	}

	return nil
}

// MintImageKey allocates a fresh attachment key for an uploaded image,
// unix timestamp plus a short random suffix.
func (r *blobRepository) MintImageKey() string {
	return fmt.Sprintf("%s_%d_%s", imageKeyPrefix, time.Now().Unix(), uuid.NewString()[:shortIDLen])
}
