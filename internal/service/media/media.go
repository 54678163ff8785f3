package media

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"recipevault/internal/common"
	"recipevault/internal/entity"
	"recipevault/internal/recipe"
)

const (
	serviceName = "media"
)

type BlobStore interface {
	GetImage(ctx context.Context, key string) ([]byte, error)
	GetJSONFile(ctx context.Context, name string) ([]byte, error)
}

type BundleAssets interface {
	RecordAsset(recordID string, relativePath string) ([]byte, error)
}

type resolverFunc func(ctx context.Context, recordID, relativePath string) ([]byte, error)

// mediaService resolves record attachments through an ordered chain: the
// editable blob store first, since it holds user-added and replaced content,
// then the read-only static bundle. The first hit wins, misses fall through.
type mediaService struct {
	blobs  BlobStore
	bundle BundleAssets
	chain  []resolverFunc
	log    *slog.Logger
}

func NewMediaService(blobs BlobStore, bundle BundleAssets, log *slog.Logger) *mediaService {
	s := &mediaService{
		blobs:  blobs,
		bundle: bundle,
		log:    log.With(slog.String("service", serviceName)),
	}
	s.chain = []resolverFunc{s.fromBlobStore, s.fromBundle}

	return s
}

// Resolve returns the content of one attachment of a record, or
// ErrAttachmentNotFoundError when no location has it. Resolver failures other
// than a plain miss are logged and treated as misses.
func (s *mediaService) Resolve(ctx context.Context, recordID, relativePath string) ([]byte, error) {
	for _, resolve := range s.chain {
		data, err := resolve(ctx, recordID, relativePath)
		if err != nil {
			if !errors.Is(err, common.ErrAttachmentNotFoundError) {
				s.log.Debug("Resolver failed",
					slog.String("recipe_id", recordID), slog.String("path", relativePath), slog.Any("error", err))
			}

			continue
		}

		return data, nil
	}

	return nil, common.ErrAttachmentNotFoundError
}

// Images are stored under their attachment key, executable definitions under
// their full file name.
func (s *mediaService) fromBlobStore(ctx context.Context, recordID, relativePath string) ([]byte, error) {
	name := path.Base(relativePath)

	if strings.HasPrefix(relativePath, entity.ArchiveExecutablesDir+"/") {
		return s.blobs.GetJSONFile(ctx, name)
	}

	return s.blobs.GetImage(ctx, recipe.AttachmentKey(name))
}

func (s *mediaService) fromBundle(ctx context.Context, recordID, relativePath string) ([]byte, error) {
	return s.bundle.RecordAsset(recordID, relativePath)
}
