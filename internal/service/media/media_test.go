package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"recipevault/internal/common"
)

type fakeBlobStore struct {
	images map[string][]byte
	jsons  map[string][]byte
}

func (f *fakeBlobStore) GetImage(_ context.Context, key string) ([]byte, error) {
	data, exists := f.images[key]
	if !exists {
		return nil, common.ErrAttachmentNotFoundError
	}

	return data, nil
}

func (f *fakeBlobStore) GetJSONFile(_ context.Context, name string) ([]byte, error) {
	data, exists := f.jsons[name]
	if !exists {
		return nil, common.ErrAttachmentNotFoundError
	}

	return data, nil
}

type fakeBundle struct {
	assets map[string][]byte // recordID + "/" + relativePath
}

func (f *fakeBundle) RecordAsset(recordID string, relativePath string) ([]byte, error) {
	data, exists := f.assets[recordID+"/"+relativePath]
	if !exists {
		return nil, common.ErrAttachmentNotFoundError
	}

	return data, nil
}

func newTestService(blobs *fakeBlobStore, bundle *fakeBundle) *mediaService {
	if blobs == nil {
		blobs = &fakeBlobStore{}
	}
	if bundle == nil {
		bundle = &fakeBundle{}
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewMediaService(blobs, bundle, log)
}

func TestResolveBlobStoreWins(t *testing.T) {
	s := newTestService(
		&fakeBlobStore{images: map[string][]byte{"img_1_ab12": []byte("from-blob")}},
		&fakeBundle{assets: map[string][]byte{"recipe-a/images/img_1_ab12_shot.png": []byte("from-bundle")}},
	)

	data, err := s.Resolve(context.Background(), "recipe-a", "images/img_1_ab12_shot.png")
	require.NoError(t, err)
	require.Equal(t, []byte("from-blob"), data)
}

func TestResolveFallsBackToBundle(t *testing.T) {
	s := newTestService(
		nil,
		&fakeBundle{assets: map[string][]byte{"recipe-a/images/img_1_ab12_shot.png": []byte("from-bundle")}},
	)

	data, err := s.Resolve(context.Background(), "recipe-a", "images/img_1_ab12_shot.png")
	require.NoError(t, err)
	require.Equal(t, []byte("from-bundle"), data)
}

func TestResolveMiss(t *testing.T) {
	s := newTestService(nil, nil)

	_, err := s.Resolve(context.Background(), "recipe-a", "images/gone.png")
	require.True(t, errors.Is(err, common.ErrAttachmentNotFoundError))
}

func TestResolveExecutableUsesFullFileName(t *testing.T) {
	s := newTestService(
		&fakeBlobStore{jsons: map[string][]byte{"executable.json": []byte(`{"name": "exec"}`)}},
		nil,
	)

	data, err := s.Resolve(context.Background(), "recipe-a", "downloadExecutables/executable.json")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"name": "exec"}`), data)
}

func TestResolveImageUsesAttachmentKey(t *testing.T) {
	// The stored key is only the first three underscore segments of the
	// file name, so a renamed file still resolves.
	s := newTestService(
		&fakeBlobStore{images: map[string][]byte{"img_1690000000_ab12": []byte("keyed")}},
		nil,
	)

	data, err := s.Resolve(context.Background(), "recipe-a", "images/img_1690000000_ab12_renamed_copy.png")
	require.NoError(t, err)
	require.Equal(t, []byte("keyed"), data)
}
