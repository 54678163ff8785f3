package ops

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"recipevault/internal/common"
	"recipevault/internal/entity"
)

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBeginAndSnapshot(t *testing.T) {
	r := newTestRegistry()

	id, _, _ := r.Begin("export")
	require.True(t, strings.HasPrefix(id, "export-"))

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	require.Equal(t, id, snap.ID)
	require.Equal(t, "export", snap.Kind)
	require.False(t, snap.Done)
	require.Empty(t, snap.Error)
}

func TestProgressUpdates(t *testing.T) {
	r := newTestRegistry()

	id, progress, _ := r.Begin("import")
	progress(entity.NewProgress("Importing recipe-a", 1, 4))

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	require.Equal(t, "Importing recipe-a", snap.Progress.Step)
	require.Equal(t, 25, snap.Progress.Percentage)
}

func TestFinish(t *testing.T) {
	r := newTestRegistry()

	id, _, finish := r.Begin("export")
	finish(nil)

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	require.True(t, snap.Done)
	require.Empty(t, snap.Error)
}

func TestFinishWithError(t *testing.T) {
	r := newTestRegistry()

	id, _, finish := r.Begin("import")
	finish(fmt.Errorf("no valid recipes found"))

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	require.True(t, snap.Done)
	require.Equal(t, "no valid recipes found", snap.Error)
}

func TestSnapshotUnknownOperation(t *testing.T) {
	r := newTestRegistry()

	_, err := r.Snapshot("export-unknown")
	require.True(t, errors.Is(err, common.ErrOperationNotFoundError))
}

func TestPruneDropsFinishedOperations(t *testing.T) {
	r := newTestRegistry()

	for i := 0; i < maxOperations; i++ {
		_, _, finish := r.Begin("export")
		finish(nil)
	}

	// The registry is full, beginning one more evicts a finished op instead
	// of growing.
	id, _, _ := r.Begin("export")
	require.Len(t, r.ops, maxOperations)

	snap, err := r.Snapshot(id)
	require.NoError(t, err)
	require.False(t, snap.Done)
}
