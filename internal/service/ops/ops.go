package ops

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"recipevault/internal/common"
	"recipevault/internal/entity"
)

const (
	serviceName = "ops"

	maxOperations = 256
)

// Registry tracks long-running pack/unpack operations in memory so clients
// can poll their progress. Handlers begin an operation before starting the
// work and hand the returned callbacks down; the registry itself never
// influences the operation outcome.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*entity.OperationSnapshot
	log *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		ops: make(map[string]*entity.OperationSnapshot),
		log: log.With(slog.String("service", serviceName)),
	}
}

// Begin registers a new operation and returns its id, a progress callback
// and a finish callback. Both callbacks are safe for concurrent use.
func (r *Registry) Begin(kind string) (string, entity.ProgressFunc, func(error)) {
	id := generateOperationID(kind)

	r.mu.Lock()
	r.pruneLocked()
	r.ops[id] = &entity.OperationSnapshot{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now().UTC(),
	}
	r.mu.Unlock()

	r.log.Info("Operation started", slog.String("operation_id", id))

	progress := func(p entity.Progress) {
		r.mu.Lock()
		defer r.mu.Unlock()

		if op, exists := r.ops[id]; exists {
			op.Progress = p
		}
	}

	finish := func(err error) {
		r.mu.Lock()
		if op, exists := r.ops[id]; exists {
			op.Done = true
			if err != nil {
				op.Error = err.Error()
			}
		}
		r.mu.Unlock()

		if err != nil {
			r.log.Error("Operation failed", slog.String("operation_id", id), slog.Any("error", err))

			return
		}

		r.log.Info("Operation finished", slog.String("operation_id", id))
	}

	return id, progress, finish
}

func (r *Registry) Snapshot(id string) (entity.OperationSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	op, exists := r.ops[id]
	if !exists {
		return entity.OperationSnapshot{}, common.ErrOperationNotFoundError
	}

	return *op, nil
}

// pruneLocked drops the oldest finished operation once the registry is full.
// Callers must hold the write lock.
func (r *Registry) pruneLocked() {
	if len(r.ops) < maxOperations {
		return
	}

	var oldest *entity.OperationSnapshot
	for _, op := range r.ops {
		if !op.Done {
			continue
		}

		if oldest == nil || op.StartedAt.Before(oldest.StartedAt) {
			oldest = op
		}
	}

	if oldest != nil {
		delete(r.ops, oldest.ID)
	}
}

func generateOperationID(kind string) string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf("%s-%d", kind, time.Now().UnixNano())
	}

	return fmt.Sprintf("%s-%s", kind, id.String())
}
