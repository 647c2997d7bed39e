package job

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements Storage in memory for tests and local
// development. All transitions hold the mutex, which gives ClaimJob the
// same atomic pending-guard the SQL implementation gets from a conditional
// update.
type MemoryStorage struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStorage creates an empty in-memory job store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{jobs: make(map[uuid.UUID]*Job)}
}

// CreateJob inserts a new pending job.
func (ms *MemoryStorage) CreateJob(ctx context.Context, j *Job) error {
	if j == nil {
		return ErrJobNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, exists := ms.jobs[j.ID]; exists {
		return fmt.Errorf("job with ID %s already exists", j.ID)
	}

	// Clone to prevent external mutation of stored state.
	stored := *j
	ms.jobs[j.ID] = &stored
	return nil
}

// GetJob returns a copy of the job by id.
func (ms *MemoryStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	stored, ok := ms.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	j := *stored
	return &j, nil
}

// ListPending returns pending jobs ordered by creation time ascending.
func (ms *MemoryStorage) ListPending(ctx context.Context) ([]*Job, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var pending []*Job
	for _, stored := range ms.jobs {
		if stored.Status == StatusPending {
			j := *stored
			pending = append(pending, &j)
		}
	}
	sort.Slice(pending, func(i, k int) bool {
		return pending[i].CreatedAt.Before(pending[k].CreatedAt)
	})
	return pending, nil
}

// ClaimJob transitions pending → processing under the lock.
func (ms *MemoryStorage) ClaimJob(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored, ok := ms.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if stored.Status != StatusPending {
		return ErrJobNotClaimable
	}

	stored.Status = StatusProcessing
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

// CompleteJob transitions processing → sent.
func (ms *MemoryStorage) CompleteJob(ctx context.Context, id uuid.UUID) error {
	return ms.finish(id, StatusSent, nil)
}

// FailJob transitions processing → failed with the error message.
func (ms *MemoryStorage) FailJob(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return ms.finish(id, StatusFailed, &errorMsg)
}

func (ms *MemoryStorage) finish(id uuid.UUID, terminal Status, errorMsg *string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	stored, ok := ms.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if stored.Status != StatusProcessing {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, stored.Status, terminal)
	}

	stored.Status = terminal
	stored.Error = errorMsg
	stored.UpdatedAt = time.Now().UTC()
	return nil
}
