package job

import (
	"context"

	"github.com/google/uuid"
)

// Storage is the durable queue the drainer works against. Implementations
// must make ClaimJob an atomic conditional transition so two overlapping
// drain passes can never both claim the same pending job.
type Storage interface {
	// CreateJob inserts a new pending job.
	CreateJob(ctx context.Context, j *Job) error

	// GetJob returns the job by id, or ErrJobNotFound.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// ListPending returns every pending job ordered by creation time
	// ascending, oldest first.
	ListPending(ctx context.Context) ([]*Job, error)

	// ClaimJob transitions pending → processing, guarded by the current
	// status. Returns ErrJobNotClaimable when the job is not pending.
	ClaimJob(ctx context.Context, id uuid.UUID) error

	// CompleteJob transitions processing → sent.
	CompleteJob(ctx context.Context, id uuid.UUID) error

	// FailJob transitions processing → failed and records the error message.
	FailJob(ctx context.Context, id uuid.UUID, errorMsg string) error
}
