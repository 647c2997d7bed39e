package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

// PgStorage implements Storage on PostgreSQL. The claim and the terminal
// transitions are conditional updates guarded by the current status, which
// makes them atomic against overlapping drain passes without any advisory
// locking.
type PgStorage struct {
	pool *pgxpool.Pool
}

// NewPgStorage creates a Postgres-backed job store.
func NewPgStorage(pool *pgxpool.Pool) (*PgStorage, error) {
	if pool == nil {
		return nil, errors.New("pgx pool cannot be nil")
	}
	return &PgStorage{pool: pool}, nil
}

// CreateJob inserts a new pending job.
func (s *PgStorage) CreateJob(ctx context.Context, j *Job) error {
	if j == nil {
		return ErrJobNil
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_jobs (id, event_type, payload, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		j.ID, j.EventType, j.Payload, j.Status, j.Error, j.CreatedAt, j.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("job with ID %s already exists", j.ID)
	}
	return err
}

// GetJob returns the job by id.
func (s *PgStorage) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, event_type, payload, status, error, created_at, updated_at
		FROM notification_jobs
		WHERE id = $1`, id)

	j, err := scanJob(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return j, nil
}

// ListPending returns pending jobs oldest first.
func (s *PgStorage) ListPending(ctx context.Context) ([]*Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, event_type, payload, status, error, created_at, updated_at
		FROM notification_jobs
		WHERE status = $1
		ORDER BY created_at ASC`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, j)
	}
	return pending, rows.Err()
}

// ClaimJob transitions pending → processing with a status-guarded update.
func (s *PgStorage) ClaimJob(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusPending, StatusProcessing, nil, ErrJobNotClaimable)
}

// CompleteJob transitions processing → sent.
func (s *PgStorage) CompleteJob(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusProcessing, StatusSent, nil, ErrInvalidTransition)
}

// FailJob transitions processing → failed and records the error message.
func (s *PgStorage) FailJob(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return s.transition(ctx, id, StatusProcessing, StatusFailed, &errorMsg, ErrInvalidTransition)
}

// transition performs a conditional status update. Zero rows affected means
// either the job is gone or it is not in the expected state; the two are
// told apart with a follow-up existence check.
func (s *PgStorage) transition(ctx context.Context, id uuid.UUID, from, to Status, errorMsg *string, notInState error) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notification_jobs
		SET status = $1, error = COALESCE($2, error), updated_at = $3
		WHERE id = $4 AND status = $5`,
		to, errorMsg, time.Now().UTC(), id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM notification_jobs WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrJobNotFound
	}
	return notInState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	if err := row.Scan(&j.ID, &j.EventType, &j.Payload, &j.Status, &j.Error, &j.CreatedAt, &j.UpdatedAt); err != nil {
		return nil, err
	}
	return &j, nil
}
