package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/dispatch"
	"github.com/google/uuid"
)

// Drainer re-delivers durably queued jobs. One pass lists every pending
// job oldest first, claims each, dispatches it, and records the terminal
// status. Jobs another pass already moved to processing are skipped, so
// overlapping drains never double-deliver.
type Drainer struct {
	storage    Storage
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// DrainerOption configures a Drainer.
type DrainerOption func(*Drainer)

// WithDrainerLogger sets the structured logger.
func WithDrainerLogger(logger *slog.Logger) DrainerOption {
	return func(d *Drainer) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDrainer creates a drainer over the given storage and dispatcher.
func NewDrainer(storage Storage, dispatcher *dispatch.Dispatcher, opts ...DrainerOption) (*Drainer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	if dispatcher == nil {
		return nil, ErrDispatcherNil
	}

	d := &Drainer{
		storage:    storage,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// JobResult records what one drain pass did with one job.
type JobResult struct {
	ID     uuid.UUID `json:"id"`
	Status Status    `json:"status"`
	Error  string    `json:"error,omitempty"`
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Processed int         `json:"processed"`
	Results   []JobResult `json:"results"`
}

// Drain runs one pass over the pending jobs. Storage failures abort the
// whole pass and are returned, since job-state integrity cannot be
// guaranteed past them. Dispatch failures do not abort the pass; they only
// decide that job's terminal status.
func (d *Drainer) Drain(ctx context.Context) (DrainResult, error) {
	pending, err := d.storage.ListPending(ctx)
	if err != nil {
		return DrainResult{}, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	result := DrainResult{Results: make([]JobResult, 0, len(pending))}
	for _, j := range pending {
		if err := d.storage.ClaimJob(ctx, j.ID); err != nil {
			// Claimed by a concurrent pass between list and claim; leave it
			// to that pass.
			if errors.Is(err, ErrJobNotClaimable) {
				d.logger.DebugContext(ctx, "job already claimed, skipping",
					slog.String("job_id", j.ID.String()))
				continue
			}
			return result, fmt.Errorf("failed to claim job %s: %w", j.ID, err)
		}

		ev := channel.Event{
			Type:       j.EventType,
			Data:       j.Payload,
			OccurredAt: j.CreatedAt,
		}
		summary := d.dispatcher.Dispatch(ctx, ev)

		jr := JobResult{ID: j.ID}
		if summary.Failed == 0 {
			if err := d.storage.CompleteJob(ctx, j.ID); err != nil {
				return result, fmt.Errorf("failed to mark job %s as sent: %w", j.ID, err)
			}
			jr.Status = StatusSent
		} else {
			jr.Error = summary.FirstError()
			if err := d.storage.FailJob(ctx, j.ID, jr.Error); err != nil {
				return result, fmt.Errorf("failed to mark job %s as failed: %w", j.ID, err)
			}
			jr.Status = StatusFailed
		}

		result.Processed++
		result.Results = append(result.Results, jr)

		d.logger.InfoContext(ctx, "job drained",
			slog.String("job_id", j.ID.String()),
			slog.String("event_type", j.EventType),
			slog.String("status", string(jr.Status)))
	}

	return result, nil
}
