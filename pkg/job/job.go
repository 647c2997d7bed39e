// Package job persists notification jobs in a durable queue and drains
// pending jobs through the dispatcher. A job's status only ever advances
// pending → processing → {sent | failed}; terminal states are never
// revisited automatically.
package job

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a notification job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status is one a job never leaves
// automatically. Re-processing a terminal job requires an external
// re-enqueue.
func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Job is one durably queued notification awaiting delivery.
type Job struct {
	ID        uuid.UUID      `json:"id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Status    Status         `json:"status"`
	Error     *string        `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewJob creates a pending job for the given event.
func NewJob(eventType string, payload map[string]any) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
