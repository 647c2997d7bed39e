package job

import "errors"

var (
	// ErrJobNil is returned when a nil job is passed to storage.
	ErrJobNil = errors.New("job cannot be nil")

	// ErrJobNotFound is returned when the job id does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotClaimable is returned when a claim targets a job that is no
	// longer pending, typically because a concurrent drain pass got there
	// first.
	ErrJobNotClaimable = errors.New("job is not in pending status")

	// ErrInvalidTransition is returned when a status update would skip or
	// reverse the pending → processing → {sent|failed} lifecycle.
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrStorageNil is returned when a drainer is created without storage.
	ErrStorageNil = errors.New("job storage cannot be nil")

	// ErrDispatcherNil is returned when a drainer is created without a dispatcher.
	ErrDispatcherNil = errors.New("dispatcher cannot be nil")
)
