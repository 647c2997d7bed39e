package api

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/dispatch"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// DispatchRequest is the body of POST /dispatch. Integrations are optional;
// when omitted the server's configured registry is used.
type DispatchRequest struct {
	EventType    string                    `json:"event_type"`
	EventData    map[string]any            `json:"event_data,omitempty"`
	Integrations []integration.Integration `json:"integrations,omitempty"`
	RetryConfig  *RetryConfig              `json:"retry_config,omitempty"`
}

// RetryConfig overrides the server's default retry policy for one dispatch.
type RetryConfig struct {
	MaxRetries        int     `json:"max_retries"`
	RetryDelaySeconds float64 `json:"retry_delay_seconds"`
}

// Policy converts the wire retry config into a dispatch policy.
func (c RetryConfig) Policy() dispatch.RetryPolicy {
	return dispatch.RetryPolicy{
		MaxRetries: c.MaxRetries,
		RetryDelay: time.Duration(c.RetryDelaySeconds * float64(time.Second)),
	}
}

// Validate checks the request at the boundary so input errors are reported
// synchronously, before any delivery attempt is made.
func (r DispatchRequest) Validate() error {
	if r.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	for _, in := range r.Integrations {
		if err := in.Validate(); err != nil {
			return fmt.Errorf("integration %q: %w", in.Name, err)
		}
	}
	if c := r.RetryConfig; c != nil {
		if c.MaxRetries < 0 {
			return fmt.Errorf("retry_config.max_retries must be >= 0")
		}
		if c.RetryDelaySeconds < 0 {
			return fmt.Errorf("retry_config.retry_delay_seconds must be >= 0")
		}
	}
	return nil
}

// EnqueueRequest is the body of POST /jobs.
type EnqueueRequest struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data,omitempty"`
}

// Validate checks the enqueue request.
func (r EnqueueRequest) Validate() error {
	if r.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	return nil
}
