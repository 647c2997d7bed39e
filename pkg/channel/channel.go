// Package channel contains the delivery adapters that turn a domain event
// into one channel-specific wire request and classify the result as a single
// normalized attempt. No channel-specific response shape leaks past an
// adapter, and no adapter failure propagates as an error: everything is
// folded into the Attempt it returns.
package channel

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// Event is one domain occurrence to be delivered. It is immutable once
// constructed and passed by value into adapters.
type Event struct {
	Type       string         `json:"type"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{Type: eventType, Data: data, OccurredAt: time.Now().UTC()}
}

// Status classifies the result of one delivery attempt.
type Status string

const (
	// StatusSuccess means a response with a success status was received.
	StatusSuccess Status = "success"
	// StatusHTTPError means the endpoint responded with a non-success status.
	StatusHTTPError Status = "http_error"
	// StatusTransportError means the endpoint could not be reached at all
	// (timeout, connection refused, DNS failure).
	StatusTransportError Status = "transport_error"
)

// Attempt is the normalized record of one delivery attempt against one
// integration. Adapters leave Number at zero; the delivery worker assigns
// it when appending to the attempt log. Attempts are never mutated after
// they are appended.
type Attempt struct {
	IntegrationID string    `json:"integration_id"`
	Number        int       `json:"number"`
	Status        Status    `json:"status"`
	StatusCode    int       `json:"status_code,omitempty"`
	Error         string    `json:"error,omitempty"`
	Response      string    `json:"response,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Success reports whether the attempt succeeded.
func (a Attempt) Success() bool {
	return a.Status == StatusSuccess
}

// Adapter turns an event into one channel-specific request and classifies
// the outcome. Implementations must never panic or return errors past this
// boundary; every failure mode becomes an Attempt so the delivery worker's
// control flow is uniform across channels.
type Adapter interface {
	// Name returns the channel identifier the adapter serves.
	Name() integration.Channel

	// Attempt performs one delivery attempt. Multi-destination channels
	// (email, messaging) fan out internally and fold per-destination
	// results into the single returned attempt.
	Attempt(ctx context.Context, in integration.Integration, ev Event) Attempt
}

// settings holds the shared HTTP knobs for adapter constructors.
type settings struct {
	client  *http.Client
	timeout time.Duration
}

func defaultSettings() *settings {
	return &settings{
		client:  defaultHTTPClient(),
		timeout: 10 * time.Second,
	}
}

// Option configures an adapter's HTTP behavior.
type Option func(*settings)

// WithHTTPClient sets a custom HTTP client, useful for proxies or testing.
func WithHTTPClient(client *http.Client) Option {
	return func(s *settings) {
		if client != nil {
			s.client = client
		}
	}
}

// WithTimeout sets the per-attempt request timeout. It bounds a hung
// endpoint so a single integration cannot stall a whole dispatch.
func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}
