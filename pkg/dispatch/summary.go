package dispatch

import (
	"github.com/dmitrymomot/notifyhub/pkg/channel"
)

// Outcome is the final verdict for one integration within one dispatch,
// derived deterministically from its attempt log: Success is true iff any
// attempt succeeded, LastError is the final attempt's error when it did not.
type Outcome struct {
	IntegrationID string            `json:"integration_id"`
	Integration   string            `json:"integration"`
	Success       bool              `json:"success"`
	Attempts      []channel.Attempt `json:"attempts"`
	Response      string            `json:"response,omitempty"`
	LastError     string            `json:"error,omitempty"`
}

// AttemptCount returns the number of attempts made for the integration.
func (o Outcome) AttemptCount() int {
	return len(o.Attempts)
}

// Summary merges per-integration outcomes for one dispatch call. The
// outcome order is the registry selection order, independent of which
// integration's delivery finished first.
type Summary struct {
	EventType  string    `json:"event_type"`
	Outcomes   []Outcome `json:"outcomes"`
	Total      int       `json:"total"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
}

// newSummary aggregates outcomes into a summary with consistent counts.
func newSummary(eventType string, outcomes []Outcome) Summary {
	s := Summary{
		EventType: eventType,
		Outcomes:  outcomes,
		Total:     len(outcomes),
	}
	for _, o := range outcomes {
		if o.Success {
			s.Successful++
		}
	}
	s.Failed = s.Total - s.Successful
	return s
}

// FirstError returns the first failing integration's error text, or ""
// when every outcome succeeded. The queue drainer persists this as the
// job's error message.
func (s Summary) FirstError() string {
	for _, o := range s.Outcomes {
		if !o.Success {
			return o.LastError
		}
	}
	return ""
}
