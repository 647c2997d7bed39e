package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// WebhookAdapter delivers events to generic HTTP endpoints. The event is
// forwarded as-is inside a small envelope identifying the integration.
type WebhookAdapter struct {
	settings *settings
}

// NewWebhookAdapter creates a webhook adapter.
func NewWebhookAdapter(opts ...Option) *WebhookAdapter {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return &WebhookAdapter{settings: s}
}

func (a *WebhookAdapter) Name() integration.Channel {
	return integration.ChannelWebhook
}

// Attempt posts the event envelope to the integration endpoint using the
// integration's method and headers. Integration headers override the
// default content-type.
func (a *WebhookAdapter) Attempt(ctx context.Context, in integration.Integration, ev Event) Attempt {
	envelope := map[string]any{
		"event":     ev.Type,
		"timestamp": ev.OccurredAt.UTC().Format(time.RFC3339),
		"data":      ev.Data,
		"integration": map[string]string{
			"id":   in.ID,
			"name": in.Name,
		},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return failedAttempt(in.ID, fmt.Sprintf("failed to marshal payload: %v", err))
	}

	method := in.Method
	if method == "" {
		method = http.MethodPost
	}

	headers := map[string]string{"Content-Type": "application/json"}
	for k, v := range in.Headers {
		headers[k] = v
	}

	return httpCall(ctx, a.settings, in.ID, method, in.Endpoint, headers, body)
}
