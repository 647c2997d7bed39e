package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// MessagingAdapter delivers events as WhatsApp-style chat messages through
// an instance-scoped messaging API. It fans out internally, one request per
// destination phone number, and folds per-destination results into the
// single attempt it returns, mirroring the email adapter.
type MessagingAdapter struct {
	settings *settings
}

// NewMessagingAdapter creates a messaging adapter.
func NewMessagingAdapter(opts ...Option) *MessagingAdapter {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return &MessagingAdapter{settings: s}
}

func (a *MessagingAdapter) Name() integration.Channel {
	return integration.ChannelWhatsApp
}

// Attempt composes the instance-scoped chat endpoint, renders the fixed
// text body from event fields, and sends it to each configured destination.
func (a *MessagingAdapter) Attempt(ctx context.Context, in integration.Integration, ev Event) Attempt {
	instanceID := in.Setting(integration.SettingInstanceID)
	token := in.Setting(integration.SettingAPIToken)
	if instanceID == "" || token == "" {
		return failedAttempt(in.ID, "messaging credentials not configured")
	}

	destinations := in.SettingList(integration.SettingDestinations)
	if len(destinations) == 0 {
		return failedAttempt(in.ID, "no destinations configured")
	}

	endpoint := fmt.Sprintf("%s/%s/messages/chat", strings.TrimRight(in.Endpoint, "/"), instanceID)
	message := renderTextBody(ev)
	headers := map[string]string{"Content-Type": "application/json"}

	parts := make([]Attempt, 0, len(destinations))
	for _, dest := range destinations {
		phone := normalizePhone(dest)
		if phone == "" {
			parts = append(parts, failedAttempt(in.ID, fmt.Sprintf("destination %q has no digits", dest)))
			continue
		}

		body, err := json.Marshal(map[string]string{
			"token": token,
			"to":    phone,
			"body":  message,
		})
		if err != nil {
			parts = append(parts, failedAttempt(in.ID, fmt.Sprintf("failed to marshal payload: %v", err)))
			continue
		}

		parts = append(parts, httpCall(ctx, a.settings, in.ID, http.MethodPost, endpoint, headers, body))
	}

	return fold(in.ID, parts, fmt.Sprintf("delivered to %d destinations", len(destinations)))
}

// normalizePhone strips every non-digit character from a destination number.
func normalizePhone(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
