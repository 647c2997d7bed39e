package channel

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// pushTemplateID is the notification template every push delivery is keyed
// by. The push provider resolves presentation from this id plus the merge
// fields in the payload.
const pushTemplateID = "event-notification"

// PushAdapter delivers events through a third-party push/notification API.
// Credentials (client id and secret) come from the integration settings,
// with the event data as a fallback, and authenticate the request with a
// basic-auth header.
type PushAdapter struct {
	settings *settings
}

// NewPushAdapter creates a push notification adapter.
func NewPushAdapter(opts ...Option) *PushAdapter {
	s := defaultSettings()
	for _, opt := range opts {
		opt(s)
	}
	return &PushAdapter{settings: s}
}

func (a *PushAdapter) Name() integration.Channel {
	return integration.ChannelPush
}

// Attempt builds the provider payload (template id, user identifier, merge
// fields) and posts it to the integration endpoint.
func (a *PushAdapter) Attempt(ctx context.Context, in integration.Integration, ev Event) Attempt {
	clientID := settingOrEventField(in, ev, integration.SettingClientID)
	clientSecret := settingOrEventField(in, ev, integration.SettingClientSecret)
	if clientID == "" || clientSecret == "" {
		return failedAttempt(in.ID, "push credentials not configured")
	}

	userID := settingOrEventField(in, ev, integration.SettingUserID)

	payload := map[string]any{
		"template_id": pushTemplateID,
		"user_id":     userID,
		"merge_fields": map[string]string{
			"title":        eventField(ev, "title", humanTitle(ev.Type)),
			"body":         eventField(ev, "message", fmt.Sprintf("Event %q occurred", ev.Type)),
			"redirect_url": eventField(ev, "redirect_url", ""),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return failedAttempt(in.ID, fmt.Sprintf("failed to marshal payload: %v", err))
	}

	auth := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Basic " + auth,
	}
	for k, v := range in.Headers {
		headers[k] = v
	}

	return httpCall(ctx, a.settings, in.ID, http.MethodPost, in.Endpoint, headers, body)
}

// settingOrEventField prefers the integration setting and falls back to a
// string field of the same name in the event data.
func settingOrEventField(in integration.Integration, ev Event, key string) string {
	if v := in.Setting(key); v != "" {
		return v
	}
	return eventField(ev, key, "")
}

// eventField extracts a string field from the event data.
func eventField(ev Event, key, fallback string) string {
	if v, ok := ev.Data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
