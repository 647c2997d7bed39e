package integration

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// Channel identifies the delivery mechanism an integration uses.
type Channel string

const (
	ChannelWebhook  Channel = "webhook"
	ChannelPush     Channel = "push"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

// Valid checks if the channel is one of the supported delivery mechanisms.
func (c Channel) Valid() bool {
	switch c {
	case ChannelWebhook, ChannelPush, ChannelEmail, ChannelWhatsApp:
		return true
	}
	return false
}

// Well-known settings keys. Channel adapters read their credentials and
// destination lists from Integration.Settings using these keys, so secrets
// travel with the integration configuration instead of being pulled from
// the process environment inside core logic.
const (
	SettingClientID     = "client_id"     // push: API client id
	SettingClientSecret = "client_secret" // push: API client secret
	SettingUserID       = "user_id"       // push: target user identifier
	SettingRecipients   = "recipients"    // email: comma-separated recipient addresses
	SettingInstanceID   = "instance_id"   // whatsapp: messaging instance identifier
	SettingAPIToken     = "api_token"     // whatsapp: messaging API token
	SettingDestinations = "destinations"  // whatsapp: comma-separated phone numbers
)

// Integration describes one configured outbound delivery target.
// Instances are immutable for the duration of a dispatch: the registry hands
// out copies by value and the core never mutates them.
type Integration struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Channel  Channel           `json:"channel"`
	Endpoint string            `json:"endpoint,omitempty"`
	Method   string            `json:"method,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Enabled  bool              `json:"enabled"`
	Events   []string          `json:"events"`
	Settings map[string]string `json:"settings,omitempty"`
}

// Subscribed reports whether the integration is subscribed to the event type.
func (i Integration) Subscribed(eventType string) bool {
	return slices.Contains(i.Events, eventType)
}

// Setting returns the trimmed settings value for key, or "" when unset.
func (i Integration) Setting(key string) string {
	return strings.TrimSpace(i.Settings[key])
}

// SettingList splits a comma-separated settings value into trimmed entries,
// dropping blanks. Used for recipient and destination lists.
func (i Integration) SettingList(key string) []string {
	var out []string
	for _, v := range strings.Split(i.Settings[key], ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate checks the fields a channel requires before any delivery attempt
// is made. Failures here are input errors: they are reported synchronously
// at the boundary and never enter the retry loop.
func (i Integration) Validate() error {
	if i.Name == "" {
		return ErrMissingName
	}
	if !i.Channel.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, i.Channel)
	}

	switch i.Channel {
	case ChannelWebhook:
		return validateEndpoint(i.Endpoint)
	case ChannelPush:
		// Push credentials may arrive in the event data instead of the
		// settings; the adapter resolves them at delivery time, so only the
		// endpoint is checked here.
		return validateEndpoint(i.Endpoint)
	case ChannelWhatsApp:
		if i.Setting(SettingInstanceID) == "" || i.Setting(SettingAPIToken) == "" {
			return fmt.Errorf("%w: whatsapp channel requires %s and %s settings",
				ErrMissingCredentials, SettingInstanceID, SettingAPIToken)
		}
		if len(i.SettingList(SettingDestinations)) == 0 {
			return fmt.Errorf("%w: whatsapp channel requires a non-empty %s setting",
				ErrMissingDestinations, SettingDestinations)
		}
		return validateEndpoint(i.Endpoint)
	case ChannelEmail:
		// An empty recipient list is valid: the adapter reports a synthetic
		// success instead of treating it as a delivery failure.
		return nil
	}
	return nil
}

// validateEndpoint restricts endpoints to http/https to prevent SSRF via
// integration configuration.
func validateEndpoint(endpoint string) error {
	if endpoint == "" {
		return ErrMissingEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidEndpoint)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidEndpoint)
	}
	return nil
}
