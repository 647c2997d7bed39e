package integration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

func TestIntegration_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      integration.Integration
		wantErr error
	}{
		{
			name: "valid webhook",
			in: integration.Integration{
				Name: "hook", Channel: integration.ChannelWebhook,
				Endpoint: "https://example.com/hook",
			},
		},
		{
			name:    "missing name",
			in:      integration.Integration{Channel: integration.ChannelWebhook},
			wantErr: integration.ErrMissingName,
		},
		{
			name:    "unknown channel",
			in:      integration.Integration{Name: "x", Channel: "carrier-pigeon"},
			wantErr: integration.ErrUnknownChannel,
		},
		{
			name:    "webhook without endpoint",
			in:      integration.Integration{Name: "x", Channel: integration.ChannelWebhook},
			wantErr: integration.ErrMissingEndpoint,
		},
		{
			name: "webhook with ftp endpoint",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelWebhook,
				Endpoint: "ftp://example.com/hook",
			},
			wantErr: integration.ErrInvalidEndpoint,
		},
		{
			// Credentials may travel in the event data, so their absence from
			// the settings is not a configuration error.
			name: "push without settings credentials is valid",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelPush,
				Endpoint: "https://push.example.com",
			},
		},
		{
			name: "push with credentials",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelPush,
				Endpoint: "https://push.example.com",
				Settings: map[string]string{
					integration.SettingClientID:     "id",
					integration.SettingClientSecret: "secret",
				},
			},
		},
		{
			name:    "push without endpoint",
			in:      integration.Integration{Name: "x", Channel: integration.ChannelPush},
			wantErr: integration.ErrMissingEndpoint,
		},
		{
			name: "whatsapp without token",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelWhatsApp,
				Endpoint: "https://msg.example.com",
				Settings: map[string]string{integration.SettingInstanceID: "inst_1"},
			},
			wantErr: integration.ErrMissingCredentials,
		},
		{
			name: "whatsapp without destinations",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelWhatsApp,
				Endpoint: "https://msg.example.com",
				Settings: map[string]string{
					integration.SettingInstanceID:   "inst_1",
					integration.SettingAPIToken:     "tok",
					integration.SettingDestinations: " , ",
				},
			},
			wantErr: integration.ErrMissingDestinations,
		},
		{
			name: "whatsapp fully configured",
			in: integration.Integration{
				Name: "x", Channel: integration.ChannelWhatsApp,
				Endpoint: "https://msg.example.com",
				Settings: map[string]string{
					integration.SettingInstanceID:   "inst_1",
					integration.SettingAPIToken:     "tok",
					integration.SettingDestinations: "15550100001",
				},
			},
		},
		{
			name: "email without recipients is valid",
			in:   integration.Integration{Name: "x", Channel: integration.ChannelEmail},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.in.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestIntegration_SettingList(t *testing.T) {
	t.Parallel()

	in := integration.Integration{
		Settings: map[string]string{
			integration.SettingRecipients: " a@example.com ,, ,b@example.com",
		},
	}

	assert.Equal(t, []string{"a@example.com", "b@example.com"},
		in.SettingList(integration.SettingRecipients))
	assert.Nil(t, in.SettingList(integration.SettingDestinations))
}
