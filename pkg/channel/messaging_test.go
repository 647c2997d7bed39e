package channel_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

func messagingIntegration(endpoint, destinations string) integration.Integration {
	return integration.Integration{
		ID: "in_wa", Name: "team-whatsapp", Channel: integration.ChannelWhatsApp,
		Endpoint: endpoint, Enabled: true, Events: []string{"signup"},
		Settings: map[string]string{
			integration.SettingInstanceID:   "inst_9",
			integration.SettingAPIToken:     "tok_123",
			integration.SettingDestinations: destinations,
		},
	}
}

func TestMessagingAdapter_Attempt_Success(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		payloads []map[string]string
		paths    []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var payload map[string]string
		require.NoError(t, json.Unmarshal(body, &payload))

		mu.Lock()
		payloads = append(payloads, payload)
		paths = append(paths, r.URL.Path)
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ev := channel.NewEvent("signup", map[string]any{"name": "Ada", "plan": "pro"})
	in := messagingIntegration(server.URL, "+1 (555) 010-0001, +1 (555) 010-0002")

	attempt := channel.NewMessagingAdapter().Attempt(context.Background(), in, ev)

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.Equal(t, "delivered to 2 destinations", attempt.Response)

	require.Len(t, payloads, 2)
	// Phone numbers are normalized to digits only.
	assert.Equal(t, "15550100001", payloads[0]["to"])
	assert.Equal(t, "15550100002", payloads[1]["to"])
	assert.Equal(t, "tok_123", payloads[0]["token"])
	// Fixed-format body: title line plus sorted key/value lines.
	assert.Equal(t, "New member signup\nname: Ada\nplan: pro", payloads[0]["body"])
	// Endpoint is composed from the instance id.
	assert.Equal(t, "/inst_9/messages/chat", paths[0])
}

func TestMessagingAdapter_Attempt_MissingCredentials(t *testing.T) {
	t.Parallel()

	in := messagingIntegration("https://msg.example.com", "15550100001")
	in.Settings[integration.SettingAPIToken] = ""

	attempt := channel.NewMessagingAdapter().Attempt(context.Background(), in,
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusTransportError, attempt.Status)
	assert.Contains(t, attempt.Error, "credentials not configured")
}

func TestMessagingAdapter_Attempt_NoDestinations(t *testing.T) {
	t.Parallel()

	in := messagingIntegration("https://msg.example.com", " , ")

	attempt := channel.NewMessagingAdapter().Attempt(context.Background(), in,
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusTransportError, attempt.Status)
	assert.Contains(t, attempt.Error, "no destinations configured")
}

func TestMessagingAdapter_Attempt_PartialFailureFolds(t *testing.T) {
	t.Parallel()

	var calls int
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("instance offline"))
	}))
	defer server.Close()

	in := messagingIntegration(server.URL, "15550100001,15550100002")

	attempt := channel.NewMessagingAdapter().Attempt(context.Background(), in,
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusHTTPError, attempt.Status)
	assert.Equal(t, http.StatusBadGateway, attempt.StatusCode)
	assert.Contains(t, attempt.Error, "instance offline")
	assert.Equal(t, 2, calls)
}
