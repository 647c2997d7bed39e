package channel_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

func webhookIntegration(endpoint string) integration.Integration {
	return integration.Integration{
		ID: "in_hook", Name: "crm-hook", Channel: integration.ChannelWebhook,
		Endpoint: endpoint, Enabled: true, Events: []string{"signup"},
	}
}

func TestWebhookAdapter_Attempt_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var envelope map[string]any
		require.NoError(t, json.Unmarshal(body, &envelope))
		assert.Equal(t, "signup", envelope["event"])
		assert.Equal(t, map[string]any{"id": "in_hook", "name": "crm-hook"}, envelope["integration"])
		assert.Equal(t, map[string]any{"email": "new@example.com"}, envelope["data"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"received":true}`))
	}))
	defer server.Close()

	adapter := channel.NewWebhookAdapter()
	ev := channel.NewEvent("signup", map[string]any{"email": "new@example.com"})

	attempt := adapter.Attempt(context.Background(), webhookIntegration(server.URL), ev)

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.True(t, attempt.Success())
	assert.Equal(t, http.StatusOK, attempt.StatusCode)
	assert.Contains(t, attempt.Response, "received")
	assert.Empty(t, attempt.Error)
}

func TestWebhookAdapter_Attempt_HTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	adapter := channel.NewWebhookAdapter()
	attempt := adapter.Attempt(context.Background(), webhookIntegration(server.URL),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusHTTPError, attempt.Status)
	assert.Equal(t, http.StatusInternalServerError, attempt.StatusCode)
	assert.Contains(t, attempt.Error, "status 500")
	assert.Contains(t, attempt.Error, "boom")
}

func TestWebhookAdapter_Attempt_TransportError(t *testing.T) {
	t.Parallel()

	adapter := channel.NewWebhookAdapter()
	attempt := adapter.Attempt(context.Background(),
		webhookIntegration("http://127.0.0.1:1/unreachable"),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusTransportError, attempt.Status)
	assert.Zero(t, attempt.StatusCode)
	assert.NotEmpty(t, attempt.Error)
}

func TestWebhookAdapter_Attempt_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	adapter := channel.NewWebhookAdapter(channel.WithTimeout(20 * time.Millisecond))
	attempt := adapter.Attempt(context.Background(), webhookIntegration(server.URL),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusTransportError, attempt.Status)
	assert.Contains(t, attempt.Error, "timed out")
}

func TestWebhookAdapter_Attempt_HeaderOverrides(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/vnd.custom+json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret-token", r.Header.Get("X-Api-Key"))
		assert.Equal(t, http.MethodPut, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	in := webhookIntegration(server.URL)
	in.Method = http.MethodPut
	in.Headers = map[string]string{
		"Content-Type": "application/vnd.custom+json",
		"X-Api-Key":    "secret-token",
	}

	attempt := channel.NewWebhookAdapter().Attempt(context.Background(), in,
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
}

func TestWebhookAdapter_Attempt_ResponseExcerptBounded(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("x", 5000)))
	}))
	defer server.Close()

	attempt := channel.NewWebhookAdapter().Attempt(context.Background(),
		webhookIntegration(server.URL), channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.LessOrEqual(t, len(attempt.Response), 203) // 200 chars + ellipsis
	assert.True(t, strings.HasSuffix(attempt.Response, "..."))
}

func TestWebhookAdapter_Attempt_ExcerptKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// 3-byte runes that do not divide the excerpt limit evenly, so a naive
	// byte cut would land mid-rune.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(strings.Repeat("€", 300)))
	}))
	defer server.Close()

	attempt := channel.NewWebhookAdapter().Attempt(context.Background(),
		webhookIntegration(server.URL), channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.True(t, utf8.ValidString(attempt.Response))
	assert.True(t, strings.HasSuffix(attempt.Response, "..."))
}
