package channel_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// fakeSender records sent messages and fails for addresses in failFor.
type fakeSender struct {
	mu      sync.Mutex
	sent    []email.Message
	failFor map[string]error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failFor[msg.To]; ok {
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func emailIntegration(recipients string) integration.Integration {
	return integration.Integration{
		ID: "in_email", Name: "staff-email", Channel: integration.ChannelEmail,
		Enabled: true, Events: []string{"signup"},
		Settings: map[string]string{integration.SettingRecipients: recipients},
	}
}

func TestEmailAdapter_Attempt_Success(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	adapter := channel.NewEmailAdapter(sender)

	ev := channel.NewEvent("signup", map[string]any{"name": "Ada", "email": "ada@example.com"})
	attempt := adapter.Attempt(context.Background(),
		emailIntegration("one@example.com, two@example.com"), ev)

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.Equal(t, "delivered to 2 recipients", attempt.Response)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, "one@example.com", sender.sent[0].To)
	assert.Equal(t, "two@example.com", sender.sent[1].To)
	assert.Equal(t, "New member signup", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].BodyHTML, "ada@example.com")
	assert.Equal(t, "signup", sender.sent[0].Tag)
}

func TestEmailAdapter_Attempt_BlankRecipientsSyntheticSuccess(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	adapter := channel.NewEmailAdapter(sender)

	// Blank-only recipient list: no network calls, yet not a failure.
	attempt := adapter.Attempt(context.Background(), emailIntegration(" ,  "),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusSuccess, attempt.Status)
	assert.Equal(t, "no recipients configured", attempt.Response)
	assert.Empty(t, sender.sent)
}

func TestEmailAdapter_Attempt_PartialFailureFolds(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failFor: map[string]error{
		"bad@example.com": errors.Join(email.ErrRemoteRejected, errors.New("postmark error: 300 - invalid recipient")),
	}}
	adapter := channel.NewEmailAdapter(sender)

	attempt := adapter.Attempt(context.Background(),
		emailIntegration("good@example.com, bad@example.com"),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusHTTPError, attempt.Status)
	assert.Contains(t, attempt.Error, "bad@example.com")
	assert.Contains(t, attempt.Error, "invalid recipient")
	// The good recipient was still attempted.
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "good@example.com", sender.sent[0].To)
}

func TestEmailAdapter_Attempt_TransportFailure(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failFor: map[string]error{
		"down@example.com": errors.Join(email.ErrSendFailed, errors.New("connection refused")),
	}}
	adapter := channel.NewEmailAdapter(sender)

	attempt := adapter.Attempt(context.Background(), emailIntegration("down@example.com"),
		channel.NewEvent("signup", nil))

	assert.Equal(t, channel.StatusTransportError, attempt.Status)
	assert.Contains(t, attempt.Error, "connection refused")
}
