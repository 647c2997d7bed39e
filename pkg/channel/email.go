package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
)

// EmailAdapter delivers events as transactional emails. It fans out
// internally, one send per configured recipient, and folds the per-recipient
// results into the single attempt it returns.
type EmailAdapter struct {
	sender email.Sender
}

// NewEmailAdapter creates an email adapter backed by the given sender.
func NewEmailAdapter(sender email.Sender) *EmailAdapter {
	return &EmailAdapter{sender: sender}
}

func (a *EmailAdapter) Name() integration.Channel {
	return integration.ChannelEmail
}

// Attempt renders the fixed HTML body from event fields and sends it to
// every non-blank recipient in the integration settings. An empty recipient
// list after filtering is reported as a single synthetic success, not as a
// delivery failure: nothing needed to be sent.
func (a *EmailAdapter) Attempt(ctx context.Context, in integration.Integration, ev Event) Attempt {
	recipients := in.SettingList(integration.SettingRecipients)
	if len(recipients) == 0 {
		return Attempt{
			IntegrationID: in.ID,
			Status:        StatusSuccess,
			Response:      "no recipients configured",
			Timestamp:     time.Now().UTC(),
		}
	}

	body, err := renderEmailBody(ev)
	if err != nil {
		return failedAttempt(in.ID, fmt.Sprintf("failed to render email body: %v", err))
	}
	subject := humanTitle(ev.Type)

	parts := make([]Attempt, 0, len(recipients))
	for _, to := range recipients {
		part := Attempt{IntegrationID: in.ID, Status: StatusSuccess, Timestamp: time.Now().UTC()}

		sendErr := a.sender.Send(ctx, email.Message{
			To:       to,
			Subject:  subject,
			BodyHTML: body,
			Tag:      ev.Type,
		})
		if sendErr != nil {
			part.Error = fmt.Sprintf("send to %s failed: %v", to, sendErr)
			if email.IsRemoteRejection(sendErr) {
				part.Status = StatusHTTPError
			} else {
				part.Status = StatusTransportError
			}
		}
		parts = append(parts, part)
	}

	return fold(in.ID, parts, fmt.Sprintf("delivered to %d recipients", len(recipients)))
}
