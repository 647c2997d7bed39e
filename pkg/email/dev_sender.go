package email

import (
	"context"
	"log/slog"
)

// DevSender implements Sender for local development. It logs messages
// instead of sending them through an email provider and never fails,
// so delivery flows can be exercised without Postmark credentials.
type DevSender struct {
	logger *slog.Logger
}

// NewDevSender creates a development email sender that logs messages.
func NewDevSender(logger *slog.Logger) *DevSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DevSender{logger: logger}
}

// Send logs the message and reports success.
func (d *DevSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	d.logger.InfoContext(ctx, "dev email sender: message not delivered",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("tag", msg.Tag),
		slog.Int("body_bytes", len(msg.BodyHTML)))
	return nil
}
