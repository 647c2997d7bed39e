package email

import "errors"

var (
	ErrInvalidConfig  = errors.New("invalid email configuration")
	ErrInvalidMessage = errors.New("invalid email message")
	ErrSendFailed     = errors.New("failed to send email")
	ErrRemoteRejected = errors.New("email rejected by provider")
)

// IsRemoteRejection reports whether the provider received the request but
// refused it, as opposed to a transport-level failure reaching the provider.
func IsRemoteRejection(err error) bool {
	return errors.Is(err, ErrRemoteRejected)
}
