// Package email delivers account emails, currently only the address
// confirmation message carrying a verification link.
package email

import (
	"context"
	"net/url"

	"github.com/dkravchuk/contactbook/internal/logging"
)

// Sender dispatches a verification email. Delivery failures are returned to
// the caller, never swallowed.
type Sender interface {
	SendVerification(ctx context.Context, to string, link string) error
}

// VerificationLink builds the confirmation URL sent to a new user. The token
// travels as a query parameter alongside the email it was issued for. The
// path keeps its trailing slash to match the route exactly.
func VerificationLink(baseURL string, email string, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath("confirm-email/")
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// DevSender logs verification links instead of sending them. Used when no
// Postmark credentials are configured.
type DevSender struct {
	logger logging.Logger
}

// NewDevSender constructs a log-only sender.
func NewDevSender(l logging.Logger) *DevSender {
	return &DevSender{logger: l.With("module", "email_dev_sender")}
}

func (s *DevSender) SendVerification(ctx context.Context, to string, link string) error {
	s.logger.Info(ctx, "verification email (dev mode, not sent)", "to", to, "link", link)
	return nil
}
