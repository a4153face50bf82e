package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// ErrFailedToSend wraps any Postmark delivery failure.
var ErrFailedToSend = errors.New("failed to send email")

// postmarkAPI is the subset of the Postmark client used here; a seam for tests.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// PostmarkSender sends verification emails through the Postmark transactional
// API.
type PostmarkSender struct {
	client postmarkAPI
	from   string
}

// NewPostmarkSender constructs a sender. Both tokens and the sender address
// are required; missing values are a configuration error.
func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if serverToken == "" || accountToken == "" {
		return nil, errors.New("postmark tokens are required")
	}
	if from == "" {
		return nil, errors.New("sender email is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

// SendVerification delivers the confirmation message to the given address.
func (s *PostmarkSender) SendVerification(ctx context.Context, to string, link string) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       to,
		Subject:  "Confirm your email address",
		HTMLBody: fmt.Sprintf(`<p>Follow the link to confirm your email: <a href="%s">%s</a></p>`, link, link),
		Tag:      "email-verification",
	})
	if err != nil {
		return errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSend, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
