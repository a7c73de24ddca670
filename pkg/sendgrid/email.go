// Package sendgrid sends transactional mail through the SendGrid API.
package sendgrid

import (
	"context"
	"fmt"

	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService interface {
	Send(ctx context.Context, to, subject, body string) error
}

type emailService struct {
	client    *sg.Client
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return &emailService{
		client:    sg.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *emailService) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
