package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopsift/shopsift-api/config"
)

// OutboundEmail is a reply ready for delivery
type OutboundEmail struct {
	FromName  string
	FromEmail string
	To        string
	ReplyTo   string
	Subject   string
	Body      string
}

// Mailer delivers outbound replies
type Mailer interface {
	Send(ctx context.Context, email OutboundEmail) error
}

// SendGridMailer delivers through the SendGrid v3 mail API
type SendGridMailer struct {
	client *sendgrid.Client
}

var mailerInstance Mailer

// NewSendGridMailer creates a mailer for apiKey
func NewSendGridMailer(apiKey string) *SendGridMailer {
	return &SendGridMailer{client: sendgrid.NewSendClient(apiKey)}
}

// InitMailer installs the SendGrid mailer when an API key is configured
func InitMailer(cfg *config.Config) Mailer {
	if cfg.SendGridAPIKey == "" {
		mailerInstance = nil
		return nil
	}
	mailerInstance = NewSendGridMailer(cfg.SendGridAPIKey)
	return mailerInstance
}

// GetMailer returns the process mailer, nil when not configured
func GetMailer() Mailer {
	return mailerInstance
}

// SetMailer sets the mailer instance (primarily for testing)
func SetMailer(m Mailer) {
	mailerInstance = m
}

// ReplySubject prefixes "Re: " unless the subject already has it
func ReplySubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if len(subject) >= 3 && strings.EqualFold(subject[:3], "re:") {
		return subject
	}
	return "Re: " + subject
}

func (m *SendGridMailer) Send(ctx context.Context, email OutboundEmail) error {
	from := mail.NewEmail(email.FromName, email.FromEmail)
	to := mail.NewEmail("", email.To)
	message := mail.NewSingleEmail(from, email.Subject, to, email.Body, "")
	if email.ReplyTo != "" {
		message.SetReplyTo(mail.NewEmail("", email.ReplyTo))
	}

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
