package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/park63/lead-intake/pkg/logging"
)

// EmailSender defines the interface for sending emails. Implementations
// can be swapped (SendGrid, SMTP, stub) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender creates a SendGrid email sender, or nil when no API
// key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Park 63 Sales"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender logs instead of sending. Used in tests and when email is
// disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	s.logger.Info("stub email sender: would send", "to", msg.To, "subject", msg.Subject)
	return nil
}

// EmailSink notifies the sales team about each new lead through an
// EmailSender.
type EmailSink struct {
	sender     EmailSender
	recipients []string
	logger     *logging.Logger
}

// NewEmailSink creates a sink that mails every recipient per lead.
func NewEmailSink(sender EmailSender, recipients []string, logger *logging.Logger) *EmailSink {
	if sender == nil {
		panic("notify: email sender required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EmailSink{sender: sender, recipients: recipients, logger: logger}
}

// NotifyLead mails the redacted summary to each recipient. One failed
// recipient does not stop the rest.
func (s *EmailSink) NotifyLead(ctx context.Context, summary LeadSummary) error {
	subject := fmt.Sprintf("New site enquiry - %s", summary.Name)
	body := fmt.Sprintf(`A new enquiry has come in.

Name: %s
Phone: %s
Source: %s
Received: %s
`, summary.Name, summary.Phone, summary.Source, summary.CreatedAt.Format("January 2, 2006 at 3:04 PM"))

	var failed int
	for _, recipient := range s.recipients {
		if err := s.sender.Send(ctx, EmailMessage{To: recipient, Subject: subject, Body: body}); err != nil {
			s.logger.Error("notify: lead email failed", "error", err, "to", recipient)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("notify: %d lead email(s) failed", failed)
	}
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
	_ Sink        = (*EmailSink)(nil)
)
