package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"

	"github.com/callkaidsroofing/lead-intake/pkg/logging"
)

type resendEmails interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// ResendSender sends emails through the Resend API.
type ResendSender struct {
	emails    resendEmails
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// ResendConfig holds configuration for Resend.
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewResendSender returns nil when no API key is configured.
func NewResendSender(cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if cfg.APIKey == "" {
		return nil
	}
	return newResendSender(resend.NewClient(cfg.APIKey).Emails, cfg, logger)
}

func newResendSender(emails resendEmails, cfg ResendConfig, logger *logging.Logger) *ResendSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &ResendSender{
		emails:    emails,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.emails == nil {
		return fmt.Errorf("notify: resend client not configured")
	}
	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Body,
		ReplyTo: msg.ReplyTo,
	}

	resp, err := s.emails.SendWithContext(ctx, params)
	if err != nil {
		s.logger.Error("resend send failed", "error", err, "to", msg.To)
		return fmt.Errorf("notify: resend send failed: %w", err)
	}

	id := ""
	if resp != nil {
		id = resp.Id
	}
	s.logger.Info("email sent via resend", "to", msg.To, "subject", msg.Subject, "message_id", id)
	return nil
}

var _ EmailSender = (*ResendSender)(nil)
