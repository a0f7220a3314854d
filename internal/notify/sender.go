package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/wolfman30/outreach-ai-platform/pkg/logging"
)

// EmailMessage is one outbound email.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// EmailSender delivers an EmailMessage.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// From is the sender identity.
type From struct {
	Email string
	Name  string
}

func (f From) withDefaults() From {
	if f.Name == "" {
		f.Name = DefaultFromName
	}
	return f
}

// Address renders `Name <email>`.
func (f From) Address() string {
	return fmt.Sprintf("%s <%s>", f.Name, f.Email)
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key.
func NewSendGridSender(apiKey string, from From, logger *logging.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{client: sendgrid.NewSendClient(apiKey), from: from.withDefaults(), logger: logger}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: sendgrid not configured")
	}
	html := msg.HTML
	if html == "" {
		html = msg.Text
	}
	message := mail.NewSingleEmail(mail.NewEmail(s.from.Name, s.from.Email), msg.Subject, mail.NewEmail("", msg.To), msg.Text, html)
	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Warn("sendgrid rejected email", "status", resp.StatusCode, "body", resp.Body)
		return fmt.Errorf("notify: sendgrid status %d", resp.StatusCode)
	}
	s.logger.Info("booking email sent", "provider", "sendgrid", "to", msg.To, "status", resp.StatusCode)
	return nil
}

// SESAPI is the part of the SES v2 client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES.
type SESSender struct {
	client SESAPI
	from   From
	logger *logging.Logger
}

// NewSESSender returns nil without a client or sender address.
func NewSESSender(client SESAPI, from From, logger *logging.Logger) *SESSender {
	if client == nil || from.Email == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: from.withDefaults(), logger: logger}
}

func utf8(s string) *types.Content {
	return &types.Content{Data: aws.String(s), Charset: aws.String("UTF-8")}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return errors.New("notify: ses not configured")
	}
	body := &types.Body{}
	if msg.Text != "" {
		body.Text = utf8(msg.Text)
	}
	if msg.HTML != "" {
		body.Html = utf8(msg.HTML)
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.Address()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8(msg.Subject), Body: body},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses send: %w", err)
	}
	s.logger.Info("booking email sent", "provider", "ses", "to", msg.To, "message_id", aws.ToString(out.MessageId))
	return nil
}

// LogSender only logs. It stands in when no provider is configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("email provider not configured, booking email logged only", "to", msg.To, "subject", msg.Subject)
	return nil
}

// SenderConfig selects the outbound email provider.
type SenderConfig struct {
	Provider       string // "sendgrid", "ses" or "" for auto
	SendGridAPIKey string
	SendGridFrom   From
	SESFrom        From
}

// NewEmailSender prefers SendGrid when it has a key, then SES, then LogSender.
func NewEmailSender(cfg SenderConfig, ses SESAPI, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.Provider {
	case "sendgrid":
		if s := NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFrom, logger); s != nil {
			return s
		}
		logger.Warn("notify: sendgrid selected without api key, email disabled")
	case "ses":
		if s := NewSESSender(ses, cfg.SESFrom, logger); s != nil {
			return s
		}
		logger.Warn("notify: ses selected without client or sender, email disabled")
	default:
		if s := NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFrom, logger); s != nil {
			return s
		}
		if s := NewSESSender(ses, cfg.SESFrom, logger); s != nil {
			return s
		}
	}
	return NewLogSender(logger)
}
