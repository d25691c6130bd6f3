package mailer

import (
	"bytes"
	"context"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/pkg/config"
	appErrors "github.com/openvol/portal-api/pkg/errors"
)

// Message is a single outbound email with an optional calendar attachment.
type Message struct {
	To      string
	Subject string
	Body    string
	ICS     []byte
}

// Mailer sends email. Implementations must not retry on failure.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer delivers mail over SMTP with mandatory STARTTLS.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTP constructs an SMTPMailer.
func NewSMTP(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send delivers a single message. A missing SMTP configuration is reported
// as ErrSMTPNotConfigured so callers can surface it instead of a generic
// connection failure.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.cfg.Ready() {
		return appErrors.ErrSMTPNotConfigured
	}

	out := gomail.NewMsg()
	if err := out.From(m.cfg.FromEmail); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSMTPSend.Code, appErrors.ErrSMTPSend.Status, "invalid from address")
	}
	if err := out.To(msg.To); err != nil {
		return appErrors.Wrap(err, appErrors.ErrSMTPSend.Code, appErrors.ErrSMTPSend.Status, "invalid recipient address")
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	if len(msg.ICS) > 0 {
		if err := out.AttachReader("event.ics", bytes.NewReader(msg.ICS),
			gomail.WithFileContentType(gomail.ContentType("text/calendar"))); err != nil {
			return appErrors.Wrap(err, appErrors.ErrSMTPSend.Code, appErrors.ErrSMTPSend.Status, "failed to attach calendar invite")
		}
	}

	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.User),
		gomail.WithPassword(m.cfg.Pass),
		gomail.WithTLSPolicy(gomail.TLSMandatory),
		gomail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrSMTPSend.Code, appErrors.ErrSMTPSend.Status, "failed to build SMTP client")
	}

	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Warn("smtp send failed", zap.String("to", msg.To), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrSMTPSend.Code, appErrors.ErrSMTPSend.Status, "failed to send email")
	}

	m.logger.Debug("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
