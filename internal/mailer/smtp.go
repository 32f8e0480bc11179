package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/types"
)

const smtpAuthHint = "check SMTP_USER and the app password in SMTP_PASS; Gmail accounts need an app password, not the login password"

// SMTPMailer sends the digest over SMTP with mandatory STARTTLS and PLAIN auth.
type SMTPMailer struct {
	cfg    *config.MailConfig
	logger *slog.Logger
}

// NewSMTPMailer creates an SMTP mailer for cfg.
func NewSMTPMailer(cfg *config.MailConfig, logger *slog.Logger) *SMTPMailer {
	return &SMTPMailer{
		cfg:    cfg,
		logger: logger.With("component", "smtp_mailer"),
	}
}

// Mode returns ModeSMTP.
func (m *SMTPMailer) Mode() Mode { return ModeSMTP }

// Send implements Mailer.
func (m *SMTPMailer) Send(ctx context.Context, subject, text, html string) error {
	msg, err := m.message(subject, text, html)
	if err != nil {
		return &types.MailError{Transport: string(ModeSMTP), Err: err}
	}

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithTimeout(m.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.SMTPUser),
		mail.WithPassword(m.cfg.SMTPPass),
	)
	if err != nil {
		return &types.MailError{Transport: string(ModeSMTP), Err: fmt.Errorf("create client: %w", err)}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if isAuthFailure(err) {
			return &types.MailError{
				Transport: string(ModeSMTP),
				Hint:      smtpAuthHint,
				Err:       fmt.Errorf("%w: %v", types.ErrAuthRejected, err),
			}
		}
		return &types.MailError{Transport: string(ModeSMTP), Err: err}
	}

	m.logger.Info("digest sent", "host", m.cfg.SMTPHost, "recipients", len(m.cfg.To))
	return nil
}

func (m *SMTPMailer) message(subject, text, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return msg, nil
}

// isAuthFailure reports whether err is the server refusing the credentials
// rather than a connection or protocol failure.
func isAuthFailure(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	if authReplyRe.MatchString(msg) {
		return true
	}
	for _, marker := range []string{"authentication failed", "username and password not accepted"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// authReplyRe matches an auth reply code at the start of an SMTP reply,
// either at the start of the message or after a "prefix: " wrapper.
var authReplyRe = regexp.MustCompile(`(?:^|:\s)53[045][ -]`)
