// Package mailer delivers a composed digest through SMTP, the SendGrid v3
// API or standard output.
package mailer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/IshaanNene/planewatch/internal/config"
)

// Mode names a delivery transport.
type Mode string

const (
	ModeSMTP     Mode = "smtp"
	ModeSendGrid Mode = "sendgrid"
	ModeStdout   Mode = "stdout"
)

// Mailer sends one digest message.
type Mailer interface {
	// Send delivers a message with a plain-text body and, when html is
	// non-empty, an HTML alternative of the same content.
	Send(ctx context.Context, subject, text, html string) error

	// Mode returns the transport name.
	Mode() Mode
}

// New builds the mailer selected by cfg.Mode. Stdout output goes to out,
// or os.Stdout when out is nil.
func New(cfg *config.MailConfig, out io.Writer, logger *slog.Logger) (Mailer, error) {
	switch Mode(cfg.Mode) {
	case ModeSMTP:
		return NewSMTPMailer(cfg, logger), nil
	case ModeSendGrid:
		return NewSendGridMailer(cfg, nil, logger), nil
	case ModeStdout, "":
		if out == nil {
			out = os.Stdout
		}
		return NewStdoutMailer(out), nil
	default:
		return nil, fmt.Errorf("unknown mail mode %q", cfg.Mode)
	}
}
