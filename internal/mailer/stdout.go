package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// StdoutMailer prints the subject and text body instead of sending. The
// HTML body is not printed.
type StdoutMailer struct {
	out io.Writer
}

// NewStdoutMailer creates a mailer that writes to out.
func NewStdoutMailer(out io.Writer) *StdoutMailer {
	return &StdoutMailer{out: out}
}

// Mode returns ModeStdout.
func (m *StdoutMailer) Mode() Mode { return ModeStdout }

// Send implements Mailer.
func (m *StdoutMailer) Send(ctx context.Context, subject, text, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(m.out, "Subject: %s\n%s\n\n%s", subject, strings.Repeat("=", len([]rune(subject))+9), text)
	return err
}
