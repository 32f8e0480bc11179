package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/types"
)

const sendGridAuthHint = "check SENDGRID_API_KEY and that the key has the Mail Send permission"

// SendGridMailer sends the digest through the SendGrid v3 mail/send API.
type SendGridMailer struct {
	cfg    *config.MailConfig
	client *http.Client
	logger *slog.Logger
}

// NewSendGridMailer creates a SendGrid mailer. A nil client gets one with
// cfg.Timeout.
func NewSendGridMailer(cfg *config.MailConfig, client *http.Client, logger *slog.Logger) *SendGridMailer {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &SendGridMailer{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "sendgrid_mailer"),
	}
}

// Mode returns ModeSendGrid.
func (m *SendGridMailer) Mode() Mode { return ModeSendGrid }

type sgAddress struct {
	Email string `json:"email"`
}

type sgPersonalization struct {
	To []sgAddress `json:"to"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMessage struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// Send implements Mailer. SendGrid answers 202 Accepted on success.
func (m *SendGridMailer) Send(ctx context.Context, subject, text, html string) error {
	to := make([]sgAddress, 0, len(m.cfg.To))
	for _, addr := range m.cfg.To {
		to = append(to, sgAddress{Email: addr})
	}
	content := []sgContent{{Type: "text/plain", Value: text}}
	if html != "" {
		content = append(content, sgContent{Type: "text/html", Value: html})
	}
	payload, err := json.Marshal(sgMessage{
		Personalizations: []sgPersonalization{{To: to}},
		From:             sgAddress{Email: m.cfg.From},
		Subject:          subject,
		Content:          content,
	})
	if err != nil {
		return &types.MailError{Transport: string(ModeSendGrid), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.SendGridURL, bytes.NewReader(payload))
	if err != nil {
		return &types.MailError{Transport: string(ModeSendGrid), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.SendGridAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return &types.MailError{Transport: string(ModeSendGrid), Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusOK:
		m.logger.Info("digest sent", "recipients", len(to), "status", resp.StatusCode)
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &types.MailError{
			Transport: string(ModeSendGrid),
			Hint:      sendGridAuthHint,
			Err:       fmt.Errorf("%w: status %d", types.ErrAuthRejected, resp.StatusCode),
		}
	default:
		return &types.MailError{
			Transport: string(ModeSendGrid),
			Err:       fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
		}
	}
}
