package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/IshaanNene/planewatch/internal/config"
	"github.com/IshaanNene/planewatch/internal/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sendGridConfig(url string) *config.MailConfig {
	cfg := config.DefaultConfig().Mail
	cfg.Mode = string(ModeSendGrid)
	cfg.SendGridURL = url
	cfg.SendGridAPIKey = "SG.test"
	cfg.From = "bot@example.com"
	cfg.To = []string{"a@example.com", "b@example.com"}
	return &cfg
}

// --- New Tests ---

func TestNewSelectsMode(t *testing.T) {
	tests := []struct {
		mode    string
		want    Mode
		wantErr bool
	}{
		{"smtp", ModeSMTP, false},
		{"sendgrid", ModeSendGrid, false},
		{"stdout", ModeStdout, false},
		{"", ModeStdout, false},
		{"pigeon", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := config.DefaultConfig().Mail
			cfg.Mode = tt.mode
			m, err := New(&cfg, io.Discard, testLogger())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if m.Mode() != tt.want {
				t.Errorf("expected mode %q, got %q", tt.want, m.Mode())
			}
		})
	}
}

// --- SendGrid Tests ---

func TestSendGridAccepted(t *testing.T) {
	var got sgMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer(sendGridConfig(srv.URL), srv.Client(), testLogger())
	if err := m.Send(context.Background(), "Aircraft classifieds: 2 new listings", "text body", "<p>html</p>"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if auth != "Bearer SG.test" {
		t.Errorf("unexpected Authorization %q", auth)
	}
	if got.From.Email != "bot@example.com" {
		t.Errorf("unexpected from %q", got.From.Email)
	}
	if len(got.Personalizations) != 1 || len(got.Personalizations[0].To) != 2 {
		t.Fatalf("expected 2 recipients, got %+v", got.Personalizations)
	}
	if len(got.Content) != 2 || got.Content[0].Type != "text/plain" || got.Content[1].Type != "text/html" {
		t.Errorf("unexpected content parts %+v", got.Content)
	}
}

func TestSendGridTextOnly(t *testing.T) {
	var got sgMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	m := NewSendGridMailer(sendGridConfig(srv.URL), srv.Client(), testLogger())
	if err := m.Send(context.Background(), "s", "text only", ""); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(got.Content) != 1 {
		t.Errorf("expected a single text part, got %d", len(got.Content))
	}
}

func TestSendGridAuthRejected(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		m := NewSendGridMailer(sendGridConfig(srv.URL), srv.Client(), testLogger())
		err := m.Send(context.Background(), "s", "t", "")
		srv.Close()

		if !types.IsAuthError(err) {
			t.Fatalf("status %d: expected auth error, got %v", status, err)
		}
		var mailErr *types.MailError
		if !errors.As(err, &mailErr) || mailErr.Hint == "" {
			t.Errorf("status %d: expected MailError with a hint, got %v", status, err)
		}
	}
}

func TestSendGridServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	m := NewSendGridMailer(sendGridConfig(srv.URL), srv.Client(), testLogger())
	err := m.Send(context.Background(), "s", "t", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if types.IsAuthError(err) {
		t.Error("a 400 must not be reported as an auth failure")
	}
	if !strings.Contains(err.Error(), "bad from") {
		t.Errorf("expected the response body in the error, got %v", err)
	}
}

// --- Stdout Tests ---

func TestStdoutMailer(t *testing.T) {
	var buf bytes.Buffer
	m := NewStdoutMailer(&buf)
	if err := m.Send(context.Background(), "Aircraft classifieds: 1 new listing", "New listings: 1\n", "<html></html>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "Subject: Aircraft classifieds: 1 new listing\n") {
		t.Errorf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "New listings: 1") {
		t.Errorf("expected text body, got %q", out)
	}
	if strings.Contains(out, "<html>") {
		t.Error("html body should not be printed")
	}
}

func TestStdoutMailerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if err := NewStdoutMailer(&buf).Send(ctx, "s", "t", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// --- SMTP Tests ---

func TestIsAuthFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"textproto 535", &textproto.Error{Code: 535, Msg: "5.7.8 rejected"}, true},
		{"wrapped 534", errors.Join(errors.New("SMTP AUTH failed"), &textproto.Error{Code: 534, Msg: "app password required"}), true},
		{"gmail text", errors.New("SMTP AUTH failed: 535 5.7.8 Username and Password not accepted"), true},
		{"bare reply", errors.New("535-5.7.8 Username rejected"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:587: connect: connection refused"), false},
		{"digits in address", errors.New("dial tcp 10.0.5.35:5535: i/o timeout"), false},
		{"digits in count", errors.New("short write: wrote 535 of 1024 bytes"), false},
		{"mailbox unavailable", &textproto.Error{Code: 550, Msg: "mailbox unavailable"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isAuthFailure(tt.err); got != tt.want {
				t.Errorf("isAuthFailure(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSMTPInvalidSender(t *testing.T) {
	cfg := config.DefaultConfig().Mail
	cfg.Mode = string(ModeSMTP)
	cfg.From = "not an address"
	cfg.To = []string{"a@example.com"}

	err := NewSMTPMailer(&cfg, testLogger()).Send(context.Background(), "s", "t", "")
	var mailErr *types.MailError
	if !errors.As(err, &mailErr) {
		t.Fatalf("expected MailError, got %v", err)
	}
	if types.IsAuthError(err) {
		t.Error("invalid sender is not an auth failure")
	}
}
