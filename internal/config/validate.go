package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Run.MaxEmailItems < 1 {
		return fmt.Errorf("run.max_email_items must be >= 1, got %d", cfg.Run.MaxEmailItems)
	}
	if cfg.Run.SeenCap < 1 {
		return fmt.Errorf("run.seen_cap must be >= 1, got %d", cfg.Run.SeenCap)
	}
	if cfg.Run.PolitenessDelay < 0 {
		return fmt.Errorf("run.politeness_delay must be >= 0")
	}
	if cfg.Run.MaxSearchPages < 1 {
		return fmt.Errorf("run.max_search_pages must be >= 1, got %d", cfg.Run.MaxSearchPages)
	}

	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}

	if err := validateMail(&cfg.Mail); err != nil {
		return err
	}

	if cfg.Storage.SeenBackend != "file" && cfg.Storage.SeenBackend != "sqlite" {
		return fmt.Errorf("storage.seen_backend must be 'file' or 'sqlite', got %q", cfg.Storage.SeenBackend)
	}

	switch cfg.Archive.Type {
	case "", "none", "jsonl":
	case "mongodb":
		if cfg.Archive.MongoURI == "" {
			return fmt.Errorf("archive.mongo_uri is required when archive.type is mongodb")
		}
	default:
		return fmt.Errorf("archive.type %q is not supported (valid: none, jsonl, mongodb)", cfg.Archive.Type)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func validateMail(m *MailConfig) error {
	switch m.Mode {
	case "stdout":
		return nil
	case "smtp":
		if m.SMTPHost == "" {
			return fmt.Errorf("mail.smtp_host is required for smtp mode")
		}
		if m.SMTPPort < 1 || m.SMTPPort > 65535 {
			return fmt.Errorf("mail.smtp_port must be 1-65535, got %d", m.SMTPPort)
		}
		if m.SMTPUser == "" || m.SMTPPass == "" {
			return fmt.Errorf("mail.smtp_user and mail.smtp_pass (SMTP_USER/SMTP_PASS) are required for smtp mode")
		}
	case "sendgrid":
		if m.SendGridAPIKey == "" {
			return fmt.Errorf("mail.sendgrid_api_key (SENDGRID_API_KEY) is required for sendgrid mode")
		}
		if m.From == "" {
			return fmt.Errorf("mail.from (EMAIL_FROM) is required for sendgrid mode")
		}
	default:
		return fmt.Errorf("mail.mode must be smtp, sendgrid or stdout, got %q", m.Mode)
	}
	if len(m.To) == 0 {
		return fmt.Errorf("mail.to (EMAIL_TO) is required for %s mode", m.Mode)
	}
	if m.Timeout <= 0 {
		return fmt.Errorf("mail.timeout must be > 0")
	}
	return nil
}

// ValidateURL checks if a URL string is valid for fetching.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
