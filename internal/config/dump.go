package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const masked = "********"

// Dump renders cfg as YAML with credentials masked.
func Dump(cfg *Config) (string, error) {
	c := *cfg
	c.Mail.To = append([]string(nil), cfg.Mail.To...)
	c.Mail.SMTPPass = mask(c.Mail.SMTPPass)
	c.Mail.SendGridAPIKey = mask(c.Mail.SendGridAPIKey)
	c.Archive.MongoURI = mask(c.Archive.MongoURI)

	out, err := yaml.Marshal(&c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return masked
}
