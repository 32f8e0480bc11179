package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// legacyEnv maps config keys to the plain environment variable names used by
// older cron setups. They are consulted after the PLANEWATCH_ prefixed names.
var legacyEnv = map[string]string{
	"mail.smtp_user":        "SMTP_USER",
	"mail.smtp_pass":        "SMTP_PASS",
	"mail.to":               "EMAIL_TO",
	"mail.from":             "EMAIL_FROM",
	"mail.sendgrid_api_key": "SENDGRID_API_KEY",
	"storage.pages_dir":     "STORAGE_DIR",
	"run.max_email_items":   "MAX_EMAIL_ITEMS",
	"run.seen_cap":          "SEEN_CAP",
}

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller on the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("PLANEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := "PLANEWATCH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", name, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("planewatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".planewatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.SMTPUser
	}

	return cfg, nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("run.max_email_items", cfg.Run.MaxEmailItems)
	v.SetDefault("run.seen_cap", cfg.Run.SeenCap)
	v.SetDefault("run.politeness_delay", cfg.Run.PolitenessDelay)
	v.SetDefault("run.search_term", cfg.Run.SearchTerm)
	v.SetDefault("run.max_search_pages", cfg.Run.MaxSearchPages)
	v.SetDefault("run.dry_run", cfg.Run.DryRun)

	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("mail.mode", cfg.Mail.Mode)
	v.SetDefault("mail.from", cfg.Mail.From)
	v.SetDefault("mail.to", cfg.Mail.To)
	v.SetDefault("mail.subject_prefix", cfg.Mail.SubjectPrefix)
	v.SetDefault("mail.smtp_host", cfg.Mail.SMTPHost)
	v.SetDefault("mail.smtp_port", cfg.Mail.SMTPPort)
	v.SetDefault("mail.smtp_user", cfg.Mail.SMTPUser)
	v.SetDefault("mail.smtp_pass", cfg.Mail.SMTPPass)
	v.SetDefault("mail.sendgrid_api_key", cfg.Mail.SendGridAPIKey)
	v.SetDefault("mail.sendgrid_url", cfg.Mail.SendGridURL)
	v.SetDefault("mail.timeout", cfg.Mail.Timeout)

	v.SetDefault("storage.targets_file", cfg.Storage.TargetsFile)
	v.SetDefault("storage.seen_backend", cfg.Storage.SeenBackend)
	v.SetDefault("storage.seen_file", cfg.Storage.SeenFile)
	v.SetDefault("storage.seen_db", cfg.Storage.SeenDB)
	v.SetDefault("storage.pages_dir", cfg.Storage.PagesDir)

	v.SetDefault("archive.type", cfg.Archive.Type)
	v.SetDefault("archive.path", cfg.Archive.Path)
	v.SetDefault("archive.mongo_uri", cfg.Archive.MongoURI)
	v.SetDefault("archive.database", cfg.Archive.Database)
	v.SetDefault("archive.collection", cfg.Archive.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
