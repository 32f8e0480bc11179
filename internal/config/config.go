package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for planewatch. It is built once at
// startup and passed to every component.
type Config struct {
	Run     RunConfig     `mapstructure:"run"     yaml:"run"`
	Fetcher FetcherConfig `mapstructure:"fetcher" yaml:"fetcher"`
	Mail    MailConfig    `mapstructure:"mail"    yaml:"mail"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// RunConfig controls a single digest or scrape run.
type RunConfig struct {
	MaxEmailItems   int           `mapstructure:"max_email_items"  yaml:"max_email_items"`
	SeenCap         int           `mapstructure:"seen_cap"         yaml:"seen_cap"`
	PolitenessDelay time.Duration `mapstructure:"politeness_delay" yaml:"politeness_delay"`
	SearchTerm      string        `mapstructure:"search_term"      yaml:"search_term"`
	MaxSearchPages  int           `mapstructure:"max_search_pages" yaml:"max_search_pages"`
	DryRun          bool          `mapstructure:"dry_run"          yaml:"dry_run"`
}

// FetcherConfig controls the page fetcher.
type FetcherConfig struct {
	Type           string        `mapstructure:"type"            yaml:"type"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
	MaxRedirects   int           `mapstructure:"max_redirects"   yaml:"max_redirects"`
	UserAgents     []string      `mapstructure:"user_agents"     yaml:"user_agents"`
	Stealth        bool          `mapstructure:"stealth"         yaml:"stealth"`
}

// MailConfig controls how the digest is delivered.
type MailConfig struct {
	Mode           string        `mapstructure:"mode"             yaml:"mode"` // smtp, sendgrid, stdout
	From           string        `mapstructure:"from"             yaml:"from"`
	To             []string      `mapstructure:"to"               yaml:"to"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"   yaml:"subject_prefix"`
	SMTPHost       string        `mapstructure:"smtp_host"        yaml:"smtp_host"`
	SMTPPort       int           `mapstructure:"smtp_port"        yaml:"smtp_port"`
	SMTPUser       string        `mapstructure:"smtp_user"        yaml:"smtp_user"`
	SMTPPass       string        `mapstructure:"smtp_pass"        yaml:"smtp_pass"`
	SendGridAPIKey string        `mapstructure:"sendgrid_api_key" yaml:"sendgrid_api_key"`
	SendGridURL    string        `mapstructure:"sendgrid_url"     yaml:"sendgrid_url"`
	Timeout        time.Duration `mapstructure:"timeout"          yaml:"timeout"`
}

// StorageConfig controls the persisted run state.
type StorageConfig struct {
	TargetsFile string `mapstructure:"targets_file" yaml:"targets_file"`
	SeenBackend string `mapstructure:"seen_backend" yaml:"seen_backend"` // file, sqlite
	SeenFile    string `mapstructure:"seen_file"    yaml:"seen_file"`
	SeenDB      string `mapstructure:"seen_db"      yaml:"seen_db"`
	PagesDir    string `mapstructure:"pages_dir"    yaml:"pages_dir"`
}

// ArchiveConfig controls the optional archive of digested ads.
type ArchiveConfig struct {
	Type       string `mapstructure:"type"       yaml:"type"` // none, jsonl, mongodb
	Path       string `mapstructure:"path"       yaml:"path"`
	MongoURI   string `mapstructure:"mongo_uri"  yaml:"mongo_uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			MaxEmailItems:   50,
			SeenCap:         3000,
			PolitenessDelay: 1500 * time.Millisecond,
			SearchTerm:      "van's rv",
			MaxSearchPages:  20,
		},
		Fetcher: FetcherConfig{
			Type:           "http",
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			MaxRedirects:   10,
			UserAgents: []string{
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
		},
		Mail: MailConfig{
			Mode:          "stdout",
			SubjectPrefix: "Aircraft classifieds",
			SMTPHost:      "smtp.gmail.com",
			SMTPPort:      587,
			SendGridURL:   "https://api.sendgrid.com/v3/mail/send",
			Timeout:       30 * time.Second,
		},
		Storage: StorageConfig{
			TargetsFile: "targets.txt",
			SeenBackend: "file",
			SeenFile:    "seen_ids.json",
			SeenDB:      "planewatch.db",
			PagesDir:    "listings",
		},
		Archive: ArchiveConfig{
			Type:       "none",
			Path:       "./output/ads.jsonl",
			Database:   "planewatch",
			Collection: "ads",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
