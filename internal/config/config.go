// internal/config/config.go
package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Category struct {
	Name        string   `yaml:"name" json:"name"`
	Terms       []string `yaml:"terms" json:"terms"`
	HebrewTerms []string `yaml:"hebrew_terms" json:"hebrew_terms"`
}

// Platform declares one listing source and its capabilities.
type Platform struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	// HebrewTerms makes the driver search with each category's Hebrew terms
	// instead of the English ones.
	HebrewTerms bool `yaml:"hebrew_terms" json:"hebrew_terms"`
	// ClientIntent marks seller-gig dominated sites where a posting must
	// explicitly ask for a service.
	ClientIntent bool   `yaml:"client_intent" json:"client_intent"`
	SearchURL    string `yaml:"search_url,omitempty" json:"search_url,omitempty"`
	Pages        int    `yaml:"pages,omitempty" json:"pages,omitempty"`
}

type Language struct {
	Target              string  `yaml:"target" json:"target" env:"GIGSCOUT_LANGUAGE"`
	MinDescriptionRunes int     `yaml:"min_description_runes" json:"min_description_runes"`
	MinTitleRunes       int     `yaml:"min_title_runes" json:"min_title_runes"`
	MinConfidence       float64 `yaml:"min_confidence" json:"min_confidence"`
}

// Filter holds the relevance rule lists. Empty lists fall back to the built-in
// defaults of the scrape package.
type Filter struct {
	SellerPatterns       []string `yaml:"seller_patterns" json:"seller_patterns"`
	ClientIntentPatterns []string `yaml:"client_intent_patterns" json:"client_intent_patterns"`
	NegativeKeywords     []string `yaml:"negative_keywords" json:"negative_keywords"`
	PositiveKeywords     []string `yaml:"positive_keywords" json:"positive_keywords"`
	Language             Language `yaml:"language" json:"language"`
}

type SMTP struct {
	Host       string   `yaml:"host" json:"host" env:"SMTP_SERVER"`
	Port       int      `yaml:"port" json:"port" env:"SMTP_PORT"`
	Username   string   `yaml:"username" json:"username" env:"EMAIL_SENDER"`
	Password   string   `yaml:"-" json:"-" env:"EMAIL_PASSWORD"`
	From       string   `yaml:"from" json:"from" env:"EMAIL_FROM"`
	Recipients []string `yaml:"recipients" json:"recipients" env:"EMAIL_RECIPIENT" envSeparator:","`

	// AllowInsecure skips STARTTLS. Only accepted for a loopback host.
	AllowInsecure bool `yaml:"allow_insecure,omitempty" json:"allow_insecure,omitempty"`
}

type IMAP struct {
	Enabled     bool   `yaml:"enabled" json:"enabled" env:"IMAP_ENABLED"`
	Host        string `yaml:"host" json:"host" env:"IMAP_HOST"`
	Port        int    `yaml:"port" json:"port" env:"IMAP_PORT"`
	Username    string `yaml:"username" json:"username" env:"IMAP_USERNAME"`
	Password    string `yaml:"-" json:"-" env:"IMAP_PASSWORD"`
	Mailbox     string `yaml:"mailbox" json:"mailbox"`
	MaxMessages int    `yaml:"max_messages" json:"max_messages"`
	SinceDays   int    `yaml:"since_days" json:"since_days"`
}

type Config struct {
	App struct {
		Port     int    `yaml:"port" json:"port" env:"PORT"`
		DataDir  string `yaml:"data_dir" json:"data_dir" env:"GIGSCOUT_DATA_DIR"`
		Timezone string `yaml:"timezone" json:"timezone" env:"GIGSCOUT_TZ"`
	} `yaml:"app" json:"app"`

	Logging struct {
		Level  string `yaml:"level" json:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" json:"format" env:"LOG_FORMAT"`
	} `yaml:"logging" json:"logging"`

	Schedule struct {
		// Daily lists wall-clock run times ("08:00") in app.timezone.
		Daily    []string      `yaml:"daily" json:"daily"`
		Interval time.Duration `yaml:"interval" json:"interval" env:"SCHEDULE_INTERVAL"`
	} `yaml:"schedule" json:"schedule"`

	Poll struct {
		TermDelay      time.Duration `yaml:"term_delay" json:"term_delay"`
		PlatformDelay  time.Duration `yaml:"platform_delay" json:"platform_delay"`
		RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
		HostRPS        float64       `yaml:"host_rps" json:"host_rps"`
		HostBurst      int           `yaml:"host_burst" json:"host_burst"`
	} `yaml:"poll" json:"poll"`

	Categories []Category `yaml:"categories" json:"categories"`
	Platforms  []Platform `yaml:"platforms" json:"platforms"`

	Filter Filter `yaml:"filter" json:"filter"`

	Email struct {
		Enabled bool `yaml:"enabled" json:"enabled" env:"EMAIL_ENABLED"`
		SMTP    SMTP `yaml:"smtp" json:"smtp"`
		IMAP    IMAP `yaml:"imap" json:"imap"`
	} `yaml:"email" json:"email"`

	Telegram struct {
		Enabled bool   `yaml:"enabled" json:"enabled" env:"TELEGRAM_ENABLED"`
		Token   string `yaml:"-" json:"-" env:"TELEGRAM_BOT_TOKEN"`
		ChatID  int64  `yaml:"chat_id" json:"chat_id" env:"TELEGRAM_CHAT_ID"`
	} `yaml:"telegram" json:"telegram"`

	Status struct {
		// Backend is memory, redis or sqlite.
		Backend  string `yaml:"backend" json:"backend" env:"STATUS_BACKEND"`
		RedisURL string `yaml:"redis_url" json:"redis_url" env:"REDIS_URL"`
		RedisKey string `yaml:"redis_key" json:"redis_key"`
	} `yaml:"status" json:"status"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	ApplyDefaults(&cfg)
	return cfg, nil
}

// ApplyDefaults fills zero values. It never overrides explicit settings.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Port == 0 {
		cfg.App.Port = 38471
	}
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = "."
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Jerusalem"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Poll.TermDelay == 0 {
		cfg.Poll.TermDelay = 2 * time.Second
	}
	if cfg.Poll.PlatformDelay == 0 {
		cfg.Poll.PlatformDelay = time.Second
	}
	if cfg.Poll.RequestTimeout == 0 {
		cfg.Poll.RequestTimeout = 30 * time.Second
	}
	if cfg.Poll.HostRPS == 0 {
		cfg.Poll.HostRPS = 0.5
	}
	if cfg.Poll.HostBurst == 0 {
		cfg.Poll.HostBurst = 1
	}
	if cfg.Filter.Language.Target == "" {
		cfg.Filter.Language.Target = "en"
	}
	if cfg.Filter.Language.MinDescriptionRunes == 0 {
		cfg.Filter.Language.MinDescriptionRunes = 50
	}
	if cfg.Filter.Language.MinTitleRunes == 0 {
		cfg.Filter.Language.MinTitleRunes = 20
	}
	if cfg.Email.SMTP.Host == "" {
		cfg.Email.SMTP.Host = "smtp.gmail.com"
	}
	if cfg.Email.SMTP.Port == 0 {
		cfg.Email.SMTP.Port = 587
	}
	if cfg.Email.IMAP.Port == 0 {
		cfg.Email.IMAP.Port = 993
	}
	if cfg.Email.IMAP.Mailbox == "" {
		cfg.Email.IMAP.Mailbox = "INBOX"
	}
	if cfg.Email.IMAP.MaxMessages == 0 {
		cfg.Email.IMAP.MaxMessages = 50
	}
	if cfg.Email.IMAP.SinceDays == 0 {
		cfg.Email.IMAP.SinceDays = 14
	}
	if cfg.Status.Backend == "" {
		cfg.Status.Backend = "memory"
	}
	if cfg.Status.RedisKey == "" {
		cfg.Status.RedisKey = "gigscout:status"
	}
}

// Location resolves app.timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EnabledPlatforms returns platforms in config order with enabled=true.
func (c Config) EnabledPlatforms() []Platform {
	var out []Platform
	for _, p := range c.Platforms {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}

// ClientIntentPlatforms is the capability map consumed by the relevance filter.
func (c Config) ClientIntentPlatforms() map[string]bool {
	m := make(map[string]bool)
	for _, p := range c.Platforms {
		if p.ClientIntent {
			m[strings.ToLower(strings.TrimSpace(p.Name))] = true
		}
	}
	return m
}
