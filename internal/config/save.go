package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("app.timezone %q: %v", cfg.App.Timezone, err))
	}
	for i, d := range cfg.Schedule.Daily {
		if _, err := time.Parse("15:04", strings.TrimSpace(d)); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.daily[%d] %q must be HH:MM", i, d))
		}
	}
	if cfg.Schedule.Interval < 0 {
		errs = append(errs, "schedule.interval must be >= 0")
	}
	if cfg.Poll.TermDelay < 0 || cfg.Poll.PlatformDelay < 0 {
		errs = append(errs, "poll delays must be >= 0")
	}

	for i, c := range cfg.Categories {
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, fmt.Sprintf("categories[%d].name is required", i))
		}
		if len(c.Terms) == 0 && len(c.HebrewTerms) == 0 {
			errs = append(errs, fmt.Sprintf("categories[%d] must have at least 1 term", i))
		}
	}

	seen := map[string]bool{}
	for i, p := range cfg.Platforms {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			errs = append(errs, fmt.Sprintf("platforms[%d].name is required", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Sprintf("platforms[%d].name %q is duplicated", i, p.Name))
		}
		seen[name] = true
		if p.Pages < 0 {
			errs = append(errs, fmt.Sprintf("platforms[%d].pages must be >= 0", i))
		}
	}

	checkPatterns := func(name string, pats []string) {
		for i, p := range pats {
			if strings.TrimSpace(p) == "" {
				errs = append(errs, fmt.Sprintf("%s[%d] cannot be empty", name, i))
				continue
			}
			if _, err := regexp.Compile(p); err != nil {
				errs = append(errs, fmt.Sprintf("%s[%d] %q: %v", name, i, p, err))
			}
		}
	}
	checkPatterns("filter.seller_patterns", cfg.Filter.SellerPatterns)
	checkPatterns("filter.client_intent_patterns", cfg.Filter.ClientIntentPatterns)

	lang := cfg.Filter.Language
	if len(lang.Target) != 2 {
		errs = append(errs, "filter.language.target must be an ISO 639-1 code")
	}
	if lang.MinDescriptionRunes < 0 || lang.MinTitleRunes < 0 {
		errs = append(errs, "filter.language thresholds must be >= 0")
	}
	if lang.MinConfidence < 0 || lang.MinConfidence > 1 {
		errs = append(errs, "filter.language.min_confidence must be within 0..1")
	}

	if cfg.Email.Enabled {
		if cfg.Email.SMTP.Username == "" {
			errs = append(errs, "email.smtp.username is required when email.enabled=true")
		}
		if len(cfg.Email.SMTP.Recipients) == 0 {
			errs = append(errs, "email.smtp.recipients must have at least 1 address")
		}
	}
	if cfg.Email.SMTP.AllowInsecure && !isLoopbackHost(cfg.Email.SMTP.Host) {
		errs = append(errs, "email.smtp.allow_insecure is only allowed for a loopback host")
	}
	if cfg.Email.IMAP.Enabled && (cfg.Email.IMAP.Host == "" || cfg.Email.IMAP.Username == "") {
		errs = append(errs, "email.imap.host and email.imap.username are required when email.imap.enabled=true")
	}
	if cfg.Telegram.Enabled && cfg.Telegram.ChatID == 0 {
		errs = append(errs, "telegram.chat_id is required when telegram.enabled=true")
	}

	switch cfg.Status.Backend {
	case "memory", "sqlite":
	case "redis":
		if cfg.Status.RedisURL == "" {
			errs = append(errs, "status.redis_url is required when status.backend=redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("status.backend %q must be memory, redis or sqlite", cfg.Status.Backend))
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func isLoopbackHost(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}
