package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_AppliesDefaults(t *testing.T) {
	p := writeFile(t, t.TempDir(), "config.yml", `
poll:
  term_delay: 5s
platforms:
  - { name: Upwork, enabled: true, client_intent: true }
  - { name: alljobs, enabled: false }
`)
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Poll.TermDelay)
	assert.Equal(t, time.Second, cfg.Poll.PlatformDelay)
	assert.Equal(t, 38471, cfg.App.Port)
	assert.Equal(t, "en", cfg.Filter.Language.Target)
	assert.Equal(t, 50, cfg.Filter.Language.MinDescriptionRunes)
	assert.Equal(t, 20, cfg.Filter.Language.MinTitleRunes)
	assert.Zero(t, cfg.Filter.Language.MinConfidence)
	assert.Equal(t, "memory", cfg.Status.Backend)

	require.Len(t, cfg.EnabledPlatforms(), 1)
	assert.Equal(t, map[string]bool{"upwork": true}, cfg.ClientIntentPlatforms())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := writeFile(t, t.TempDir(), "bad.yml", "categories: {not: [a list")
	_, err = Load(p)
	assert.Error(t, err)
}

func TestLocation(t *testing.T) {
	var cfg Config
	cfg.App.Timezone = "Asia/Jerusalem"
	assert.Equal(t, "Asia/Jerusalem", cfg.Location().String())

	cfg.App.Timezone = "Mars/Olympus"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestOverlayEnv(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "config.yml", "email:\n  smtp:\n    port: 465\n")
	dotenv := writeFile(t, dir, ".env", "LOG_FORMAT=json\n")

	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_RECIPIENT", "a@example.com,b@example.com")
	t.Setenv("EMAIL_PASSWORD", "app-pass")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("SCHEDULE_INTERVAL", "90m")
	// Registered for cleanup, then cleared so the dotenv file can set it.
	t.Setenv("LOG_FORMAT", "unset")
	require.NoError(t, os.Unsetenv("LOG_FORMAT"))

	cfg, err := LoadWithEnv(p, dotenv, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 2525, cfg.Email.SMTP.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.SMTP.Recipients)
	assert.Equal(t, "app-pass", cfg.Email.SMTP.Password)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 90*time.Minute, cfg.Schedule.Interval)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "smtp.gmail.com", cfg.Email.SMTP.Host)
}

func TestOverlayEnv_BadValue(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-number")
	var cfg Config
	assert.Error(t, OverlayEnv(&cfg))
}

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidate_Errors(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 70000
	cfg.Schedule.Daily = []string{"8am"}
	cfg.Categories = append(cfg.Categories, Category{Name: " "})
	cfg.Platforms = append(cfg.Platforms, Platform{Name: "UPWORK"})
	cfg.Filter.SellerPatterns = []string{"(unclosed"}
	cfg.Filter.Language.MinConfidence = 2
	cfg.Email.Enabled = true
	cfg.Status.Backend = "etcd"

	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		"app.port",
		`schedule.daily[0] "8am"`,
		"categories[4].name is required",
		"categories[4] must have at least 1 term",
		`platforms[7].name "UPWORK" is duplicated`,
		"filter.seller_patterns[0]",
		"min_confidence",
		"email.smtp.username is required",
		"email.smtp.recipients",
		`status.backend "etcd"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestValidate_RedisNeedsURL(t *testing.T) {
	cfg := Default()
	cfg.Status.Backend = "redis"
	assert.ErrorContains(t, Validate(cfg), "status.redis_url")
	cfg.Status.RedisURL = "redis://localhost:6379/0"
	assert.NoError(t, Validate(cfg))
}

func TestValidate_AllowInsecureNeedsLoopback(t *testing.T) {
	cfg := Default()
	cfg.Email.SMTP.AllowInsecure = true
	assert.ErrorContains(t, Validate(cfg), "allow_insecure")

	for _, host := range []string{"localhost", "127.0.0.1", "::1"} {
		cfg.Email.SMTP.Host = host
		assert.NoError(t, Validate(cfg), host)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.Categories[0].Terms = []string{" Hebrew translator ", "hebrew TRANSLATOR", ""}
	cfg.Filter.NegativeKeywords = []string{"seo", "SEO "}
	cfg.Filter.PositiveKeywords = []string{"seo"}
	cfg.Poll.TermDelay = 200 * time.Millisecond
	cfg.Platforms[4].Enabled = true // xplace, Hebrew terms

	out, vr := NormalizeAndValidate(cfg)
	require.True(t, vr.OK(), vr.Errors)

	assert.Equal(t, []string{"Hebrew translator"}, out.Categories[0].Terms)
	assert.Equal(t, []string{"seo"}, out.Filter.NegativeKeywords)
	// input is not mutated
	assert.Len(t, cfg.Categories[0].Terms, 3)

	joined := strings.Join(vr.Warnings, "\n")
	assert.Contains(t, joined, "term_delay is very low")
	assert.Contains(t, joined, `platform "xplace" searches Hebrew terms but 2 categories have none`)
	assert.Contains(t, joined, `both positive and negative lists: "seo"`)
	assert.Contains(t, joined, "no notifier enabled")
}

func TestNormalizeAndValidate_CollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Filter.ClientIntentPatterns = []string{"[", ""}
	_, vr := NormalizeAndValidate(cfg)
	assert.False(t, vr.OK())
	assert.Len(t, vr.Errors, 2)
}

func TestEnsureUserConfig(t *testing.T) {
	t.Run("copies the default file", func(t *testing.T) {
		src := writeFile(t, t.TempDir(), "config.yml", "app:\n  port: 9000\n")
		data := filepath.Join(t.TempDir(), "data")

		p, err := EnsureUserConfig(data, src)
		require.NoError(t, err)
		cfg, err := Load(p)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.App.Port)

		// existing user config is left alone
		require.NoError(t, os.WriteFile(src, []byte("app:\n  port: 9100\n"), 0o644))
		p2, err := EnsureUserConfig(data, src)
		require.NoError(t, err)
		assert.Equal(t, p, p2)
		cfg, err = Load(p2)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.App.Port)
	})

	t.Run("falls back to the built-in default", func(t *testing.T) {
		data := t.TempDir()
		p, err := EnsureUserConfig(data, filepath.Join(data, "nope.yml"))
		require.NoError(t, err)
		cfg, err := Load(p)
		require.NoError(t, err)
		assert.Len(t, cfg.Categories, 4)
		assert.NoError(t, Validate(cfg))
	})
}

func TestSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	cfg := Default()
	require.NoError(t, SaveAtomic(p, cfg))

	cfg.Poll.TermDelay = 7 * time.Second
	require.NoError(t, SaveAtomic(p, cfg))

	got, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, got.Poll.TermDelay)
	_, err = os.Stat(p + ".bak")
	assert.NoError(t, err)

	cfg.App.Port = -1
	assert.Error(t, SaveAtomic(p, cfg))
	got, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, got.Poll.TermDelay, "invalid config must not replace the file")
}
