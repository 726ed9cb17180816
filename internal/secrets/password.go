package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"gigscout-engine/internal/config"
)

// KeyringService groups the engine's secrets in the OS keychain.
const KeyringService = "gigscout"

var ErrNotFound = errors.New("secrets: not found in keychain")

func Get(account string) (string, error) {
	if strings.TrimSpace(account) == "" {
		return "", errors.New("secrets: keyring account name is empty")
	}
	pw, err := keyring.Get(KeyringService, account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("secrets: keyring get: %w", err)
	}
	if strings.TrimSpace(pw) == "" {
		return "", ErrNotFound
	}
	return pw, nil
}

func Set(account, secret string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	if strings.TrimSpace(secret) == "" {
		return errors.New("secrets: secret is empty")
	}
	return keyring.Set(KeyringService, account, secret)
}

func Delete(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("secrets: keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}

func SMTPAccount(cfg config.Config) string {
	return fmt.Sprintf("gigscout:smtp:%s@%s", cfg.Email.SMTP.Username, cfg.Email.SMTP.Host)
}

func IMAPAccount(cfg config.Config) string {
	return fmt.Sprintf("gigscout:imap:%s@%s", cfg.Email.IMAP.Username, cfg.Email.IMAP.Host)
}

func TelegramAccount(cfg config.Config) string {
	return fmt.Sprintf("gigscout:telegram:%d", cfg.Telegram.ChatID)
}

// Resolve fills secrets that the environment did not provide from the
// keychain. Missing entries are left empty for validation to report.
func Resolve(cfg *config.Config) {
	fill := func(dst *string, account string) {
		if *dst != "" {
			return
		}
		if v, err := Get(account); err == nil {
			*dst = v
		}
	}
	fill(&cfg.Email.SMTP.Password, SMTPAccount(*cfg))
	fill(&cfg.Email.IMAP.Password, IMAPAccount(*cfg))
	fill(&cfg.Telegram.Token, TelegramAccount(*cfg))
}
