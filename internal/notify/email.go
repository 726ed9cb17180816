package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"gigscout-engine/internal/config"
)

// Email sends the digest as a UTF-8 text/plain message over SMTP. The session
// is always upgraded with STARTTLS before PLAIN auth; only a loopback host with
// allow_insecure set may skip it.
type Email struct {
	Cfg       config.SMTP
	TLSConfig *tls.Config
	Now       func() time.Time
}

func NewEmail(cfg config.SMTP) *Email {
	return &Email{Cfg: cfg, Now: time.Now}
}

func (e *Email) Notify(ctx context.Context, d Digest) error {
	if len(e.Cfg.Recipients) == 0 {
		return errors.New("notify: email: no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := e.Cfg.From
	if from == "" {
		from = e.Cfg.Username
	}

	msg, err := e.compose(from, d)
	if err != nil {
		return fmt.Errorf("notify: email: compose: %w", err)
	}

	c, err := e.dial()
	if err != nil {
		return err
	}
	defer c.Close()

	if e.Cfg.Password != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(sasl.NewPlainClient("", e.Cfg.Username, e.Cfg.Password)); err != nil {
				return fmt.Errorf("notify: email: auth: %w", err)
			}
		}
	}

	if err := c.SendMail(from, e.Cfg.Recipients, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("notify: email: send: %w", err)
	}
	return c.Quit()
}

// dial connects and negotiates STARTTLS. A server that does not offer
// STARTTLS is an error.
func (e *Email) dial() (*smtp.Client, error) {
	addr := net.JoinHostPort(e.Cfg.Host, strconv.Itoa(e.Cfg.Port))
	if e.Cfg.AllowInsecure {
		if !isLoopback(e.Cfg.Host) {
			return nil, fmt.Errorf("notify: email: allow_insecure requires a loopback host, got %q", e.Cfg.Host)
		}
		c, err := smtp.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("notify: email: dial %s: %w", addr, err)
		}
		return c, nil
	}

	tlsCfg := e.TLSConfig
	if tlsCfg == nil {
		tlsCfg = &tls.Config{ServerName: e.Cfg.Host, MinVersion: tls.VersionTLS12}
	}
	c, err := smtp.DialStartTLS(addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("notify: email: starttls %s: %w", addr, err)
	}
	return c, nil
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (e *Email) compose(from string, d Digest) ([]byte, error) {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}

	to := make([]*mail.Address, 0, len(e.Cfg.Recipients))
	for _, r := range e.Cfg.Recipients {
		to = append(to, &mail.Address{Address: r})
	}

	var h mail.Header
	h.SetDate(now())
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	h.SetAddressList("To", to)
	h.SetSubject(d.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, d.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
