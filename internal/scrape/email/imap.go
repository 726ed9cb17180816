package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// Message is the part of a mailbox message the source needs.
type Message struct {
	UID     imap.UID
	Subject string
	Date    time.Time
	// Raw is the full RFC 822 message, fetched with BODY.PEEK[] so the
	// message keeps its \Seen state.
	Raw []byte
}

// Mailbox searches one selected IMAP mailbox.
type Mailbox interface {
	Search(ctx context.Context, term string, since time.Time, max int) ([]Message, error)
	Close() error
}

// DialAndLoginIMAP connects over TLS and logs in.
func DialAndLoginIMAP(ctx context.Context, addr, username, password string, tlsCfg *tls.Config) (*imapclient.Client, error) {
	if addr == "" {
		return nil, errors.New("email: imap addr is required")
	}
	if username == "" || password == "" {
		return nil, errors.New("email: imap username/password is required")
	}
	if tlsCfg == nil {
		host := addr
		if i := strings.LastIndex(addr, ":"); i > 0 {
			host = addr[:i]
		}
		tlsCfg = &tls.Config{MinVersion: tls.VersionTLS12, ServerName: host}
	}

	c, err := imapclient.DialTLS(addr, &imapclient.Options{TLSConfig: tlsCfg})
	if err != nil {
		return nil, fmt.Errorf("email: imap dial tls: %w", err)
	}

	if err := c.Login(username, password).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("email: imap login: %w", err)
	}
	return c, nil
}

// imapMailbox is a logged-in client with a mailbox selected read-only.
type imapMailbox struct {
	c      *imapclient.Client
	logger *slog.Logger
	stop   func() bool
}

func openMailbox(ctx context.Context, addr, username, password, mailbox string, logger *slog.Logger) (Mailbox, error) {
	c, err := DialAndLoginIMAP(ctx, addr, username, password, nil)
	if err != nil {
		return nil, err
	}
	if _, err := c.Select(mailbox, &imap.SelectOptions{ReadOnly: true}).Wait(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("email: imap select %s: %w", mailbox, err)
	}

	// Unblock pending commands when the run is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	return &imapMailbox{c: c, logger: logger, stop: stop}, nil
}

// Search returns up to max messages since the given day whose headers or
// body contain term, newest first.
func (m *imapMailbox) Search(ctx context.Context, term string, since time.Time, max int) ([]Message, error) {
	if max <= 0 {
		max = 50
	}
	criteria := &imap.SearchCriteria{
		Since: since,
		Text:  []string{term},
	}
	data, err := m.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("email: imap uid search: %w", err)
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return []Message{}, nil
	}
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > max {
		uids = uids[:max]
	}

	bodyAll := &imap.FetchItemBodySection{Specifier: imap.PartSpecifierNone, Peek: true}
	fetchCmd := m.c.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	})
	defer func() { _ = fetchCmd.Close() }()

	out := make([]Message, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, fmt.Errorf("email: imap fetch collect: %w", err)
		}

		msg := Message{UID: buf.UID}
		if buf.Envelope != nil {
			msg.Subject = buf.Envelope.Subject
			msg.Date = buf.Envelope.Date
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			msg.Raw = append([]byte(nil), b...)
		}
		out = append(out, msg)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("email: imap fetch close: %w", err)
	}
	return out, nil
}

// Close logs out then closes the connection.
func (m *imapMailbox) Close() error {
	m.stop()
	if err := m.c.Logout().Wait(); err != nil {
		m.logger.Warn("imap logout", "err", err)
	}
	return m.c.Close()
}
