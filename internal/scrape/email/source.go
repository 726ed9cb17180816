package email

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"gigscout-engine/internal/config"
	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/scrape/util"
)

// Platform is the identifier postings from the mailbox are tagged with.
const Platform domain.Platform = "email"

// Source treats a mailbox of job-alert emails as a listing site: each message
// that mentions the search term becomes one posting.
type Source struct {
	Cfg    config.IMAP
	Logger *slog.Logger
	// Dial opens the mailbox; nil uses IMAP over TLS.
	Dial func(ctx context.Context) (Mailbox, error)
	Now  func() time.Time
}

func NewSource(cfg config.IMAP, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{Cfg: cfg, Logger: logger.With("platform", Platform), Now: time.Now}
	s.Dial = func(ctx context.Context) (Mailbox, error) {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		return openMailbox(ctx, addr, cfg.Username, cfg.Password, cfg.Mailbox, s.Logger)
	}
	return s
}

func (s *Source) Name() string              { return "email" }
func (s *Source) Platform() domain.Platform { return Platform }

func (s *Source) Fetch(ctx context.Context, term string) ([]domain.RawPosting, error) {
	mb, err := s.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := mb.Close(); err != nil {
			s.Logger.Debug("mailbox close", "err", err)
		}
	}()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	since := now().AddDate(0, 0, -s.Cfg.SinceDays)

	msgs, err := mb.Search(ctx, term, since, s.Cfg.MaxMessages)
	if err != nil {
		return nil, fmt.Errorf("email: search %q: %w", term, err)
	}

	out := make([]domain.RawPosting, 0, len(msgs))
	for _, m := range msgs {
		p, err := ParseMessage(m.Raw)
		if err != nil {
			s.Logger.WarnContext(ctx, "unparsable message", "uid", m.UID, "err", err)
			p = Parsed{}
		}
		title := p.Subject
		if title == "" {
			title = m.Subject
		}
		out = append(out, domain.RawPosting{
			Title:       util.CleanText(title),
			Description: p.Text,
			Link:        p.Link,
			Platform:    Platform,
		})
	}
	s.Logger.InfoContext(ctx, "mailbox searched", "term", term, "found", len(out))
	return out, nil
}
