package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"gigscout-engine/internal/domain"
	"gigscout-engine/internal/scrape/util"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Scraper fetches one board's search result pages and extracts postings from
// them with CSS selectors.
type Scraper struct {
	Site      Site
	Client    *http.Client
	Limiter   *util.HostLimiter
	UserAgent string
	Logger    *slog.Logger
}

func NewScraper(site Site, client *http.Client, limiter *util.HostLimiter, logger *slog.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{
		Site:      site,
		Client:    client,
		Limiter:   limiter,
		UserAgent: defaultUserAgent,
		Logger:    logger.With("platform", site.Platform),
	}
}

func (s *Scraper) Name() string              { return string(s.Site.Platform) }
func (s *Scraper) Platform() domain.Platform { return s.Site.Platform }

// Fetch walks the configured number of result pages. A failure on the first
// page is returned; later pages are best effort.
func (s *Scraper) Fetch(ctx context.Context, term string) ([]domain.RawPosting, error) {
	out := []domain.RawPosting{}
	for page := 1; page <= s.Site.pages(); page++ {
		u := s.Site.PageURL(term, page)
		doc, err := s.get(ctx, u)
		if err != nil {
			if page == 1 || errors.Is(err, context.Canceled) {
				return out, err
			}
			s.Logger.WarnContext(ctx, "page fetch failed", "term", term, "page", page, "err", err)
			break
		}

		found := s.Parse(doc)
		if len(found) == 0 {
			s.Logger.WarnContext(ctx, "no listings found; selectors may be stale", "term", term, "page", page, "url", u)
			break
		}
		out = append(out, found...)
	}
	s.Logger.InfoContext(ctx, "board scraped", "term", term, "found", len(out))
	return out, nil
}

func (s *Scraper) get(ctx context.Context, u string) (*goquery.Document, error) {
	if s.Limiter != nil {
		if err := s.Limiter.WaitURL(ctx, u); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: building request: %w", s.Name(), err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,he;q=0.8")
	if s.Site.BaseURL != "" {
		req.Header.Set("Referer", s.Site.BaseURL+"/")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: executing request: %w", s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("%s: unexpected status %d", s.Name(), resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: parsing HTML: %w", s.Name(), err)
	}
	return doc, nil
}

// Parse extracts postings from a result page. Cards without a title are
// skipped; a missing link is allowed.
func (s *Scraper) Parse(doc *goquery.Document) []domain.RawPosting {
	var out []domain.RawPosting
	firstMatch(doc.Selection, s.Site.Cards).Each(func(_ int, card *goquery.Selection) {
		title := util.CleanText(firstMatch(card, s.Site.Title).First().Text())
		if title == "" {
			s.Logger.Debug("skipping card without title", "card", util.Truncate(util.CleanText(card.Text()), 100))
			return
		}

		var link string
		if href, ok := firstMatch(card, s.Site.Link).First().Attr("href"); ok {
			link = util.CanonicalizeURL(util.AbsoluteURL(s.Site.BaseURL, href))
		}

		desc := util.CleanText(firstMatch(card, s.Site.Description).First().Text())
		if desc == "" && s.Site.TitleAsDescription {
			desc = title
		}

		out = append(out, domain.RawPosting{
			Title:       title,
			Description: desc,
			Link:        link,
			Platform:    s.Site.Platform,
		})
	})
	return out
}

// firstMatch returns every node matched by the first selector that matches
// anything, or an empty selection.
func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if strings.TrimSpace(sel) == "" {
			continue
		}
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return root.Slice(0, 0)
}
