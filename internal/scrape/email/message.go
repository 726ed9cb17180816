package email

import (
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"gigscout-engine/internal/scrape/util"
)

var reURL = regexp.MustCompile(`https?://[^\s<>"']+`)

// Parsed is the readable content of a job-alert message.
type Parsed struct {
	Subject string
	Text    string
	Link    string
}

// ParseMessage extracts the subject, a plain-text body and the first link.
// text/plain is preferred; HTML-only messages are flattened to text.
func ParseMessage(raw []byte) (Parsed, error) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		return Parsed{}, err
	}
	defer mr.Close()

	var p Parsed
	p.Subject, _ = mr.Header.Subject()

	var plain, html string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Keep whatever was decoded before a broken part.
			break
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(io.LimitReader(part.Body, 4<<20))
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(ct, "text/plain") && plain == "":
			plain = string(b)
		case strings.HasPrefix(ct, "text/html") && html == "":
			html = string(b)
		}
	}

	switch {
	case plain != "":
		p.Text = util.CleanText(plain)
		p.Link = firstURL(plain)
	case html != "":
		p.Text, p.Link = flattenHTML(html)
	}
	if p.Link == "" && html != "" {
		_, p.Link = flattenHTML(html)
	}
	return p, nil
}

func flattenHTML(s string) (text, link string) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return util.CleanText(s), firstURL(s)
	}
	doc.Find("script,style").Remove()
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
			link = strings.TrimSpace(href)
			return false
		}
		return true
	})
	text = util.CleanText(doc.Text())
	if link == "" {
		link = firstURL(text)
	}
	return text, link
}

func firstURL(s string) string {
	u := reURL.FindString(s)
	return strings.TrimRight(u, ".,);:]\"'")
}
