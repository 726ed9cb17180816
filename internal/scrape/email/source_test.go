package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigscout-engine/internal/config"
)

type fakeMailbox struct {
	msgs   []Message
	err    error
	term   string
	since  time.Time
	max    int
	closed bool
}

func (f *fakeMailbox) Search(_ context.Context, term string, since time.Time, max int) ([]Message, error) {
	f.term, f.since, f.max = term, since, max
	return f.msgs, f.err
}

func (f *fakeMailbox) Close() error { f.closed = true; return nil }

func crlf(s string) []byte { return []byte(strings.ReplaceAll(s, "\n", "\r\n")) }

const plainAlert = `From: alerts@example.com
To: me@example.com
Subject: New job: Hebrew translator needed
Content-Type: text/plain; charset=utf-8

Client is looking for a Hebrew   translator.
Apply: https://example.com/jobs/42.
`

const multipartAlert = `From: alerts@example.com
Subject: =?utf-8?B?15PXqNeV16kg157Xqteo15LXnQ==?=
MIME-Version: 1.0
Content-Type: multipart/alternative; boundary="b1"

--b1
Content-Type: text/html; charset=utf-8

<html><body>
<p>Piano <b>session</b> needed</p>
<a href="mailto:x@y">mail</a>
<a href="https://example.com/p/7">view</a>
</body></html>
--b1--
`

func TestParseMessage_Plain(t *testing.T) {
	p, err := ParseMessage(crlf(plainAlert))
	require.NoError(t, err)
	assert.Equal(t, "New job: Hebrew translator needed", p.Subject)
	assert.Equal(t, "Client is looking for a Hebrew translator. Apply: https://example.com/jobs/42.", p.Text)
	assert.Equal(t, "https://example.com/jobs/42", p.Link)
}

func TestParseMessage_HTMLOnly(t *testing.T) {
	p, err := ParseMessage(crlf(multipartAlert))
	require.NoError(t, err)
	assert.Equal(t, "דרוש מתרגם", p.Subject)
	assert.Equal(t, "Piano session needed mail view", p.Text)
	assert.Equal(t, "https://example.com/p/7", p.Link)
}

func TestSource_Fetch(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	mb := &fakeMailbox{msgs: []Message{
		{UID: 1, Raw: crlf(plainAlert)},
		{UID: 2, Subject: "fallback subject", Raw: []byte("garbage")},
	}}

	s := NewSource(config.IMAP{SinceDays: 7, MaxMessages: 20}, nil)
	s.Now = func() time.Time { return now }
	s.Dial = func(context.Context) (Mailbox, error) { return mb, nil }

	got, err := s.Fetch(context.Background(), "translator")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "translator", mb.term)
	assert.Equal(t, now.AddDate(0, 0, -7), mb.since)
	assert.Equal(t, 20, mb.max)
	assert.True(t, mb.closed)

	assert.Equal(t, "New job: Hebrew translator needed", got[0].Title)
	assert.Equal(t, "https://example.com/jobs/42", got[0].Link)
	assert.Equal(t, Platform, got[0].Platform)
	assert.Equal(t, "fallback subject", got[1].Title)
}

func TestSource_FetchErrors(t *testing.T) {
	s := NewSource(config.IMAP{}, nil)
	s.Dial = func(context.Context) (Mailbox, error) { return nil, errors.New("dial refused") }
	_, err := s.Fetch(context.Background(), "x")
	require.EqualError(t, err, "dial refused")

	mb := &fakeMailbox{err: errors.New("BAD")}
	s.Dial = func(context.Context) (Mailbox, error) { return mb, nil }
	_, err = s.Fetch(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD")
	assert.True(t, mb.closed)
}
