package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram messages are capped at 4096 characters; chunks stay below that.
const telegramChunk = 3800

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts the digest to a chat, split into several messages when long.
type Telegram struct {
	bot    telegramSender
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("notify: telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, d Digest) error {
	for i, chunk := range chunkDigest(d, telegramChunk) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, chunk)); err != nil {
			return fmt.Errorf("notify: telegram: send chunk %d: %w", i+1, err)
		}
	}
	return nil
}

// chunkDigest splits the body on job boundaries so no chunk exceeds limit
// runes. A single oversized entry is cut.
func chunkDigest(d Digest, limit int) []string {
	entries := strings.SplitAfter(d.Body, "\n\n")

	var chunks []string
	var cur strings.Builder
	curLen := 0
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
		curLen = 0
	}

	cur.WriteString(d.Subject + "\n\n")
	curLen = len([]rune(d.Subject)) + 2

	for _, e := range entries {
		n := len([]rune(e))
		if curLen+n > limit {
			flush()
		}
		for n > limit {
			r := []rune(e)
			chunks = append(chunks, string(r[:limit]))
			e = string(r[limit:])
			n -= limit
		}
		cur.WriteString(e)
		curLen += n
	}
	flush()
	return chunks
}
