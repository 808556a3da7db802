package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramMaxMessage is Telegram's limit on a single message text.
const telegramMaxMessage = 4096

// TelegramNotifier posts messages to one chat. The bot is created on the
// first send so a misconfigured token only fails when something is sent.
type TelegramNotifier struct {
	token    string
	chatID   int64
	endpoint string

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier creates a notifier for chatID.
func NewTelegramNotifier(token string, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{token: token, chatID: chatID, endpoint: tgbotapi.APIEndpoint}
}

// WithEndpoint overrides the Bot API endpoint format string.
func (t *TelegramNotifier) WithEndpoint(endpoint string) *TelegramNotifier {
	t.endpoint = endpoint
	return t
}

func (t *TelegramNotifier) client() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.token, t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	t.bot = bot
	return bot, nil
}

// Send implements Notifier. Long texts are split on line boundaries.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	bot, err := t.client()
	if err != nil {
		return err
	}
	for _, chunk := range splitMessage(text, telegramMaxMessage) {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.DisableWebPagePreview = true
		if _, err := bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send: %w", err)
		}
	}
	return nil
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var (
		chunks []string
		cur    strings.Builder
	)
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			chunks = append(chunks, line[:limit])
			line = line[limit:]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
