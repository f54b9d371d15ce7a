// Package messaging delivers drafted-item notifications over chat and streams.
package messaging

import (
	"context"
	"fmt"

	"draft_worker/core/domain"
	"draft_worker/core/port/out"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram message limits, in characters.
const (
	telegramTextLimit    = 4096
	telegramCaptionLimit = 1024
)

// botSender is the part of *tgbotapi.BotAPI the notifier uses.
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts notifications to one Telegram chat.
type TelegramNotifier struct {
	bot    botSender
	chatID int64
}

var _ out.Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier connects to the Bot API with token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: api, chatID: chatID}, nil
}

// Name implements out.Notifier.
func (n *TelegramNotifier) Name() string { return "telegram" }

// Notify sends the cover image captioned with the subject, then the full text.
func (n *TelegramNotifier) Notify(ctx context.Context, note *domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if note.Image != nil && len(note.Image.Data) > 0 {
		photo := tgbotapi.NewPhoto(n.chatID, tgbotapi.FileBytes{
			Name:  note.Image.Filename,
			Bytes: note.Image.Data,
		})
		photo.Caption = truncateRunes(note.Subject, telegramCaptionLimit)
		if _, err := n.bot.Send(photo); err != nil {
			return fmt.Errorf("telegram photo: %w", err)
		}
	}

	msg := tgbotapi.NewMessage(n.chatID, truncateRunes(note.Subject+"\n\n"+note.Text, telegramTextLimit))
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram message: %w", err)
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
