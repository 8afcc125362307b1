package notify

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender sends chat messages through the Telegram Bot API.
// The recipient is the user's numeric Telegram chat id.
type TelegramSender struct {
	api *tgbotapi.BotAPI
}

// NewTelegramSender authorizes a bot with the given token.
func NewTelegramSender(token string) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSender{api: api}, nil
}

// Send implements ChatSender.
func (t *TelegramSender) Send(recipient, text string) error {
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}
