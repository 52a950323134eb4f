package notify

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tazhate/workoutplanner/internal/log"
)

// Telegram sends short status messages to a single chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram authorizes the bot against the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, chatID, tgbotapi.APIEndpoint)
}

// NewTelegramWithEndpoint is NewTelegram against a custom Bot API server.
func NewTelegramWithEndpoint(token string, chatID int64, endpoint string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("telegram notifier ready", "bot", api.Self.UserName, "chat_id", chatID)
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	_, err := t.api.Send(msg)
	return err
}

// Notify sends text, escaped, to the configured chat.
func (t *Telegram) Notify(text string) error {
	return t.SendMessage(t.chatID, "<b>Workout planner</b>\n"+html.EscapeString(text))
}
