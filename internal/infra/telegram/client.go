// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"campsite_notification_bot/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

var ErrResolution = fmt.Errorf("could not resolve notification target")
var ErrNoInboundMessage = fmt.Errorf("%w: no message has been sent to the bot yet", ErrResolution)

const requestTimeout = 30 * time.Second

// TelebotAdapter implements the domain Client interface using gopkg.in/telebot.v3.
// The bot never polls; it only reads pending updates once and sends messages.
type TelebotAdapter struct {
	bot    *telebot.Bot
	logger *logrus.Entry
}

// NewTelebotAdapter creates an offline bot for token. apiURL overrides the
// Telegram Bot API endpoint; empty means the public one.
func NewTelebotAdapter(token, apiURL string, logger *logrus.Entry) (*TelebotAdapter, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		URL:     apiURL,
		Offline: true,
		Client:  &http.Client{Timeout: requestTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &TelebotAdapter{bot: b, logger: logger}, nil
}

// ResolveTarget picks the chat of the most recent inbound message.
// Updates are read without an offset so they are not acknowledged.
func (a *TelebotAdapter) ResolveTarget(ctx context.Context) (notification.Target, error) {
	if err := ctx.Err(); err != nil {
		return notification.Target{}, err
	}

	data, err := a.bot.Raw("getUpdates", map[string]string{})
	if err != nil {
		return notification.Target{}, fmt.Errorf("%w: getUpdates: %v", ErrResolution, err)
	}

	var resp struct {
		Result []telebot.Update `json:"result"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return notification.Target{}, fmt.Errorf("%w: decoding updates: %v", ErrResolution, err)
	}

	for i := len(resp.Result) - 1; i >= 0; i-- {
		msg := resp.Result[i].Message
		if msg == nil || msg.Chat == nil {
			continue
		}
		target := notification.Target{ChatID: msg.Chat.ID, DisplayName: displayName(msg)}
		a.logger.WithFields(logrus.Fields{
			"chat_id": target.ChatID,
			"name":    target.DisplayName,
		}).Info("Resolved notification target")
		return target, nil
	}
	return notification.Target{}, ErrNoInboundMessage
}

func displayName(msg *telebot.Message) string {
	switch {
	case msg.Chat.FirstName != "":
		return msg.Chat.FirstName
	case msg.Sender != nil && msg.Sender.FirstName != "":
		return msg.Sender.FirstName
	case msg.Chat.Title != "":
		return msg.Chat.Title
	default:
		return msg.Chat.Username
	}
}

// SendMessage sends a plain text message to chatID.
func (a *TelebotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := a.bot.Send(&telebot.Chat{ID: chatID}, text)
	return err
}
