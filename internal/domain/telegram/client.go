package telegram

import (
	"context"

	"campsite_notification_bot/internal/domain/notification"
)

// Client defines the messaging operations the poll loop depends on.
// This keeps the application logic independent of the bot library.
type Client interface {
	ResolveTarget(ctx context.Context) (notification.Target, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}
