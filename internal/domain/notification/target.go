// internal/domain/notification/target.go
package notification

// Target is the Telegram chat that receives availability notifications.
// It is resolved once at startup from the latest inbound message to the bot.
type Target struct {
	ChatID      int64
	DisplayName string
}
