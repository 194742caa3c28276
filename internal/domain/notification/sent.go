// internal/domain/notification/sent.go
package notification

import "time"

// Sent records one notification attempt for an available campsite.
// Corresponds to the 'sent_notifications' table.
type Sent struct {
	ID          int64
	ChatID      int64
	Park        string
	ArrivalDate string
	StayNights  int
	Facility    string
	UnitType    string
	Text        string
	Delivered   bool // false when the Telegram API rejected the message
	SentAt      time.Time
}
