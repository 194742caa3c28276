// internal/domain/notification/repository.go
package notification

import "context"

// Repository stores the history of notification attempts.
type Repository interface {
	Record(ctx context.Context, sent *Sent) error
	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*Sent, error)
}
