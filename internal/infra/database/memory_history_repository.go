package database

import (
	"context"
	"sync"
	"time"

	"campsite_notification_bot/internal/domain/notification"
)

// MemoryHistoryCapacity is how many records MemoryHistoryRepository keeps.
// Older records are overwritten.
const MemoryHistoryCapacity = 500

// MemoryHistoryRepository keeps the most recent notification attempts for the
// life of the process. It is used when no database_url is configured.
type MemoryHistoryRepository struct {
	mu     sync.Mutex
	nextID int64
	ring   []notification.Sent
	head   int // index of the next write
	count  int
	now    func() time.Time
}

// NewMemoryHistoryRepository returns a repository holding at most
// MemoryHistoryCapacity records.
func NewMemoryHistoryRepository() *MemoryHistoryRepository {
	return newMemoryHistoryRepository(MemoryHistoryCapacity)
}

func newMemoryHistoryRepository(capacity int) *MemoryHistoryRepository {
	return &MemoryHistoryRepository{ring: make([]notification.Sent, capacity), now: time.Now}
}

func (r *MemoryHistoryRepository) Record(_ context.Context, s *notification.Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	s.ID = r.nextID
	s.SentAt = r.now()

	r.ring[r.head] = *s
	r.head = (r.head + 1) % len(r.ring)
	if r.count < len(r.ring) {
		r.count++
	}
	return nil
}

func (r *MemoryHistoryRepository) ListRecent(_ context.Context, limit int) ([]*notification.Sent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit > r.count {
		limit = r.count
	}
	out := make([]*notification.Sent, 0, max(limit, 0))
	for i := 1; i <= limit; i++ {
		s := r.ring[(r.head-i+len(r.ring))%len(r.ring)]
		out = append(out, &s)
	}
	return out, nil
}
