// internal/infra/database/postgres_history_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"

	"campsite_notification_bot/internal/domain/notification"
)

const schema = `CREATE TABLE IF NOT EXISTS sent_notifications (
	id           BIGSERIAL PRIMARY KEY,
	chat_id      BIGINT      NOT NULL,
	park         TEXT        NOT NULL,
	arrival_date TEXT        NOT NULL,
	stay_nights  INTEGER     NOT NULL,
	facility     TEXT        NOT NULL,
	unit_type    TEXT        NOT NULL,
	text         TEXT        NOT NULL,
	delivered    BOOLEAN     NOT NULL,
	sent_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresHistoryRepository struct {
	db *sql.DB
}

// NewPostgresHistoryRepository stores history in the sent_notifications table.
func NewPostgresHistoryRepository(db *sql.DB) *PostgresHistoryRepository {
	return &PostgresHistoryRepository{db: db}
}

// EnsureSchema creates the sent_notifications table if it does not exist.
func (r *PostgresHistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating sent_notifications table: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) Record(ctx context.Context, s *notification.Sent) error {
	query := `INSERT INTO sent_notifications
               (chat_id, park, arrival_date, stay_nights, facility, unit_type, text, delivered)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
               RETURNING id, sent_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ChatID, s.Park, s.ArrivalDate, s.StayNights, s.Facility, s.UnitType, s.Text, s.Delivered,
	).Scan(&s.ID, &s.SentAt)
	if err != nil {
		return fmt.Errorf("error recording notification: %w", err)
	}
	return nil
}

func (r *PostgresHistoryRepository) ListRecent(ctx context.Context, limit int) ([]*notification.Sent, error) {
	query := `SELECT id, chat_id, park, arrival_date, stay_nights, facility, unit_type, text, delivered, sent_at
               FROM sent_notifications ORDER BY sent_at DESC, id DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Sent
	for rows.Next() {
		s := &notification.Sent{}
		if err := rows.Scan(&s.ID, &s.ChatID, &s.Park, &s.ArrivalDate, &s.StayNights,
			&s.Facility, &s.UnitType, &s.Text, &s.Delivered, &s.SentAt); err != nil {
			return nil, fmt.Errorf("error scanning notification row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification rows: %w", err)
	}
	return out, nil
}
