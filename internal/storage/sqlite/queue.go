package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"curator/internal/storage"
)

type queueStore struct {
	db *sql.DB
}

func newQueueStore(db *sql.DB) storage.QueueStore {
	return &queueStore{db: db}
}

func (s *queueStore) Enqueue(ctx context.Context, cardID, category string) error {
	query := `
		INSERT INTO high_priority_queue (card_id, category)
		VALUES (?, ?)
		ON CONFLICT(card_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, cardID, category)
	if err != nil {
		return fmt.Errorf("failed to enqueue high priority entry: %w", err)
	}
	return nil
}
