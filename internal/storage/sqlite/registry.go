package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"curator/internal/storage"
	"curator/internal/types"
)

type registryStore struct {
	db *sql.DB
}

func newRegistryStore(db *sql.DB) storage.RegistryStore {
	return &registryStore{db: db}
}

func (s *registryStore) Sync(ctx context.Context, states []types.SourceState) error {
	query := `
		INSERT INTO source_registry (id, api_type, is_active, last_polled_at, default_category, poll_interval_s)
		VALUES (?, ?, ?, NULL, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			api_type = excluded.api_type,
			default_category = excluded.default_category,
			poll_interval_s = excluded.poll_interval_s
	`

	for _, state := range states {
		_, err := s.db.ExecContext(ctx, query,
			state.ID, state.APIType, state.IsActive, state.DefaultCategory, state.PollIntervalS)
		if err != nil {
			return fmt.Errorf("failed to sync registry row %s: %w", state.ID, err)
		}
	}
	return nil
}

func (s *registryStore) ListActive(ctx context.Context) ([]types.SourceState, error) {
	query := `
		SELECT id, api_type, is_active, last_polled_at, default_category, poll_interval_s
		FROM source_registry
		WHERE is_active = TRUE
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	defer rows.Close()

	var states []types.SourceState
	for rows.Next() {
		var state types.SourceState
		var lastPolled sql.NullTime

		err := rows.Scan(&state.ID, &state.APIType, &state.IsActive,
			&lastPolled, &state.DefaultCategory, &state.PollIntervalS)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		if lastPolled.Valid {
			t := lastPolled.Time
			state.LastPolledAt = &t
		}
		states = append(states, state)
	}

	return states, rows.Err()
}

func (s *registryStore) SetLastPolled(ctx context.Context, id string, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE source_registry SET last_polled_at = ? WHERE id = ?`, t, id)
	if err != nil {
		return fmt.Errorf("failed to advance last_polled_at for %s: %w", id, err)
	}
	return nil
}
