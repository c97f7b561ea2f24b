package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"curator/internal/storage"
	"curator/internal/types"
)

type runStore struct {
	db *sql.DB
}

func newRunStore(db *sql.DB) storage.RunStore {
	return &runStore{db: db}
}

func (s *runStore) ActiveRunsSince(ctx context.Context, cutoff time.Time) ([]types.PipelineRun, error) {
	query := `
		SELECT id, status, started_at, ended_at, runner_id,
			items_fetched, cards_created, cards_skipped, cards_failed, error_message
		FROM pipeline_runs
		WHERE status = ? AND started_at >= ?
	`

	rows, err := s.db.QueryContext(ctx, query, types.RunStatusRunning, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query active runs: %w", err)
	}
	defer rows.Close()

	var runs []types.PipelineRun
	for rows.Next() {
		var run types.PipelineRun
		var endedAt sql.NullTime

		err := rows.Scan(&run.ID, &run.Status, &run.StartedAt, &endedAt, &run.RunnerID,
			&run.ItemsFetched, &run.CardsCreated, &run.CardsSkipped, &run.CardsFailed, &run.ErrorMessage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if endedAt.Valid {
			t := endedAt.Time
			run.EndedAt = &t
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (s *runStore) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE pipeline_runs
		SET status = ?, ended_at = ?, error_message = 'expired by staleness window'
		WHERE status = ? AND started_at < ?
	`

	result, err := s.db.ExecContext(ctx, query, types.RunStatusFailed, time.Now().UTC(), types.RunStatusRunning, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale runs: %w", err)
	}
	return result.RowsAffected()
}

func (s *runStore) Insert(ctx context.Context, run types.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, status, started_at, runner_id, items_fetched, cards_created, cards_skipped, cards_failed, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, run.ID, run.Status, run.StartedAt, run.RunnerID,
		run.ItemsFetched, run.CardsCreated, run.CardsSkipped, run.CardsFailed, run.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to insert run record: %w", err)
	}
	return nil
}

func (s *runStore) Finish(ctx context.Context, run types.PipelineRun) error {
	query := `
		UPDATE pipeline_runs
		SET status = ?, ended_at = ?, items_fetched = ?, cards_created = ?, cards_skipped = ?, cards_failed = ?, error_message = ?
		WHERE id = ?
	`

	_, err := s.db.ExecContext(ctx, query, run.Status, run.EndedAt,
		run.ItemsFetched, run.CardsCreated, run.CardsSkipped, run.CardsFailed, run.ErrorMessage, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish run record: %w", err)
	}
	return nil
}
