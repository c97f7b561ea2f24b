package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"curator/internal/storage"
	"curator/internal/types"
)

type rawItemStore struct {
	db *sql.DB
}

func newRawItemStore(db *sql.DB) storage.RawItemStore {
	return &rawItemStore{db: db}
}

func (s *rawItemStore) Insert(ctx context.Context, item types.RawItem) error {
	metadata, err := marshalJSON(item.RawMetadata)
	if err != nil {
		return fmt.Errorf("failed to encode raw metadata: %w", err)
	}

	query := `
		INSERT INTO raw_items (id, source_id, canonical_url, raw_title, raw_text, raw_metadata, published_at, fetched_at, processed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	_, err = s.db.ExecContext(ctx, query,
		item.ID, item.SourceID, item.CanonicalURL, item.RawTitle,
		item.RawText, metadata, item.PublishedAt, item.FetchedAt, item.Processed)
	if err != nil {
		return fmt.Errorf("failed to insert raw item: %w", err)
	}

	return nil
}

func (s *rawItemStore) ListUnprocessed(ctx context.Context, limit int) ([]types.RawItem, error) {
	query := `
		SELECT id, source_id, canonical_url, raw_title, raw_text, raw_metadata, published_at, fetched_at, processed
		FROM raw_items
		WHERE processed = FALSE
		ORDER BY fetched_at ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unprocessed items: %w", err)
	}
	defer rows.Close()

	var items []types.RawItem
	for rows.Next() {
		item, err := scanRawItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func (s *rawItemStore) CountUnprocessed(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_items WHERE processed = FALSE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unprocessed items: %w", err)
	}
	return count, nil
}

func (s *rawItemStore) MarkProcessed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE raw_items SET processed = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark item processed: %w", err)
	}
	return nil
}

func scanRawItem(rows *sql.Rows) (types.RawItem, error) {
	var item types.RawItem
	var rawText sql.NullString
	var metadata sql.NullString
	var publishedAt sql.NullTime

	err := rows.Scan(&item.ID, &item.SourceID, &item.CanonicalURL, &item.RawTitle,
		&rawText, &metadata, &publishedAt, &item.FetchedAt, &item.Processed)
	if err != nil {
		return types.RawItem{}, fmt.Errorf("failed to scan raw item: %w", err)
	}

	if rawText.Valid {
		item.RawText = &rawText.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		item.PublishedAt = &t
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &item.RawMetadata); err != nil {
			return types.RawItem{}, fmt.Errorf("failed to decode raw metadata: %w", err)
		}
	}

	return item, nil
}

func marshalJSON(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
