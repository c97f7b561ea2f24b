package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"curator/internal/storage"
	"curator/internal/types"
)

type cardStore struct {
	db *sql.DB
}

func newCardStore(db *sql.DB) storage.CardStore {
	return &cardStore{db: db}
}

func (s *cardStore) Insert(ctx context.Context, card types.Card) (bool, error) {
	engagement, err := marshalEngagement(card.Engagement)
	if err != nil {
		return false, fmt.Errorf("failed to encode engagement: %w", err)
	}

	query := `
		INSERT INTO cards (id, source_id, canonical_url, url_hash, category, headline, summary,
			author, published_at, engagement, quality_score, pipeline_version,
			is_suspended, flag_count, reaction_up_count, reaction_down_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url_hash) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		card.ID, card.SourceID, card.CanonicalURL, card.URLHash, card.Category,
		card.Headline, card.Summary, card.Author, card.PublishedAt, engagement,
		card.QualityScore, card.PipelineVersion, card.IsSuspended, card.FlagCount,
		card.ReactionUpCount, card.ReactionDownCount)
	if err != nil {
		return false, fmt.Errorf("failed to insert card: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return rows > 0, nil
}

func (s *cardStore) ExistsByURLHash(ctx context.Context, urlHash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards WHERE url_hash = ?`, urlHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check url hash existence: %w", err)
	}
	return count > 0, nil
}

func (s *cardStore) ListPublishedBetween(ctx context.Context, from, to time.Time) ([]types.Card, error) {
	query := `
		SELECT id, source_id, canonical_url, url_hash, category, headline, summary,
			author, published_at, engagement, quality_score, pipeline_version,
			is_suspended, flag_count, reaction_up_count, reaction_down_count
		FROM cards
		WHERE published_at >= ? AND published_at <= ?
	`

	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by window: %w", err)
	}
	defer rows.Close()

	var cards []types.Card
	for rows.Next() {
		var card types.Card
		var author sql.NullString
		var engagement sql.NullString

		err := rows.Scan(&card.ID, &card.SourceID, &card.CanonicalURL, &card.URLHash,
			&card.Category, &card.Headline, &card.Summary, &author, &card.PublishedAt,
			&engagement, &card.QualityScore, &card.PipelineVersion, &card.IsSuspended,
			&card.FlagCount, &card.ReactionUpCount, &card.ReactionDownCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}

		if author.Valid {
			card.Author = &author.String
		}
		if engagement.Valid && engagement.String != "" {
			var e types.Engagement
			if err := json.Unmarshal([]byte(engagement.String), &e); err != nil {
				return nil, fmt.Errorf("failed to decode engagement: %w", err)
			}
			card.Engagement = &e
		}

		cards = append(cards, card)
	}

	return cards, rows.Err()
}

func marshalEngagement(e *types.Engagement) (sql.NullString, error) {
	if e == nil {
		return sql.NullString{}, nil
	}
	return marshalJSON(e)
}
