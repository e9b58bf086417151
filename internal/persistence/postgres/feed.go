package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tug/internal/domain"
)

// FeedRepository reads the feed projection maintained by the feed worker.
type FeedRepository struct {
	pool *pgxpool.Pool
}

// NewFeedRepository constructs a FeedRepository.
func NewFeedRepository(pool *pgxpool.Pool) *FeedRepository {
	return &FeedRepository{pool: pool}
}

// ListRecent returns the newest public feed items.
func (r *FeedRepository) ListRecent(ctx context.Context, limit int) ([]domain.FeedItem, error) {
	const query = `SELECT feed_item_id, activity_id, owner_id, title, primary_value, duration_min, occurred_on, notes, created_at
        FROM feed_items ORDER BY feed_item_id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.FeedItem, 0, limit)
	for rows.Next() {
		var item domain.FeedItem
		if err := rows.Scan(
			&item.ID,
			&item.ActivityID,
			&item.OwnerID,
			&item.Title,
			&item.PrimaryValue,
			&item.DurationMin,
			&item.OccurredOn,
			&item.Notes,
			&item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
