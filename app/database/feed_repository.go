package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const feedColumns = `id, owner, url, last_update, created_at`

// SQLFeedRepository handles database operations for feeds
type SQLFeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

// GetFeed retrieves a feed by key, nil when it does not exist
func (r *SQLFeedRepository) GetFeed(ctx context.Context, id string) (*Feed, error) {
	var feed Feed
	err := r.db.GetContext(ctx, &feed, r.db.Rebind(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE id = ?
	`), id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return normalizeFeed(&feed), nil
}

func (r *SQLFeedRepository) GetFeedByOwnerURL(ctx context.Context, owner, url string) (*Feed, error) {
	var feed Feed
	err := r.db.GetContext(ctx, &feed, r.db.Rebind(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE owner = ? AND url = ?
	`), owner, url)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by owner and URL: %w", err)
	}

	return normalizeFeed(&feed), nil
}

// GetStaleFeeds returns feeds whose watermark is older than before
func (r *SQLFeedRepository) GetStaleFeeds(ctx context.Context, before time.Time) ([]Feed, error) {
	var feeds []Feed
	err := r.db.SelectContext(ctx, &feeds, r.db.Rebind(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE last_update < ?
		ORDER BY last_update
	`), before.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get stale feeds: %w", err)
	}

	for i := range feeds {
		normalizeFeed(&feeds[i])
	}

	return feeds, nil
}

// ListFeeds returns the feeds of one owner, or every feed when owner is empty
func (r *SQLFeedRepository) ListFeeds(ctx context.Context, owner string) ([]Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY owner, url`

	var feeds []Feed
	if err := r.db.SelectContext(ctx, &feeds, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}

	for i := range feeds {
		normalizeFeed(&feeds[i])
	}

	return feeds, nil
}

// GetFeedCount returns the total number of feeds
func (r *SQLFeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM feeds"); err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// EnsureFeed registers a feed for owner unless it already exists. A new feed
// starts with its watermark at the registration time. The bool reports
// whether a row was created.
func (r *SQLFeedRepository) EnsureFeed(ctx context.Context, owner, url string) (*Feed, bool, error) {
	existing, err := r.GetFeedByOwnerURL(ctx, owner, url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing feed: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	feed := &Feed{
		ID:         uuid.NewString(),
		Owner:      owner,
		URL:        url,
		LastUpdate: now,
		CreatedAt:  now,
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO feeds (id, owner, url, last_update, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), feed.ID, feed.Owner, feed.URL, feed.LastUpdate, feed.CreatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert feed: %w", err)
	}

	return feed, true, nil
}

// AdvanceWatermark moves last_update forward to watermark. Overlapping runs
// resolve last-write-wins among forward moves; a write that would move the
// watermark backwards is ignored and reported as false.
func (r *SQLFeedRepository) AdvanceWatermark(ctx context.Context, id string, watermark time.Time) (bool, error) {
	watermark = watermark.UTC()

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE feeds
		SET last_update = ?
		WHERE id = ? AND last_update <= ?
	`), watermark, id, watermark)
	if err != nil {
		return false, fmt.Errorf("failed to advance watermark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func normalizeFeed(feed *Feed) *Feed {
	feed.LastUpdate = feed.LastUpdate.UTC()
	feed.CreatedAt = feed.CreatedAt.UTC()
	return feed
}
