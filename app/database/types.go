package database

import (
	"database/sql"
	"time"
)

// Feed is a subscribed source. LastUpdate is its watermark: entries older
// than it have already been turned into drafts.
type Feed struct {
	ID         string    `db:"id"`
	Owner      string    `db:"owner"`
	URL        string    `db:"url"`
	LastUpdate time.Time `db:"last_update"`
	CreatedAt  time.Time `db:"created_at"`
}

// Draft is a post waiting to be delivered downstream. A draft that exists
// has not been confirmed; successful delivery deletes it.
type Draft struct {
	ID             string         `db:"id"`
	Owner          string         `db:"owner"`
	Title          string         `db:"title"`
	Body           string         `db:"body"`
	EntryUpdatedAt time.Time      `db:"entry_updated_at"` // source entry timestamp, sent as publishTime
	PublishAt      time.Time      `db:"publish_at"`       // base of the retry backoff
	RetryCount     int            `db:"retry_count"`
	DownstreamID   sql.NullString `db:"downstream_id"`
	CreatedAt      time.Time      `db:"created_at"`
}

type Credential struct {
	ID          string    `db:"id"`
	Owner       string    `db:"owner"`
	TokenKey    string    `db:"token_key"`
	TokenSecret string    `db:"token_secret"`
	Email       string    `db:"email"`
	CreatedAt   time.Time `db:"created_at"`
}
