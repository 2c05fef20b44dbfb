package database

import (
	"context"
	"time"
)

type FeedRepository interface {
	GetFeed(ctx context.Context, id string) (*Feed, error)
	GetFeedByOwnerURL(ctx context.Context, owner, url string) (*Feed, error)
	GetStaleFeeds(ctx context.Context, before time.Time) ([]Feed, error)
	ListFeeds(ctx context.Context, owner string) ([]Feed, error)
	GetFeedCount(ctx context.Context) (int, error)

	EnsureFeed(ctx context.Context, owner, url string) (*Feed, bool, error)
	AdvanceWatermark(ctx context.Context, id string, watermark time.Time) (bool, error)
}

type DraftRepository interface {
	GetDraft(ctx context.Context, id string) (*Draft, error)
	GetDueDrafts(ctx context.Context, now time.Time) ([]Draft, error)
	ListDrafts(ctx context.Context, owner string) ([]Draft, error)
	GetDraftCount(ctx context.Context) (int, error)

	CreateDraft(ctx context.Context, draft *Draft) error
	IncrementRetryCount(ctx context.Context, id string) (int, error)
	DeleteDraft(ctx context.Context, id string) (bool, error)
}

type CredentialRepository interface {
	GetCredentials(ctx context.Context, owner string) ([]Credential, error)
	UpsertCredential(ctx context.Context, owner, tokenKey, tokenSecret, email string) error
}

var (
	_ FeedRepository       = (*SQLFeedRepository)(nil)
	_ DraftRepository      = (*SQLDraftRepository)(nil)
	_ CredentialRepository = (*SQLCredentialRepository)(nil)
)
