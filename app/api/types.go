package api

import (
	"context"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/owners"
	"github.com/lysyi3m/rss-relay/app/queue"
	"github.com/lysyi3m/rss-relay/app/tasks"
)

type CredentialGuard interface {
	Credential(ctx context.Context, owner string) (*database.Credential, error)
}

type FeedSweeper interface {
	Run(ctx context.Context) (int, error)
}

type PublishSweeper interface {
	Run(ctx context.Context) (tasks.SweepResult, error)
}

var (
	_ FeedSweeper    = (*tasks.FeedSweep)(nil)
	_ PublishSweeper = (*tasks.PublishSweep)(nil)
)

type Handler struct {
	feedRepo     database.FeedRepository
	draftRepo    database.DraftRepository
	configCache  *owners.ConfigCache
	dispatcher   queue.Dispatcher
	feedSweep    FeedSweeper
	publishSweep PublishSweeper
	queueBackend string
	version      string
}

type AddFeedRequest struct {
	URL string `json:"url" form:"url" binding:"required"`
}
