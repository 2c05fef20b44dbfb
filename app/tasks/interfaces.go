package tasks

import (
	"context"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/ning"
	"github.com/lysyi3m/rss-relay/app/queue"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
}

// Enqueuer is the producer half of a queue.Queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, task queue.Task) error
}

type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type CredentialGuard interface {
	Credential(ctx context.Context, owner string) (*database.Credential, error)
	Forget(owner string)
}

type Publisher interface {
	Publish(ctx context.Context, token ning.Token, post ning.Post) (string, error)
}

var (
	_ TaskSchedulerInterface = (*Scheduler)(nil)
	_ queue.Dispatcher       = (*Dispatcher)(nil)
	_ TaskInterface          = (*FetchFeedTask)(nil)
	_ TaskInterface          = (*PublishDraftTask)(nil)
	_ TaskInterface          = (*SyncOwnerConfigTask)(nil)
)
