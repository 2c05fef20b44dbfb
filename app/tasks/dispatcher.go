package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
	"github.com/lysyi3m/rss-relay/app/queue"
)

// Dispatcher routes delivered queue tasks to their handler by endpoint.
type Dispatcher struct {
	feedRepo  database.FeedRepository
	draftRepo database.DraftRepository
	fetcher   FeedFetcher
	parser    *feed.Parser
	guard     CredentialGuard
	publisher Publisher
}

func NewDispatcher(feedRepo database.FeedRepository, draftRepo database.DraftRepository, fetcher FeedFetcher,
	parser *feed.Parser, guard CredentialGuard, publisher Publisher) *Dispatcher {
	return &Dispatcher{
		feedRepo:  feedRepo,
		draftRepo: draftRepo,
		fetcher:   fetcher,
		parser:    parser,
		guard:     guard,
		publisher: publisher,
	}
}

// Dispatch runs the task to completion. Errors are logged here and returned
// for the transport's information only.
func (d *Dispatcher) Dispatch(ctx context.Context, qt queue.Task) error {
	task, err := d.build(qt)
	if err != nil {
		if errors.Is(err, queue.ErrUnknownEndpoint) {
			slog.Warn("Dropping task for unknown endpoint", "endpoint", qt.Endpoint, "id", qt.ID)
		} else {
			slog.Error("Dropping malformed task", "endpoint", qt.Endpoint, "id", qt.ID, "error", err)
		}
		return err
	}

	task.Start()
	if err := task.Execute(ctx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
		return err
	}

	return nil
}

func (d *Dispatcher) build(qt queue.Task) (TaskInterface, error) {
	switch TaskType(qt.Endpoint) {
	case TaskTypeFetchFeed:
		feedID := qt.Param(ParamFeedID)
		if feedID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingParam, ParamFeedID)
		}
		return NewFetchFeedTask(qt.ID, feedID, d.feedRepo, d.draftRepo, d.fetcher, d.parser), nil

	case TaskTypePublishDraft:
		draftID := qt.Param(ParamDraftID)
		if draftID == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingParam, ParamDraftID)
		}
		return NewPublishDraftTask(qt.ID, draftID, d.draftRepo, d.guard, d.publisher), nil

	default:
		return nil, fmt.Errorf("%w: %s", queue.ErrUnknownEndpoint, qt.Endpoint)
	}
}
