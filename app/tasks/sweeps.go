package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/queue"
)

// FeedSweep enqueues a fetch for every feed not refreshed within the
// refresh interval. It never writes to the store.
type FeedSweep struct {
	feedRepo        database.FeedRepository
	queue           Enqueuer
	refreshInterval time.Duration
	now             func() time.Time
}

func NewFeedSweep(feedRepo database.FeedRepository, q Enqueuer, refreshInterval time.Duration) *FeedSweep {
	return &FeedSweep{
		feedRepo:        feedRepo,
		queue:           q,
		refreshInterval: refreshInterval,
		now:             time.Now,
	}
}

// Run returns the number of tasks enqueued. The first enqueue failure ends
// the sweep; feeds not reached are picked up next time.
func (s *FeedSweep) Run(ctx context.Context) (int, error) {
	before := s.now().UTC().Add(-s.refreshInterval)

	feeds, err := s.feedRepo.GetStaleFeeds(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to load stale feeds: %w", err)
	}

	enqueued := 0
	for _, f := range feeds {
		task := queue.NewTask(string(TaskTypeFetchFeed), map[string]string{ParamFeedID: f.ID})
		if err := s.queue.Enqueue(ctx, task); err != nil {
			slog.Error("Failed to enqueue feed fetch, aborting sweep", "owner", f.Owner, "feed", f.URL, "enqueued", enqueued, "remaining", len(feeds)-enqueued, "error", err)
			return enqueued, fmt.Errorf("failed to enqueue fetch for %s: %w", f.URL, err)
		}
		slog.Debug("Feed fetch enqueued", "owner", f.Owner, "feed", f.URL, "last_update", f.LastUpdate)
		enqueued++
	}

	return enqueued, nil
}

type SweepResult struct {
	Enqueued  int `json:"enqueued"`
	Skipped   int `json:"skipped"`
	Discarded int `json:"discarded"`
}

// Backoff is the delay added to a draft's publish time after n attempts.
func Backoff(n int) time.Duration {
	return time.Duration(n*n) * time.Minute
}

// Eligible reports whether a draft's backoff has elapsed at now.
func Eligible(draft database.Draft, now time.Time) bool {
	return !now.Before(draft.PublishAt.Add(Backoff(draft.RetryCount)))
}

// PublishSweep enqueues delivery of due drafts and discards the ones that
// ran out of attempts.
type PublishSweep struct {
	draftRepo  database.DraftRepository
	queue      Enqueuer
	maxRetries int
	now        func() time.Time
}

func NewPublishSweep(draftRepo database.DraftRepository, q Enqueuer, maxRetries int) *PublishSweep {
	return &PublishSweep{
		draftRepo:  draftRepo,
		queue:      q,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

func (s *PublishSweep) Run(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now().UTC()

	drafts, err := s.draftRepo.GetDueDrafts(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to load due drafts: %w", err)
	}

	for _, draft := range drafts {
		if draft.RetryCount > s.maxRetries {
			if _, err := s.draftRepo.DeleteDraft(ctx, draft.ID); err != nil {
				slog.Error("Failed to discard exhausted draft", "owner", draft.Owner, "title", draft.Title, "error", err)
				continue
			}
			slog.Warn("Draft discarded after exhausting retries, entry will not be published",
				"owner", draft.Owner,
				"title", draft.Title,
				"retry_count", draft.RetryCount,
				"publish_at", draft.PublishAt)
			result.Discarded++
			continue
		}

		if !Eligible(draft, now) {
			result.Skipped++
			continue
		}

		task := queue.NewTask(string(TaskTypePublishDraft), map[string]string{ParamDraftID: draft.ID})
		if err := s.queue.Enqueue(ctx, task); err != nil {
			slog.Error("Failed to enqueue draft publish, aborting sweep", "owner", draft.Owner, "title", draft.Title, "enqueued", result.Enqueued, "error", err)
			return result, fmt.Errorf("failed to enqueue publish for %q: %w", draft.Title, err)
		}
		result.Enqueued++
	}

	return result, nil
}
