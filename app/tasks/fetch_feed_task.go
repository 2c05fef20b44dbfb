package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/feed"
)

// FetchFeedTask turns the entries of one feed that are newer than its
// watermark into drafts, then moves the watermark to the fetch start time.
type FetchFeedTask struct {
	Task
	FeedID    string
	feedRepo  database.FeedRepository
	draftRepo database.DraftRepository
	fetcher   FeedFetcher
	parser    *feed.Parser
	now       func() time.Time
}

func NewFetchFeedTask(id, feedID string, feedRepo database.FeedRepository, draftRepo database.DraftRepository, fetcher FeedFetcher, parser *feed.Parser) *FetchFeedTask {
	return &FetchFeedTask{
		Task:      NewTask(TaskTypeFetchFeed, id),
		FeedID:    feedID,
		feedRepo:  feedRepo,
		draftRepo: draftRepo,
		fetcher:   fetcher,
		parser:    parser,
		now:       time.Now,
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	f, err := t.feedRepo.GetFeed(ctx, t.FeedID)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}
	if f == nil {
		slog.Warn("Feed not found, skipping", "feed_id", t.FeedID)
		return nil
	}

	// Both bounds are taken before the request so that entries published
	// while it is in flight fall into the next window.
	watermark := f.LastUpdate
	fetchStart := t.now().UTC()

	data, err := t.fetcher.Fetch(ctx, f.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed %s: %w", f.URL, err)
	}

	metadata, entries, err := t.parser.Run(data)
	if err != nil {
		return fmt.Errorf("failed to parse feed %s: %w", f.URL, err)
	}

	if metadata.Title != "" {
		slog.Debug("Processing feed", "owner", f.Owner, "feed", f.URL, "title", metadata.Title, "last_update", watermark)
	}

	created, skipped := 0, 0
	for _, entry := range entries {
		if !entry.HasTimestamp() {
			slog.Warn("Entry has no updated date, skipping", "owner", f.Owner, "feed", f.URL, "guid", entry.GUID)
			skipped++
			continue
		}
		if !entry.HasTitle() {
			slog.Warn("Entry is missing a title, skipping", "owner", f.Owner, "feed", f.URL, "guid", entry.GUID)
			skipped++
			continue
		}
		if !entry.HasLink() {
			slog.Warn("Entry is missing a link, skipping", "owner", f.Owner, "feed", f.URL, "title", entry.Title)
			skipped++
			continue
		}

		// Feeds list newest first; everything from here on was seen already.
		if entry.UpdatedAt.Before(watermark) {
			break
		}

		draft := &database.Draft{
			Owner:          f.Owner,
			Title:          entry.Title,
			Body:           feed.Body(entry),
			EntryUpdatedAt: *entry.UpdatedAt,
		}
		if err := t.draftRepo.CreateDraft(ctx, draft); err != nil {
			slog.Error("Failed to store draft, stopping", "owner", f.Owner, "feed", f.URL, "title", entry.Title, "error", err)
			break
		}

		slog.Info("Queued draft", "owner", f.Owner, "feed", f.URL, "title", draft.Title, "updated_at", draft.EntryUpdatedAt)
		created++
	}

	advanced, err := t.feedRepo.AdvanceWatermark(ctx, f.ID, fetchStart)
	if err != nil {
		return fmt.Errorf("failed to advance watermark of %s: %w", f.URL, err)
	}
	if !advanced {
		slog.Debug("Watermark already ahead, left unchanged", "owner", f.Owner, "feed", f.URL, "fetch_start", fetchStart)
	}

	slog.Info("Task completed",
		"type", "FetchFeed",
		"owner", f.Owner,
		"feed", f.URL,
		"duration", t.GetDuration(),
		"total", len(entries),
		"skipped", skipped,
		"new", created)

	return nil
}
