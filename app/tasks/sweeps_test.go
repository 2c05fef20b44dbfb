package tasks

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/rss-relay/app/database"
)

func TestBackoff(t *testing.T) {
	tests := []struct {
		n        int
		expected time.Duration
	}{
		{0, 0},
		{1, time.Minute},
		{2, 4 * time.Minute},
		{5, 25 * time.Minute},
		{10, 100 * time.Minute},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Backoff(tt.n), "Backoff(%d)", tt.n)
	}
}

func TestEligible(t *testing.T) {
	publishAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	draft := database.Draft{PublishAt: publishAt, RetryCount: 5}

	assert.False(t, Eligible(draft, publishAt))
	assert.False(t, Eligible(draft, publishAt.Add(25*time.Minute-time.Nanosecond)))
	assert.True(t, Eligible(draft, publishAt.Add(25*time.Minute)))
	assert.True(t, Eligible(draft, publishAt.Add(time.Hour)))

	fresh := database.Draft{PublishAt: publishAt}
	assert.True(t, Eligible(fresh, publishAt))
}

func TestFeedSweepEnqueuesStaleFeeds(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	feeds := newMockFeedRepository(
		database.Feed{ID: "stale", Owner: "alice", URL: "https://a.example.com/feed", LastUpdate: now.Add(-2 * time.Hour)},
		database.Feed{ID: "fresh", Owner: "alice", URL: "https://b.example.com/feed", LastUpdate: now.Add(-30 * time.Minute)},
		database.Feed{ID: "edge", Owner: "bob", URL: "https://c.example.com/feed", LastUpdate: now.Add(-time.Hour)},
	)
	q := newMockEnqueuer()

	sweep := NewFeedSweep(feeds, q, time.Hour)
	sweep.now = fixedClock(now)

	enqueued, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, enqueued)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, string(TaskTypeFetchFeed), q.tasks[0].Endpoint)
	assert.Equal(t, "stale", q.tasks[0].Param(ParamFeedID))

	assert.True(t, feeds.get("stale").LastUpdate.Equal(now.Add(-2*time.Hour)), "sweep must not touch the watermark")
}

func TestFeedSweepAbortsOnEnqueueFailure(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	feeds := newMockFeedRepository(
		database.Feed{ID: "f1", URL: "https://1.example.com", LastUpdate: now.Add(-4 * time.Hour)},
		database.Feed{ID: "f2", URL: "https://2.example.com", LastUpdate: now.Add(-3 * time.Hour)},
		database.Feed{ID: "f3", URL: "https://3.example.com", LastUpdate: now.Add(-2 * time.Hour)},
	)
	q := newMockEnqueuer()
	q.failAfter = 1

	sweep := NewFeedSweep(feeds, q, time.Hour)
	sweep.now = fixedClock(now)

	enqueued, err := sweep.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, enqueued)
	assert.Len(t, q.tasks, 1)
	assert.Equal(t, "f1", q.tasks[0].Param(ParamFeedID))
}

func TestPublishSweep(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	drafts := newMockDraftRepository(
		database.Draft{ID: "new", Owner: "alice", Title: "New", PublishAt: now.Add(-time.Minute)},
		database.Draft{ID: "waiting", Owner: "alice", Title: "Waiting", PublishAt: now.Add(-10 * time.Minute), RetryCount: 5},
		database.Draft{ID: "retry-due", Owner: "alice", Title: "Due", PublishAt: now.Add(-30 * time.Minute), RetryCount: 5},
		database.Draft{ID: "exhausted", Owner: "bob", Title: "Exhausted", PublishAt: now.Add(-48 * time.Hour), RetryCount: 101},
		database.Draft{ID: "at-limit", Owner: "bob", Title: "At limit", PublishAt: now.Add(-200 * time.Hour), RetryCount: 100},
		database.Draft{ID: "future", Owner: "bob", Title: "Future", PublishAt: now.Add(time.Minute)},
		database.Draft{ID: "confirmed", Owner: "bob", Title: "Confirmed", PublishAt: now.Add(-time.Hour), DownstreamID: sql.NullString{String: "x", Valid: true}},
	)
	q := newMockEnqueuer()

	sweep := NewPublishSweep(drafts, q, 100)
	sweep.now = fixedClock(now)

	result, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Enqueued: 3, Skipped: 1, Discarded: 1}, result)

	var ids []string
	for _, task := range q.tasks {
		assert.Equal(t, string(TaskTypePublishDraft), task.Endpoint)
		ids = append(ids, task.Param(ParamDraftID))
	}
	assert.Equal(t, []string{"at-limit", "retry-due", "new"}, ids, "oldest drafts first")

	gone, _ := drafts.GetDraft(context.Background(), "exhausted")
	assert.Nil(t, gone)

	// An exhausted draft is never enqueued again.
	q.tasks = nil
	_, err = sweep.Run(context.Background())
	require.NoError(t, err)
	for _, task := range q.tasks {
		assert.NotEqual(t, "exhausted", task.Param(ParamDraftID))
	}
}

func TestPublishSweepAbortsOnEnqueueFailure(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	drafts := newMockDraftRepository(
		database.Draft{ID: "d1", PublishAt: now.Add(-3 * time.Minute)},
		database.Draft{ID: "d2", PublishAt: now.Add(-2 * time.Minute)},
		database.Draft{ID: "d3", PublishAt: now.Add(-1 * time.Minute)},
	)
	q := newMockEnqueuer()
	q.failAfter = 2

	sweep := NewPublishSweep(drafts, q, 100)
	sweep.now = fixedClock(now)

	result, err := sweep.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, result.Enqueued)

	count, _ := drafts.GetDraftCount(context.Background())
	assert.Equal(t, 3, count, "aborted sweep must not delete anything")
}
