package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/ning"
	"github.com/lysyi3m/rss-relay/app/queue"
)

type mockFeedRepository struct {
	mu    sync.Mutex
	feeds map[string]*database.Feed
	seq   int
}

func newMockFeedRepository(feeds ...database.Feed) *mockFeedRepository {
	r := &mockFeedRepository{feeds: make(map[string]*database.Feed)}
	for _, f := range feeds {
		f := f
		r.feeds[f.ID] = &f
	}
	return r
}

func (r *mockFeedRepository) get(id string) database.Feed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.feeds[id]
}

func (r *mockFeedRepository) GetFeed(ctx context.Context, id string) (*database.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[id]
	if !ok {
		return nil, nil
	}
	copied := *f
	return &copied, nil
}

func (r *mockFeedRepository) GetFeedByOwnerURL(ctx context.Context, owner, url string) (*database.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.feeds {
		if f.Owner == owner && f.URL == url {
			copied := *f
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *mockFeedRepository) GetStaleFeeds(ctx context.Context, before time.Time) ([]database.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var feeds []database.Feed
	for _, f := range r.feeds {
		if f.LastUpdate.Before(before) {
			feeds = append(feeds, *f)
		}
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].LastUpdate.Before(feeds[j].LastUpdate) })
	return feeds, nil
}

func (r *mockFeedRepository) ListFeeds(ctx context.Context, owner string) ([]database.Feed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var feeds []database.Feed
	for _, f := range r.feeds {
		if owner == "" || f.Owner == owner {
			feeds = append(feeds, *f)
		}
	}
	sort.Slice(feeds, func(i, j int) bool { return feeds[i].URL < feeds[j].URL })
	return feeds, nil
}

func (r *mockFeedRepository) GetFeedCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.feeds), nil
}

func (r *mockFeedRepository) EnsureFeed(ctx context.Context, owner, url string) (*database.Feed, bool, error) {
	if f, _ := r.GetFeedByOwnerURL(ctx, owner, url); f != nil {
		return f, false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	now := time.Now().UTC()
	f := &database.Feed{ID: fmt.Sprintf("feed-%d", r.seq), Owner: owner, URL: url, LastUpdate: now, CreatedAt: now}
	r.feeds[f.ID] = f
	copied := *f
	return &copied, true, nil
}

func (r *mockFeedRepository) AdvanceWatermark(ctx context.Context, id string, watermark time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.feeds[id]
	if !ok || f.LastUpdate.After(watermark) {
		return false, nil
	}
	f.LastUpdate = watermark
	return true, nil
}

type mockDraftRepository struct {
	mu        sync.Mutex
	drafts    map[string]*database.Draft
	seq       int
	createErr error
	failAfter int
}

func newMockDraftRepository(drafts ...database.Draft) *mockDraftRepository {
	r := &mockDraftRepository{drafts: make(map[string]*database.Draft), failAfter: -1}
	for _, d := range drafts {
		d := d
		r.drafts[d.ID] = &d
	}
	return r
}

func (r *mockDraftRepository) all() []database.Draft {
	drafts, _ := r.ListDrafts(context.Background(), "")
	return drafts
}

func (r *mockDraftRepository) GetDraft(ctx context.Context, id string) (*database.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (r *mockDraftRepository) GetDueDrafts(ctx context.Context, now time.Time) ([]database.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var drafts []database.Draft
	for _, d := range r.drafts {
		if !d.PublishAt.After(now) && !d.DownstreamID.Valid {
			drafts = append(drafts, *d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].PublishAt.Before(drafts[j].PublishAt) })
	return drafts, nil
}

func (r *mockDraftRepository) ListDrafts(ctx context.Context, owner string) ([]database.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var drafts []database.Draft
	for _, d := range r.drafts {
		if owner == "" || d.Owner == owner {
			drafts = append(drafts, *d)
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].ID < drafts[j].ID })
	return drafts, nil
}

func (r *mockDraftRepository) GetDraftCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts), nil
}

func (r *mockDraftRepository) CreateDraft(ctx context.Context, draft *database.Draft) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil && r.failAfter >= 0 && len(r.drafts) >= r.failAfter {
		return r.createErr
	}
	r.seq++
	draft.ID = fmt.Sprintf("draft-%03d", r.seq)
	now := time.Now().UTC()
	if draft.PublishAt.IsZero() {
		draft.PublishAt = now
	}
	draft.CreatedAt = now
	draft.RetryCount = 0
	copied := *draft
	r.drafts[draft.ID] = &copied
	return nil
}

func (r *mockDraftRepository) IncrementRetryCount(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.drafts[id]
	if !ok {
		return 0, database.ErrNotFound
	}
	d.RetryCount++
	return d.RetryCount, nil
}

func (r *mockDraftRepository) DeleteDraft(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.drafts[id]
	delete(r.drafts, id)
	return ok, nil
}

type mockCredentialRepository struct {
	mu          sync.Mutex
	credentials map[string][]database.Credential
}

func newMockCredentialRepository() *mockCredentialRepository {
	return &mockCredentialRepository{credentials: make(map[string][]database.Credential)}
}

func (r *mockCredentialRepository) GetCredentials(ctx context.Context, owner string) ([]database.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.credentials[owner], nil
}

func (r *mockCredentialRepository) UpsertCredential(ctx context.Context, owner, tokenKey, tokenSecret, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.credentials[owner] = []database.Credential{{ID: "cred-" + owner, Owner: owner, TokenKey: tokenKey, TokenSecret: tokenSecret, Email: email}}
	return nil
}

type mockGuard struct {
	credentials map[string]*database.Credential
	err         error
	forgotten   []string
}

func (g *mockGuard) Credential(ctx context.Context, owner string) (*database.Credential, error) {
	if g.err != nil {
		return nil, g.err
	}
	c, ok := g.credentials[owner]
	if !ok {
		return nil, errors.New("no credential")
	}
	return c, nil
}

func (g *mockGuard) Forget(owner string) {
	g.forgotten = append(g.forgotten, owner)
}

type mockFetcher struct {
	payloads map[string][]byte
	err      error
	calls    int
}

func (f *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.payloads[url]
	if !ok {
		return nil, fmt.Errorf("HTTP error: 404 404 Not Found")
	}
	return data, nil
}

type mockPublisher struct {
	mu    sync.Mutex
	posts []ning.Post
	token ning.Token
	err   error
}

func (p *mockPublisher) Publish(ctx context.Context, token ning.Token, post ning.Post) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.token = token
	p.posts = append(p.posts, post)
	return fmt.Sprintf("BlogPost:%d", len(p.posts)), nil
}

type mockEnqueuer struct {
	tasks     []queue.Task
	failAfter int
}

func newMockEnqueuer() *mockEnqueuer {
	return &mockEnqueuer{failAfter: -1}
}

func (q *mockEnqueuer) Enqueue(ctx context.Context, task queue.Task) error {
	if q.failAfter >= 0 && len(q.tasks) >= q.failAfter {
		return errors.New("task queue is full")
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type syncEnqueuer struct {
	tasks chan string
}

func (q *syncEnqueuer) Enqueue(ctx context.Context, task queue.Task) error {
	q.tasks <- task.Endpoint
	return nil
}
