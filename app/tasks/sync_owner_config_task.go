package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/owners"
)

// SyncOwnerConfigTask registers the feeds and credential of an owner file.
// Existing feeds keep their watermark.
type SyncOwnerConfigTask struct {
	Task
	Owner          string
	Config         *owners.Config
	feedRepo       database.FeedRepository
	credentialRepo database.CredentialRepository
	guard          CredentialGuard
}

func NewSyncOwnerConfigTask(config *owners.Config, feedRepo database.FeedRepository, credentialRepo database.CredentialRepository, guard CredentialGuard) *SyncOwnerConfigTask {
	return &SyncOwnerConfigTask{
		Task:           NewTask(TaskTypeSyncOwnerConfig, ""),
		Owner:          config.Owner,
		Config:         config,
		feedRepo:       feedRepo,
		credentialRepo: credentialRepo,
		guard:          guard,
	}
}

func (t *SyncOwnerConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if cred := t.Config.Credential; cred.IsSet() {
		err := t.credentialRepo.UpsertCredential(ctx, t.Owner, cred.TokenKey, cred.TokenSecret, cred.Email)
		if err != nil {
			return fmt.Errorf("failed to sync credential: %w", err)
		}
		t.guard.Forget(t.Owner)
	}

	added := 0
	for _, url := range t.Config.Feeds {
		f, created, err := t.feedRepo.EnsureFeed(ctx, t.Owner, url)
		if err != nil {
			return fmt.Errorf("failed to sync feed %s: %w", url, err)
		}
		if created {
			slog.Info("Feed registered", "owner", t.Owner, "feed", f.URL, "last_update", f.LastUpdate)
			added++
		}
	}

	slog.Info("Task completed",
		"type", "SyncOwnerConfig",
		"owner", t.Owner,
		"duration", t.GetDuration(),
		"feeds", len(t.Config.Feeds),
		"new", added)

	return nil
}
