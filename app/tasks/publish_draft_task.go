package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/rss-relay/app/database"
	"github.com/lysyi3m/rss-relay/app/ning"
)

// PublishDraftTask delivers one draft downstream. The retry counter is
// bumped before the attempt, so a crash mid-delivery still counts.
type PublishDraftTask struct {
	Task
	DraftID   string
	draftRepo database.DraftRepository
	guard     CredentialGuard
	publisher Publisher
}

func NewPublishDraftTask(id, draftID string, draftRepo database.DraftRepository, guard CredentialGuard, publisher Publisher) *PublishDraftTask {
	return &PublishDraftTask{
		Task:      NewTask(TaskTypePublishDraft, id),
		DraftID:   draftID,
		draftRepo: draftRepo,
		guard:     guard,
		publisher: publisher,
	}
}

func (t *PublishDraftTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	draft, err := t.draftRepo.GetDraft(ctx, t.DraftID)
	if err != nil {
		return fmt.Errorf("failed to load draft: %w", err)
	}
	if draft == nil {
		slog.Debug("Draft already gone, nothing to publish", "draft_id", t.DraftID)
		return nil
	}

	retryCount, err := t.draftRepo.IncrementRetryCount(ctx, draft.ID)
	if errors.Is(err, database.ErrNotFound) {
		slog.Debug("Draft already gone, nothing to publish", "draft_id", t.DraftID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record attempt for %q: %w", draft.Title, err)
	}

	credential, err := t.guard.Credential(ctx, draft.Owner)
	if err != nil {
		slog.Warn("Owner credentials unusable, draft left pending", "owner", draft.Owner, "title", draft.Title, "error", err)
		return fmt.Errorf("failed to resolve credential for %s: %w", draft.Owner, err)
	}

	token := ning.Token{Key: credential.TokenKey, Secret: credential.TokenSecret}
	post := ning.Post{
		Title:       draft.Title,
		Description: draft.Body,
		PublishTime: draft.EntryUpdatedAt,
	}

	downstreamID, err := t.publisher.Publish(ctx, token, post)
	if err != nil {
		var apiErr *ning.Error
		if errors.As(err, &apiErr) {
			slog.Error("Unable to upload",
				"owner", draft.Owner,
				"title", draft.Title,
				"retry_count", retryCount,
				"status", apiErr.Status,
				"code", apiErr.Code,
				"subcode", apiErr.Subcode,
				"reason", apiErr.Reason)
		}
		return fmt.Errorf("failed to publish %q: %w", draft.Title, err)
	}

	deleted, err := t.draftRepo.DeleteDraft(ctx, draft.ID)
	if err != nil {
		// The post is live; the draft will be delivered again once due.
		slog.Error("Published draft could not be removed", "owner", draft.Owner, "title", draft.Title, "downstream_id", downstreamID, "error", err)
		return fmt.Errorf("failed to delete published draft: %w", err)
	}
	if !deleted {
		slog.Debug("Published draft was already removed", "owner", draft.Owner, "title", draft.Title)
	}

	slog.Info("Task completed",
		"type", "PublishDraft",
		"owner", draft.Owner,
		"title", draft.Title,
		"downstream_id", downstreamID,
		"retry_count", retryCount,
		"duration", t.GetDuration())

	return nil
}
