package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const draftColumns = `id, owner, title, body, entry_updated_at, publish_at,
	retry_count, downstream_id, created_at`

// SQLDraftRepository handles database operations for pending drafts
type SQLDraftRepository struct {
	db *DB
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *DB) *SQLDraftRepository {
	return &SQLDraftRepository{db: db}
}

// GetDraft retrieves a draft by key, nil when it does not exist
func (r *SQLDraftRepository) GetDraft(ctx context.Context, id string) (*Draft, error) {
	var draft Draft
	err := r.db.GetContext(ctx, &draft, r.db.Rebind(`
		SELECT `+draftColumns+`
		FROM drafts
		WHERE id = ?
	`), id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	return normalizeDraft(&draft), nil
}

// GetDueDrafts returns unconfirmed drafts whose publish time has passed,
// oldest first
func (r *SQLDraftRepository) GetDueDrafts(ctx context.Context, now time.Time) ([]Draft, error) {
	var drafts []Draft
	err := r.db.SelectContext(ctx, &drafts, r.db.Rebind(`
		SELECT `+draftColumns+`
		FROM drafts
		WHERE publish_at <= ?
		  AND downstream_id IS NULL
		ORDER BY publish_at
	`), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get due drafts: %w", err)
	}

	for i := range drafts {
		normalizeDraft(&drafts[i])
	}

	return drafts, nil
}

// ListDrafts returns the pending drafts of one owner, or all of them when
// owner is empty
func (r *SQLDraftRepository) ListDrafts(ctx context.Context, owner string) ([]Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts`
	var args []interface{}
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY publish_at`

	var drafts []Draft
	if err := r.db.SelectContext(ctx, &drafts, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}

	for i := range drafts {
		normalizeDraft(&drafts[i])
	}

	return drafts, nil
}

// GetDraftCount returns the number of pending drafts
func (r *SQLDraftRepository) GetDraftCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM drafts"); err != nil {
		return 0, fmt.Errorf("failed to get draft count: %w", err)
	}
	return count, nil
}

// CreateDraft stores a new draft. ID, PublishAt and CreatedAt are filled in
// when empty; RetryCount always starts at zero.
func (r *SQLDraftRepository) CreateDraft(ctx context.Context, draft *Draft) error {
	now := time.Now().UTC()
	if draft.ID == "" {
		draft.ID = uuid.NewString()
	}
	if draft.PublishAt.IsZero() {
		draft.PublishAt = now
	}
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.RetryCount = 0

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO drafts (
			id, owner, title, body, entry_updated_at, publish_at,
			retry_count, downstream_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, 0, NULL, ?)
	`), draft.ID, draft.Owner, draft.Title, draft.Body, draft.EntryUpdatedAt.UTC(),
		draft.PublishAt.UTC(), draft.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert draft: %w", err)
	}

	return nil
}

// IncrementRetryCount bumps retry_count in a single statement and returns
// the new value. ErrNotFound means the draft is gone.
func (r *SQLDraftRepository) IncrementRetryCount(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		UPDATE drafts
		SET retry_count = retry_count + 1
		WHERE id = ?
		RETURNING retry_count
	`), id)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment retry count: %w", err)
	}

	return count, nil
}

// DeleteDraft removes a draft and reports whether it existed
func (r *SQLDraftRepository) DeleteDraft(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM drafts WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete draft: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func normalizeDraft(draft *Draft) *Draft {
	draft.EntryUpdatedAt = draft.EntryUpdatedAt.UTC()
	draft.PublishAt = draft.PublishAt.UTC()
	draft.CreatedAt = draft.CreatedAt.UTC()
	return draft
}
