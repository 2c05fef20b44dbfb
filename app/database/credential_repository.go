package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLCredentialRepository reads owner credentials. Credentials are written
// only by the owner config sync.
type SQLCredentialRepository struct {
	db *DB
}

func NewCredentialRepository(db *DB) *SQLCredentialRepository {
	return &SQLCredentialRepository{db: db}
}

// GetCredentials returns every credential stored for owner. Callers decide
// what zero or several rows mean.
func (r *SQLCredentialRepository) GetCredentials(ctx context.Context, owner string) ([]Credential, error) {
	var credentials []Credential
	err := r.db.SelectContext(ctx, &credentials, r.db.Rebind(`
		SELECT id, owner, token_key, token_secret, email, created_at
		FROM credentials
		WHERE owner = ?
		ORDER BY created_at
		LIMIT 10
	`), owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get credentials: %w", err)
	}

	return credentials, nil
}

// UpsertCredential updates the owner's credential rows in place, inserting
// one when the owner has none
func (r *SQLCredentialRepository) UpsertCredential(ctx context.Context, owner, tokenKey, tokenSecret, email string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE credentials
		SET token_key = ?, token_secret = ?, email = ?
		WHERE owner = ?
	`), tokenKey, tokenSecret, email, owner)
	if err != nil {
		return fmt.Errorf("failed to update credential: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return nil
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO credentials (id, owner, token_key, token_secret, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), uuid.NewString(), owner, tokenKey, tokenSecret, email, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert credential: %w", err)
	}

	return nil
}
