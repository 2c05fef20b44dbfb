package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/lysyi3m/rss-relay/app/database"
)

var (
	ErrNoCredential        = errors.New("owner has no credential")
	ErrAmbiguousCredential = errors.New("owner has more than one credential")
)

// Guard resolves the single downstream credential an owner's pipeline runs
// under. Only successful lookups are cached, so a fixed credential set takes
// effect without waiting for the TTL.
type Guard struct {
	credentialRepo database.CredentialRepository
	cache          *gocache.Cache
}

func NewGuard(credentialRepo database.CredentialRepository, ttl time.Duration) *Guard {
	return &Guard{
		credentialRepo: credentialRepo,
		cache:          gocache.New(ttl, 2*ttl),
	}
}

func (g *Guard) Credential(ctx context.Context, owner string) (*database.Credential, error) {
	if cached, ok := g.cache.Get(owner); ok {
		return cached.(*database.Credential), nil
	}

	credentials, err := g.credentialRepo.GetCredentials(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	switch len(credentials) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoCredential, owner)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s has %d", ErrAmbiguousCredential, owner, len(credentials))
	}

	credential := credentials[0]
	g.cache.Set(owner, &credential, gocache.DefaultExpiration)

	return &credential, nil
}

// Forget drops the cached credential of an owner, e.g. after it was replaced.
func (g *Guard) Forget(owner string) {
	g.cache.Delete(owner)
}
