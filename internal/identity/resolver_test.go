package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/store"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newTestResolver(t *testing.T, fallbackID string) (*Resolver, *auth.TokenManager, repository.UserRepository) {
	t.Helper()
	db := store.New(store.Options{Seed: true})
	users := repository.NewUserRepository(db)
	tokens := auth.NewTokenManager("test-secret", 5)
	return NewResolver(tokens, users, fallbackID), tokens, users
}

func TestResolve_ValidTokenWins(t *testing.T) {
	resolver, tokens, users := newTestResolver(t, "1")

	bob, err := users.GetByID(context.Background(), "3")
	require.NoError(t, err)
	token, _, err := tokens.GenerateToken(bob)
	require.NoError(t, err)

	user, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "3", user.ID)
}

func TestResolve_EmptyTokenFallsBack(t *testing.T) {
	resolver, _, _ := newTestResolver(t, "1")

	user, err := resolver.Resolve(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)
}

func TestResolve_GarbageTokenFallsBack(t *testing.T) {
	resolver, _, _ := newTestResolver(t, "1")

	user, err := resolver.Resolve(context.Background(), "not.a.jwt")
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)
}

func TestResolve_UnknownSubjectFallsBack(t *testing.T) {
	resolver, _, users := newTestResolver(t, "1")

	// Sign a token for a user that exists in a different store.
	other := store.New(store.Options{Seed: true})
	ghost, err := repository.NewUserRepository(other).GetByID(context.Background(), "2")
	require.NoError(t, err)
	ghost.ID = "404"
	token, _, err := auth.NewTokenManager("test-secret", 5).GenerateToken(ghost)
	require.NoError(t, err)

	_, err = users.GetByID(context.Background(), "404")
	require.Error(t, err)

	user, err := resolver.Resolve(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, "1", user.ID)
}

func TestResolve_NoFallbackIsUnauthenticated(t *testing.T) {
	resolver, _, _ := newTestResolver(t, "")

	_, err := resolver.Resolve(context.Background(), "")
	require.Error(t, err)
	require.Equal(t, "UNAUTHENTICATED", apperrors.ToDomainError(err).Code)
}
