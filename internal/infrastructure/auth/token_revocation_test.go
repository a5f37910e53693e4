package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/infrastructure/auth"
)

func TestInMemoryRevocationList_Revoke(t *testing.T) {
	list := auth.NewInMemoryTokenRevocationList()
	ctx := context.Background()

	err := list.Revoke(ctx, "test-jti-1", 1*time.Hour)
	require.NoError(t, err)

	revoked, err := list.IsRevoked(ctx, "test-jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	// A different jti stays valid
	revoked, err = list.IsRevoked(ctx, "test-jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryRevocationList_EntryExpires(t *testing.T) {
	list := auth.NewInMemoryTokenRevocationList()
	ctx := context.Background()

	err := list.Revoke(ctx, "test-jti-expire", 1*time.Millisecond)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	// The shadowed token has expired, so the entry is gone
	revoked, err := list.IsRevoked(ctx, "test-jti-expire")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryRevocationList_ZeroTTLIsNoop(t *testing.T) {
	list := auth.NewInMemoryTokenRevocationList()
	ctx := context.Background()

	err := list.Revoke(ctx, "already-expired", 0)
	require.NoError(t, err)

	revoked, err := list.IsRevoked(ctx, "already-expired")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryRevocationList_RevokeUser(t *testing.T) {
	list := auth.NewInMemoryTokenRevocationList()
	ctx := context.Background()

	issuedBefore := time.Now().Add(-1 * time.Hour)

	// No revocation yet
	revoked, err := list.IsUserRevoked(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked)

	err = list.RevokeUser(ctx, "user-1", 1*time.Hour)
	require.NoError(t, err)

	// Tokens issued before the cutoff are dead
	revoked, err = list.IsUserRevoked(ctx, "user-1", issuedBefore)
	require.NoError(t, err)
	assert.True(t, revoked)

	// A token from a fresh login after the cutoff is fine
	issuedAfter := time.Now().Add(1 * time.Second)
	time.Sleep(2 * time.Millisecond)
	revoked, err = list.IsUserRevoked(ctx, "user-1", issuedAfter)
	require.NoError(t, err)
	assert.False(t, revoked)

	// Other accounts are unaffected
	revoked, err = list.IsUserRevoked(ctx, "user-2", issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryRevocationList_MultipleTokens(t *testing.T) {
	list := auth.NewInMemoryTokenRevocationList()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		jti := "test-jti-" + string(rune('a'+i))
		err := list.Revoke(ctx, jti, 1*time.Hour)
		require.NoError(t, err)
	}

	for i := 0; i < 10; i++ {
		jti := "test-jti-" + string(rune('a'+i))
		revoked, err := list.IsRevoked(ctx, jti)
		require.NoError(t, err)
		assert.True(t, revoked, "token %s should be revoked", jti)
	}

	revoked, err := list.IsRevoked(ctx, "never-revoked")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRevocationList_Interface(t *testing.T) {
	var _ auth.TokenRevocationList = (*auth.InMemoryTokenRevocationList)(nil)
	var _ auth.TokenRevocationList = (*auth.RedisTokenRevocationList)(nil)
	var _ auth.TokenRevocationList = auth.NewInMemoryTokenRevocationList()
}
