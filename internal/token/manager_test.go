package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/pkg/cache"
)

func newTestManager(c cache.Cache, failClosed bool) *Manager {
	return NewManager(newTestIssuer(), newTestValidator(), NewRevocationStore(c), failClosed)
}

type brokenCache struct {
	*cache.MemoryCache
}

func (brokenCache) Set(context.Context, string, string, time.Duration) error {
	return errors.New("cache unreachable")
}

func TestManager_Issue_TokensAreImmediatelyUsable(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)
	ctx := context.Background()
	id := testIdentity()

	pair, err := m.Issue(ctx, id)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	access, err := m.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, m.ValidateForUse(ctx, access, id, time.Now()))

	refresh, err := m.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, refresh.Claims.IsRefresh)
	assert.Empty(t, m.ValidateForUse(ctx, refresh, id, time.Now()))
}

func TestManager_Parse_GarbageReturnsNil(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)

	tok, err := m.Parse("not-a-jwt")
	require.Error(t, err)
	assert.Nil(t, tok)
}

func TestManager_Revoke_CollapsesToSingleError(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)
	ctx := context.Background()
	id := testIdentity()

	pair, err := m.Issue(ctx, id)
	require.NoError(t, err)
	access, err := m.Parse(pair.AccessToken)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, id))

	// The claims suite alone still passes; only the revocation check
	// rejects, and it does so with the one generic error.
	assert.Empty(t, m.Validate(access, id, time.Now()))
	errs := m.ValidateForUse(ctx, access, id, time.Now())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrTokenNotValid)
}

func TestManager_Refresh_RotatesPair(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)
	ctx := context.Background()
	id := testIdentity()

	oldPair, err := m.Issue(ctx, id)
	require.NoError(t, err)

	newPair, err := m.Refresh(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, oldPair.RefreshToken, newPair.RefreshToken)

	oldRefresh, err := m.Parse(oldPair.RefreshToken)
	require.NoError(t, err)
	errs := m.ValidateForUse(ctx, oldRefresh, id, time.Now())
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrTokenNotValid)

	newRefresh, err := m.Parse(newPair.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, m.ValidateForUse(ctx, newRefresh, id, time.Now()))
}

func TestManager_Issue_FailOpenOnCacheFailure(t *testing.T) {
	t.Parallel()

	m := newTestManager(brokenCache{cache.NewMemory("test:tokens:")}, false)
	pair, err := m.Issue(context.Background(), testIdentity())
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
}

func TestManager_Issue_FailClosedOnCacheFailure(t *testing.T) {
	t.Parallel()

	m := newTestManager(brokenCache{cache.NewMemory("test:tokens:")}, true)
	pair, err := m.Issue(context.Background(), testIdentity())
	require.Error(t, err)
	assert.Nil(t, pair)
}

func TestManager_ConcurrentIdentities_DoNotCrossContaminate(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)
	ctx := context.Background()

	alice := testIdentity()
	bob := models.Identity{ID: 7, Issuer: "globex", TokenID: "k7", TokenSecret: "s7", Active: true}

	alicePair, err := m.Issue(ctx, alice)
	require.NoError(t, err)
	bobPair, err := m.Issue(ctx, bob)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, alice))

	bobAccess, err := m.Parse(bobPair.AccessToken)
	require.NoError(t, err)
	assert.Empty(t, m.ValidateForUse(ctx, bobAccess, bob, time.Now()))

	aliceAccess, err := m.Parse(alicePair.AccessToken)
	require.NoError(t, err)
	assert.NotEmpty(t, m.ValidateForUse(ctx, aliceAccess, alice, time.Now()))
}

// End to end: the claims of a freshly issued pair match the identity, the
// pair is usable at issuance time, and revocation flips it to the single
// generic rejection.
func TestManager_EndToEnd(t *testing.T) {
	t.Parallel()

	m := newTestManager(cache.NewMemory("test:tokens:"), false)
	ctx := context.Background()
	id := testIdentity()

	pair, err := m.Issue(ctx, id)
	require.NoError(t, err)

	access, err := m.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "42", access.Claims.Subject)
	assert.Equal(t, "acme", access.Claims.Issuer)
	assert.Equal(t, "k1", access.Claims.ID)
	assert.False(t, access.Claims.IsRefresh)

	require.NotNil(t, access.Claims.IssuedAt)
	assert.Empty(t, m.ValidateForUse(ctx, access, id, access.Claims.IssuedAt.Time))

	require.NoError(t, m.Revoke(ctx, id))
	errs := m.ValidateForUse(ctx, access, id, access.Claims.IssuedAt.Time)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrTokenNotValid)
}
