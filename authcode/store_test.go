package authcode_test

import (
	"testing"
	"time"

	"github.com/oauthlab/oidc-sandbox/authcode"
	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/stretchr/testify/require"
)

func TestStoreGeneratesCodeAndExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := authcode.NewStore(time.Minute, authcode.WithNowFunc(func() time.Time { return now }))

	code := store.Store(authcode.Code{
		ClientID:  "client-1",
		SubjectID: "alice",
		Scope:     "openid profile",
	})

	require.NotEmpty(t, code.Code)
	require.Equal(t, now.Add(time.Minute), code.ExpiresAt)
	require.Equal(t, 1, store.Len())
}

func TestConsumeIsSingleUse(t *testing.T) {
	store := authcode.NewStore(time.Minute)

	code := store.Store(authcode.Code{
		ClientID:            "client-1",
		RedirectURI:         "http://localhost:3000/callback",
		SubjectID:           "alice",
		Nonce:               "n-1",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: oauthmodel.CodeMethodTypeS256,
	})

	got, ok := store.Consume(code.Code)
	require.True(t, ok)
	require.Equal(t, "client-1", got.ClientID)
	require.Equal(t, "http://localhost:3000/callback", got.RedirectURI)
	require.Equal(t, "alice", got.SubjectID)
	require.Equal(t, "n-1", got.Nonce)

	_, ok = store.Consume(code.Code)
	require.False(t, ok)
}

func TestConsumeUnknownCode(t *testing.T) {
	store := authcode.NewStore(time.Minute)

	_, ok := store.Consume("no-such-code")
	require.False(t, ok)
}

func TestConsumeExpiredCodeReturnsAbsentAndRemoves(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := authcode.NewStore(time.Minute, authcode.WithNowFunc(func() time.Time { return now }))

	code := store.Store(authcode.Code{ClientID: "client-1", SubjectID: "alice"})

	now = now.Add(2 * time.Minute)

	_, ok := store.Consume(code.Code)
	require.False(t, ok)
	// The expired read still destroyed the entry.
	require.Equal(t, 0, store.Len())
}

func TestCleanupExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := authcode.NewStore(time.Minute, authcode.WithNowFunc(func() time.Time { return now }))

	stale := store.Store(authcode.Code{ClientID: "client-1", SubjectID: "alice"})

	now = now.Add(30 * time.Second)
	fresh := store.Store(authcode.Code{ClientID: "client-1", SubjectID: "bob"})

	now = now.Add(45 * time.Second) // stale is past its minute, fresh is not

	require.Equal(t, 1, store.CleanupExpired())
	require.Equal(t, 1, store.Len())

	_, ok := store.Consume(stale.Code)
	require.False(t, ok)
	_, ok = store.Consume(fresh.Code)
	require.True(t, ok)
}
