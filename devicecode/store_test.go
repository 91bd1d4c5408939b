package devicecode_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oauthlab/oidc-sandbox/devicecode"
	"github.com/stretchr/testify/require"
)

const userCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func newTestStore(t *testing.T, now *time.Time) *devicecode.Store {
	t.Helper()
	return devicecode.NewStore(10*time.Minute, 5*time.Second,
		devicecode.WithNowFunc(func() time.Time { return *now }))
}

func TestCreate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	code, err := store.Create("client-1", "openid profile")
	require.NoError(t, err)

	require.NotEmpty(t, code.DeviceCode)
	require.Len(t, code.UserCode, 8)
	for _, c := range code.UserCode {
		require.Contains(t, userCodeAlphabet, string(c))
	}
	require.Equal(t, devicecode.StatusPending, code.Status)
	require.Equal(t, 5, code.Interval)
	require.Equal(t, now.Add(10*time.Minute), code.ExpiresAt)

	byDevice, ok := store.GetByDeviceCode(code.DeviceCode)
	require.True(t, ok)
	require.Equal(t, "openid profile", byDevice.Scope)

	byUser, ok := store.GetByUserCode(code.UserCode)
	require.True(t, ok)
	require.Equal(t, code.DeviceCode, byUser.DeviceCode)
}

func TestApprove(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	code, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	approved, ok := store.Approve(code.UserCode, "alice")
	require.True(t, ok)
	require.Equal(t, devicecode.StatusApproved, approved.Status)
	require.Equal(t, "alice", approved.SubjectID)

	// Approval is terminal: repeating it, or denying afterwards, is a no-op.
	_, ok = store.Approve(code.UserCode, "bob")
	require.False(t, ok)
	_, ok = store.Deny(code.UserCode)
	require.False(t, ok)

	got, ok := store.GetByDeviceCode(code.DeviceCode)
	require.True(t, ok)
	require.Equal(t, devicecode.StatusApproved, got.Status)
	require.Equal(t, "alice", got.SubjectID)
}

func TestDeny(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	code, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	denied, ok := store.Deny(code.UserCode)
	require.True(t, ok)
	require.Equal(t, devicecode.StatusDenied, denied.Status)

	_, ok = store.Approve(code.UserCode, "alice")
	require.False(t, ok)
}

func TestTransitionUnknownUserCode(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	_, ok := store.Approve("NOPE1234", "alice")
	require.False(t, ok)
	_, ok = store.Deny("NOPE1234")
	require.False(t, ok)
}

func TestExpiryPurgesBothIndexes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	code, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	now = now.Add(11 * time.Minute)

	_, ok := store.GetByDeviceCode(code.DeviceCode)
	require.False(t, ok)
	_, ok = store.GetByUserCode(code.UserCode)
	require.False(t, ok)
	_, ok = store.Approve(code.UserCode, "alice")
	require.False(t, ok)
}

func TestApprovedCodeSurvivesUntilNaturalExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	code, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	_, ok := store.Approve(code.UserCode, "alice")
	require.True(t, ok)

	// Reading an approved record does not consume it.
	for i := 0; i < 2; i++ {
		got, ok := store.GetByDeviceCode(code.DeviceCode)
		require.True(t, ok)
		require.Equal(t, devicecode.StatusApproved, got.Status)
	}

	now = now.Add(11 * time.Minute)
	_, ok = store.GetByDeviceCode(code.DeviceCode)
	require.False(t, ok)
}

func TestCleanupExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	stale, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	fresh, err := store.Create("client-1", "openid")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)

	require.Equal(t, 1, store.CleanupExpired())

	_, ok := store.GetByUserCode(stale.UserCode)
	require.False(t, ok)
	_, ok = store.GetByUserCode(fresh.UserCode)
	require.True(t, ok)
}

func TestUserCodesAreDistinct(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newTestStore(t, &now)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		code, err := store.Create("client-1", "openid")
		require.NoError(t, err)
		require.False(t, seen[code.UserCode], "duplicate user code %s", code.UserCode)
		require.Equal(t, strings.ToUpper(code.UserCode), code.UserCode)
		seen[code.UserCode] = true
	}
}
