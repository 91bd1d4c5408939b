package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oauthlab/oidc-sandbox/registry"
	"github.com/oauthlab/oidc-sandbox/token"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "http://auth.example.test"
	testClientID = "client-1"
	testKeyID    = "test-key-1"
)

type issuerFixture struct {
	signer *token.KeyPairSigner
	issuer *token.Issuer
	now    time.Time
}

func newIssuerFixture(t *testing.T, options ...token.IssuerOption) *issuerFixture {
	t.Helper()

	keyPair, err := token.GenerateRSAKeyPair(testKeyID, 2048)
	require.NoError(t, err)
	signer := token.NewKeyPairSigner(keyPair)

	reg := registry.NewStaticRepo(registry.DefaultClients(), registry.DefaultSubjects())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	opts := append([]token.IssuerOption{token.WithNowFunc(func() time.Time { return now })}, options...)

	return &issuerFixture{
		signer: signer,
		issuer: token.NewIssuer(signer, reg, opts...),
		now:    now,
	}
}

func (f *issuerFixture) parse(t *testing.T, raw string) (jwt.MapClaims, map[string]any) {
	t.Helper()
	parsed, err := jwt.Parse(raw, f.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithTimeFunc(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims, parsed.Header
}

func TestAccessTokenClaims(t *testing.T) {
	f := newIssuerFixture(t)

	raw, err := f.issuer.AccessToken(testIssuer, "alice", "openid profile", testClientID)
	require.NoError(t, err)

	claims, header := f.parse(t, raw)
	require.Equal(t, testIssuer, claims["iss"])
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, testClientID, claims["aud"])
	require.Equal(t, testClientID, claims["client_id"])
	require.Equal(t, "openid profile", claims["scope"])
	require.NotEmpty(t, claims["jti"])
	require.Equal(t, float64(f.now.Add(time.Hour).Unix()), claims["exp"])

	require.Equal(t, "at+jwt", header["typ"])
	require.Equal(t, testKeyID, header["kid"])
	require.Equal(t, "RS256", header["alg"])
}

func TestIDTokenScopeGatesClaims(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		present []string
		absent  []string
	}{
		{
			name:    "openid only",
			scope:   "openid",
			present: []string{"iss", "sub", "aud", "iat", "exp"},
			absent:  []string{"name", "picture", "email", "email_verified"},
		},
		{
			name:    "openid profile",
			scope:   "openid profile",
			present: []string{"name", "picture"},
			absent:  []string{"email", "email_verified"},
		},
		{
			name:    "openid email",
			scope:   "openid email",
			present: []string{"email", "email_verified"},
			absent:  []string{"name", "picture"},
		},
		{
			name:    "openid profile email",
			scope:   "openid profile email",
			present: []string{"name", "picture", "email", "email_verified"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newIssuerFixture(t)

			raw, err := f.issuer.IDToken(testIssuer, "alice", testClientID, "", tt.scope)
			require.NoError(t, err)

			claims, header := f.parse(t, raw)
			for _, claim := range tt.present {
				require.Contains(t, claims, claim)
			}
			for _, claim := range tt.absent {
				require.NotContains(t, claims, claim)
			}
			// ID tokens keep the default JWT typ.
			require.Equal(t, "JWT", header["typ"])
		})
	}
}

func TestIDTokenNonceEcho(t *testing.T) {
	f := newIssuerFixture(t)

	raw, err := f.issuer.IDToken(testIssuer, "alice", testClientID, "nonce-value", "openid")
	require.NoError(t, err)
	claims, _ := f.parse(t, raw)
	require.Equal(t, "nonce-value", claims["nonce"])

	raw, err = f.issuer.IDToken(testIssuer, "alice", testClientID, "", "openid")
	require.NoError(t, err)
	claims, _ = f.parse(t, raw)
	require.NotContains(t, claims, "nonce")
}

func TestIDTokenSubjectValues(t *testing.T) {
	f := newIssuerFixture(t)

	raw, err := f.issuer.IDToken(testIssuer, "alice", testClientID, "", "openid profile email")
	require.NoError(t, err)

	claims, _ := f.parse(t, raw)
	require.Equal(t, "Alice Tanaka", claims["name"])
	require.Equal(t, "alice@example.com", claims["email"])
	require.Equal(t, true, claims["email_verified"])
}

func TestRefreshTokenClaims(t *testing.T) {
	f := newIssuerFixture(t)

	raw, err := f.issuer.RefreshToken(testIssuer, "alice", testClientID, "openid")
	require.NoError(t, err)

	claims, header := f.parse(t, raw)
	require.Equal(t, "alice", claims["sub"])
	require.Equal(t, testClientID, claims["client_id"])
	require.NotContains(t, claims, "aud")
	require.Equal(t, float64(f.now.Add(24*time.Hour).Unix()), claims["exp"])
	require.Equal(t, "rt+jwt", header["typ"])
}

func TestWithTokenExpiry(t *testing.T) {
	f := newIssuerFixture(t, token.WithTokenExpiry(5*time.Minute, 10*time.Minute, time.Hour))

	require.Equal(t, 5*time.Minute, f.issuer.AccessTokenExpiry())

	raw, err := f.issuer.AccessToken(testIssuer, "alice", "openid", testClientID)
	require.NoError(t, err)
	claims, _ := f.parse(t, raw)
	require.Equal(t, float64(f.now.Add(5*time.Minute).Unix()), claims["exp"])
}

func TestVerifier(t *testing.T) {
	// Verify checks expiry against the wall clock, so issue with real time
	// here rather than the frozen fixture clock.
	f := newIssuerFixture(t, token.WithNowFunc(time.Now))
	verifier := token.NewVerifier(f.signer)

	raw, err := f.issuer.AccessToken(testIssuer, "alice", "openid email", testClientID)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		claims, err := verifier.Verify(raw, testIssuer)
		require.NoError(t, err)
		require.Equal(t, "alice", claims.Subject)
		require.Equal(t, "openid email", claims.Scope)
		require.Equal(t, testClientID, claims.ClientID)
		require.Equal(t, testIssuer, claims.Issuer)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := verifier.Verify(raw, "http://somewhere.else")
		require.Error(t, err)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := verifier.Verify("not.a.jwt", testIssuer)
		require.Error(t, err)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := verifier.Verify("", testIssuer)
		require.Error(t, err)
	})

	t.Run("refresh token is not a bearer token", func(t *testing.T) {
		refreshToken, err := f.issuer.RefreshToken(testIssuer, "alice", testClientID, "openid")
		require.NoError(t, err)

		_, err = verifier.Verify(refreshToken, testIssuer)
		require.Error(t, err)
	})

	t.Run("ID token is not a bearer token", func(t *testing.T) {
		idToken, err := f.issuer.IDToken(testIssuer, "alice", testClientID, "", "openid")
		require.NoError(t, err)

		_, err = verifier.Verify(idToken, testIssuer)
		require.Error(t, err)
	})

	t.Run("token signed by a different key", func(t *testing.T) {
		other := newIssuerFixture(t, token.WithNowFunc(time.Now))
		foreign, err := other.issuer.AccessToken(testIssuer, "alice", "openid", testClientID)
		require.NoError(t, err)

		_, err = verifier.Verify(foreign, testIssuer)
		require.Error(t, err)
	})
}
