package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/oauthlab/oidc-sandbox/registry"
	"github.com/pkg/errors"
)

// Token type header values. Access and refresh tokens carry explicit typ
// headers (RFC 9068 style) so a resource server can reject a refresh token
// presented as a bearer token.
const (
	TypeAccessToken  = "at+jwt"
	TypeRefreshToken = "rt+jwt"
)

// Issuer builds and signs access, ID and refresh tokens. Access and ID
// tokens are stateless; only refresh tokens get a server-side session
// record, which is the caller's responsibility.
type Issuer struct {
	signer             Signer
	subjects           registry.Repo
	accessTokenExpiry  time.Duration
	idTokenExpiry      time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

// IssuerOption defines a function type to modify the Issuer instance.
type IssuerOption func(*Issuer)

// WithTokenExpiry sets the token lifetimes.
func WithTokenExpiry(accessTokenExpiry, idTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.idTokenExpiry = idTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

// WithNowFunc sets the now time function (primarily for testing).
func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

// NewIssuer creates an Issuer signing with signer and resolving subject
// claims through subjects.
func NewIssuer(signer Signer, subjects registry.Repo, options ...IssuerOption) *Issuer {
	i := &Issuer{
		signer:             signer,
		subjects:           subjects,
		accessTokenExpiry:  time.Hour,
		idTokenExpiry:      time.Hour,
		refreshTokenExpiry: 24 * time.Hour,
		nowFunc:            time.Now,
	}
	for _, opt := range options {
		opt(i)
	}
	return i
}

// AccessTokenExpiry returns the configured access token lifetime, the
// value reported as expires_in on token responses.
func (i *Issuer) AccessTokenExpiry() time.Duration {
	return i.accessTokenExpiry
}

// AccessToken issues a signed access token for subjectID scoped to scope,
// with the client as audience.
func (i *Issuer) AccessToken(issuer, subjectID, scope, clientID string) (string, error) {
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"iss":       issuer,
		"sub":       subjectID,
		"aud":       clientID,
		"scope":     scope,
		"client_id": clientID,
		"iat":       now.Unix(),
		"exp":       now.Add(i.accessTokenExpiry).Unix(),
		"jti":       uuid.NewString(),
	}

	signed, err := i.signer.Sign(claims, TypeAccessToken)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.AccessToken] Sign")
	}
	return signed, nil
}

// IDToken issues a signed OpenID Connect ID token. Identity claims are
// gated by scope: "profile" unlocks name and picture, "email" unlocks
// email and email_verified. A non-empty nonce is echoed verbatim, binding
// the token to the authorization request that supplied it.
func (i *Issuer) IDToken(issuer, subjectID, clientID, nonce, scope string) (string, error) {
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": subjectID,
		"aud": clientID,
		"iat": now.Unix(),
		"exp": now.Add(i.idTokenExpiry).Unix(),
	}

	if subject, ok := i.subjects.FindSubject(subjectID); ok {
		if oauthmodel.HasScope(scope, oauthmodel.ScopeProfile) {
			claims["name"] = subject.Name
			claims["picture"] = subject.Picture
		}
		if oauthmodel.HasScope(scope, oauthmodel.ScopeEmail) {
			claims["email"] = subject.Email
			claims["email_verified"] = subject.EmailVerified
		}
	}

	if nonce != "" {
		claims["nonce"] = nonce
	}

	signed, err := i.signer.Sign(claims, "")
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.IDToken] Sign")
	}
	return signed, nil
}

// RefreshToken issues a signed refresh token. Refresh tokens are presented
// only back to the authorization server, never to resource servers, so
// they carry no audience claim.
func (i *Issuer) RefreshToken(issuer, subjectID, clientID, scope string) (string, error) {
	now := i.nowFunc()
	claims := jwt.MapClaims{
		"iss":       issuer,
		"sub":       subjectID,
		"scope":     scope,
		"client_id": clientID,
		"iat":       now.Unix(),
		"exp":       now.Add(i.refreshTokenExpiry).Unix(),
		"jti":       uuid.NewString(),
	}

	signed, err := i.signer.Sign(claims, TypeRefreshToken)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.RefreshToken] Sign")
	}
	return signed, nil
}
