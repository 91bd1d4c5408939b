package oauthmodel

import "strings"

// ResponseType is the OAuth2 authorization response type.
type ResponseType string

const (
	// ResponseTypeCode is the authorization code response type, the only
	// type this server supports.
	ResponseTypeCode ResponseType = "code"
)

// CodeMethodType is the PKCE code challenge method.
type CodeMethodType string

const (
	// CodeMethodTypeS256 hashes the verifier with SHA-256.
	CodeMethodTypeS256 CodeMethodType = "S256"
	// CodeMethodTypePlain sends the verifier as-is. Never accepted for
	// verification, listed only so requests carrying it parse cleanly.
	CodeMethodTypePlain CodeMethodType = "plain"
)

// GrantType is the OAuth2 token grant type.
type GrantType string

const (
	GrantTypeAuthorizationCode GrantType = "authorization_code"
	GrantTypeRefreshToken      GrantType = "refresh_token"
	GrantTypeClientCredentials GrantType = "client_credentials"
	GrantTypeDeviceCode        GrantType = "urn:ietf:params:oauth:grant-type:device_code"
)

// ScopeOpenID unlocks ID token issuance; ScopeProfile and ScopeEmail gate
// the corresponding claim sets on ID tokens and the userinfo response.
const (
	ScopeOpenID  = "openid"
	ScopeProfile = "profile"
	ScopeEmail   = "email"

	// DefaultScope is applied when an authorization or device request
	// omits the scope parameter.
	DefaultScope = ScopeOpenID
)

// AuthorizationParameters carries the parsed inputs of an authorization
// request, from either the query string (GET) or the selection form (POST).
type AuthorizationParameters struct {
	ClientID            string
	RedirectURI         string
	ResponseType        ResponseType
	Scope               string
	State               string
	Nonce               string
	CodeChallenge       string
	CodeChallengeMethod CodeMethodType
	LoginHint           string
	SubjectID           string
}

// SplitScopes splits a space-separated scope string, dropping empty parts.
func SplitScopes(scope string) []string {
	parts := strings.Fields(scope)
	if parts == nil {
		return []string{}
	}
	return parts
}

// HasScope reports whether the space-separated scope string contains want.
func HasScope(scope, want string) bool {
	for _, s := range SplitScopes(scope) {
		if s == want {
			return true
		}
	}
	return false
}
