package oauthmodel

// TokenRequest represents the form parameters of a token endpoint request.
// Which fields are meaningful depends on GrantType.
type TokenRequest struct {
	GrantType    GrantType
	ClientID     string
	ClientSecret string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	DeviceCode   string
	Scope        string
}

// TokenResponse is the standard OAuth2 token endpoint response (RFC 6749
// §5.1). Optional members are pointers so absent fields are omitted rather
// than serialised empty.
type TokenResponse struct {
	// AccessToken is the signed JWT presented to resource servers as
	// "Authorization: Bearer <token>".
	AccessToken string `json:"access_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds. The JWT's own
	// exp claim is the authority; this is a client hint.
	ExpiresIn int `json:"expires_in"`

	// IDToken is present only when the granted scope includes "openid".
	IDToken *string `json:"id_token,omitempty"`

	// RefreshToken is present for user-context grants. It rotates on
	// every refresh exchange.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// Scope is the granted scope, space separated.
	Scope string `json:"scope"`
}
