package registry

import "strings"

// Client is a registered OAuth2 client. Clients are immutable and loaded at
// startup; there is no dynamic registration.
type Client struct {
	ID           string   `json:"id"`
	Secret       string   `json:"secret"`
	RedirectURIs []string `json:"redirectURIs"`
	Name         string   `json:"name"`
}

// MatchesRedirectURI reports whether uri is acceptable for this client.
// A presented URI matches when it equals a registered URI exactly, or when
// a registered URI is a path suffix of it. The suffix rule lets clients
// register relative callback paths that resolve against any host.
func (c *Client) MatchesRedirectURI(uri string) bool {
	for _, registered := range c.RedirectURIs {
		if uri == registered || strings.HasSuffix(uri, registered) {
			return true
		}
	}
	return false
}

// Subject is a test user the server can authenticate as. Subjects carry the
// identity claims released through ID tokens and the userinfo endpoint.
type Subject struct {
	ID            string `json:"sub"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Picture       string `json:"picture"`
}
