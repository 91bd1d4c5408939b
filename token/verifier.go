package token

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims is the subset of verified token claims the userinfo endpoint
// needs.
type Claims struct {
	Subject  string
	Scope    string
	ClientID string
	Issuer   string
}

// Verifier validates bearer tokens against the server's own signing key.
type Verifier struct {
	signer Signer
}

// NewVerifier creates a Verifier for tokens produced by signer.
func NewVerifier(signer Signer) *Verifier {
	return &Verifier{signer: signer}
}

// Verify parses rawToken, checks its signature, expiry, issuer and typ
// header, and returns the claims userinfo cares about. Only access tokens
// pass: a refresh or ID token presented as a bearer token is rejected.
func (v *Verifier) Verify(rawToken, expectedIssuer string) (*Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, errors.New("empty token")
	}

	parsed, err := jwt.Parse(rawToken, v.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{v.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(expectedIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, errors.Wrap(err, "token verification failed")
	}
	if !parsed.Valid {
		return nil, errors.New("token is not valid")
	}

	if typ, _ := parsed.Header["typ"].(string); typ != TypeAccessToken {
		return nil, errors.Errorf("unexpected token type %q", typ)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims from token")
	}

	sub, _ := claims["sub"].(string)
	scope, _ := claims["scope"].(string)
	clientID, _ := claims["client_id"].(string)
	iss, _ := claims["iss"].(string)

	return &Claims{
		Subject:  sub,
		Scope:    scope,
		ClientID: clientID,
		Issuer:   iss,
	}, nil
}
