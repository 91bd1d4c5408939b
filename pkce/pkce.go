// Package pkce implements the Proof Key for Code Exchange challenge and
// verification rules (RFC 7636), restricted to the S256 method.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/pkg/errors"
)

const verifierLength = 32 // 256 bits of entropy, RFC 7636 §4.1

// GenerateVerifier returns a fresh high-entropy code verifier.
func GenerateVerifier() (string, error) {
	buf := make([]byte, verifierLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "[GenerateVerifier] rand.Read")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Challenge computes the S256 challenge for a verifier:
// unpadded URL-safe base64 of SHA-256(verifier).
func Challenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// Verify recomputes the challenge from verifier and compares it to the
// stored challenge. Only the S256 method validates; "plain" never does.
func Verify(verifier, challenge string, method oauthmodel.CodeMethodType) bool {
	if method != oauthmodel.CodeMethodTypeS256 {
		return false
	}
	computed := Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}
