package oauthmodel

import "fmt"

// OAuth2 / OIDC protocol error codes as defined in RFC 6749 §5.2,
// RFC 8628 §3.5 and RFC 6750 §3.1.
const (
	ErrCodeInvalidRequest          = "invalid_request"
	ErrCodeInvalidClient           = "invalid_client"
	ErrCodeInvalidGrant            = "invalid_grant"
	ErrCodeUnsupportedGrantType    = "unsupported_grant_type"
	ErrCodeUnsupportedResponseType = "unsupported_response_type"
	ErrCodeAuthorizationPending    = "authorization_pending"
	ErrCodeAccessDenied            = "access_denied"
	ErrCodeInvalidToken            = "invalid_token"
)

// Error is a structured OAuth2 protocol error. Handlers serialise it as the
// standard {error, error_description} body.
type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (e *Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func InvalidRequest(description string) *Error {
	return &Error{Code: ErrCodeInvalidRequest, Description: description}
}

func InvalidClient(description string) *Error {
	return &Error{Code: ErrCodeInvalidClient, Description: description}
}

func InvalidGrant(description string) *Error {
	return &Error{Code: ErrCodeInvalidGrant, Description: description}
}

func UnsupportedGrantType(description string) *Error {
	return &Error{Code: ErrCodeUnsupportedGrantType, Description: description}
}

func UnsupportedResponseType(description string) *Error {
	return &Error{Code: ErrCodeUnsupportedResponseType, Description: description}
}

func AuthorizationPending(description string) *Error {
	return &Error{Code: ErrCodeAuthorizationPending, Description: description}
}

func AccessDenied(description string) *Error {
	return &Error{Code: ErrCodeAccessDenied, Description: description}
}

func InvalidToken(description string) *Error {
	return &Error{Code: ErrCodeInvalidToken, Description: description}
}
