package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/oauthlab/oidc-sandbox/authcode"
	"github.com/oauthlab/oidc-sandbox/devicecode"
	"github.com/oauthlab/oidc-sandbox/oauthmodel"
	"github.com/oauthlab/oidc-sandbox/pkce"
	"github.com/oauthlab/oidc-sandbox/refresh"
	"github.com/oauthlab/oidc-sandbox/registry"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// WellKnownOpenIDConfig serves the OIDC discovery document
func (s *Server) WellKnownOpenIDConfig() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer := s.issuerURL(r)

		resp := map[string]any{
			"issuer":                        issuer,
			"authorization_endpoint":        issuer + RouteAuthorize,
			"token_endpoint":                issuer + RouteToken,
			"userinfo_endpoint":             issuer + RouteUserInfo,
			"jwks_uri":                      issuer + RouteJWKS,
			"device_authorization_endpoint": issuer + RouteDeviceAuthorize,
			"revocation_endpoint":           issuer + RouteRevoke,

			"scopes_supported": []string{
				oauthmodel.ScopeOpenID,
				oauthmodel.ScopeProfile,
				oauthmodel.ScopeEmail,
			},
			"response_types_supported": []string{"code"},
			"subject_types_supported":  []string{"public"},

			"id_token_signing_alg_values_supported": []string{"RS256"},

			"grant_types_supported": []string{
				string(oauthmodel.GrantTypeAuthorizationCode),
				string(oauthmodel.GrantTypeRefreshToken),
				string(oauthmodel.GrantTypeClientCredentials),
				string(oauthmodel.GrantTypeDeviceCode),
			},

			"token_endpoint_auth_methods_supported": []string{
				"client_secret_post",
				"client_secret_basic",
				"none", // For public clients with PKCE
			},

			"code_challenge_methods_supported": []string{"S256"},
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// JWKS returns the JSON Web Key Set used to validate tokens
func (s *Server) JWKS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jwks, err := s.signer.GetJWKS()
		if err != nil {
			http.Error(w, "Failed to get JWKS: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = json.NewEncoder(w).Encode(jwks)
	}
}

// Authorize begins the authorization flow. GET either short-circuits via
// login_hint or renders the subject selection form; the form POSTs back to
// the same route with the chosen sub, re-entering the same validation.
func (s *Server) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := parseAuthorizationParameters(r)
		if err != nil {
			writeOAuthError(w, oauthmodel.InvalidRequest("failed to parse request parameters"))
			return
		}

		if oauthErr := s.validateAuthorizationParameters(params); oauthErr != nil {
			writeOAuthError(w, oauthErr)
			return
		}

		if r.Method == http.MethodPost {
			if params.SubjectID == "" {
				writeOAuthError(w, oauthmodel.InvalidRequest("invalid user selection"))
				return
			}
			if _, ok := s.registry.FindSubject(params.SubjectID); !ok {
				writeOAuthError(w, oauthmodel.InvalidRequest("invalid user selection"))
				return
			}
			s.issueCodeAndRedirect(w, r, params, params.SubjectID)
			return
		}

		// login_hint naming a known subject skips the selection form
		if params.LoginHint != "" {
			subject, ok := s.registry.FindSubject(params.LoginHint)
			if !ok {
				writeOAuthError(w, oauthmodel.InvalidRequest("unknown login_hint user"))
				return
			}
			s.issueCodeAndRedirect(w, r, params, subject.ID)
			return
		}

		s.renderSubjectSelection(w, params)
	}
}

// issueCodeAndRedirect stores an authorization code bound to the request
// context and 302-redirects back to the client with code (and state).
func (s *Server) issueCodeAndRedirect(w http.ResponseWriter, r *http.Request, params *oauthmodel.AuthorizationParameters, subjectID string) {
	scope := params.Scope
	if scope == "" {
		scope = oauthmodel.DefaultScope
	}

	code := s.authCodes.Store(authcode.Code{
		ClientID:            params.ClientID,
		RedirectURI:         params.RedirectURI,
		Scope:               scope,
		SubjectID:           subjectID,
		Nonce:               params.Nonce,
		CodeChallenge:       params.CodeChallenge,
		CodeChallengeMethod: params.CodeChallengeMethod,
	})

	u, err := url.Parse(params.RedirectURI)
	if err != nil {
		writeOAuthError(w, oauthmodel.InvalidRequest("invalid redirect_uri"))
		return
	}
	q := u.Query()
	q.Set("code", code.Code)
	if params.State != "" {
		q.Set("state", params.State)
	}
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusFound)
}

// validateAuthorizationParameters enforces the authorize endpoint
// preconditions. No store is touched until these all pass.
func (s *Server) validateAuthorizationParameters(params *oauthmodel.AuthorizationParameters) *oauthmodel.Error {
	if params.ClientID == "" {
		return oauthmodel.InvalidRequest("client_id is required")
	}
	client, ok := s.registry.FindClient(params.ClientID)
	if !ok {
		return oauthmodel.InvalidClient("unknown client_id")
	}
	if params.RedirectURI == "" {
		return oauthmodel.InvalidRequest("redirect_uri is required")
	}
	if !client.MatchesRedirectURI(params.RedirectURI) {
		return oauthmodel.InvalidRequest("redirect_uri is not registered")
	}
	if params.ResponseType != oauthmodel.ResponseTypeCode {
		return oauthmodel.UnsupportedResponseType("only response_type=code is supported")
	}
	return nil
}

// Token exchanges a grant for tokens, dispatching on grant_type.
func (s *Server) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasFormContentType(r) {
			writeOAuthError(w, oauthmodel.InvalidRequest("Content-Type must be application/x-www-form-urlencoded"))
			return
		}
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.InvalidRequest("failed to parse form data"))
			return
		}

		req := parseTokenRequest(r)

		var resp *oauthmodel.TokenResponse
		var oauthErr *oauthmodel.Error

		switch req.GrantType {
		case oauthmodel.GrantTypeAuthorizationCode:
			resp, oauthErr = s.handleAuthorizationCodeGrant(r, req)
		case oauthmodel.GrantTypeRefreshToken:
			resp, oauthErr = s.handleRefreshTokenGrant(r, req)
		case oauthmodel.GrantTypeClientCredentials:
			resp, oauthErr = s.handleClientCredentialsGrant(r, req)
		case oauthmodel.GrantTypeDeviceCode:
			resp, oauthErr = s.handleDeviceCodeGrant(r, req)
		default:
			oauthErr = oauthmodel.UnsupportedGrantType("unsupported grant_type: " + string(req.GrantType))
		}

		if oauthErr != nil {
			writeOAuthError(w, oauthErr)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (s *Server) handleAuthorizationCodeGrant(r *http.Request, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, *oauthmodel.Error) {
	if _, oauthErr := s.validateClientCredentials(req.ClientID, req.ClientSecret, false); oauthErr != nil {
		return nil, oauthErr
	}
	if req.Code == "" {
		return nil, oauthmodel.InvalidRequest("code is required")
	}

	// Consuming is the anti-replay mutation: the code is gone after this
	// read whether or not the remaining checks pass.
	code, ok := s.authCodes.Consume(req.Code)
	if !ok {
		return nil, oauthmodel.InvalidGrant("invalid or expired authorization code")
	}
	if code.ClientID != req.ClientID {
		return nil, oauthmodel.InvalidGrant("client_id mismatch")
	}
	if req.RedirectURI != "" && code.RedirectURI != req.RedirectURI {
		return nil, oauthmodel.InvalidGrant("redirect_uri mismatch")
	}

	if code.CodeChallenge != "" {
		if req.CodeVerifier == "" {
			return nil, oauthmodel.InvalidRequest("code_verifier is required for PKCE")
		}
		method := code.CodeChallengeMethod
		if method == "" {
			method = oauthmodel.CodeMethodTypeS256
		}
		if !pkce.Verify(req.CodeVerifier, code.CodeChallenge, method) {
			return nil, oauthmodel.InvalidGrant("PKCE verification failed")
		}
	}

	return s.issueTokenSet(s.issuerURL(r), code.SubjectID, code.Scope, code.ClientID, code.Nonce)
}

func (s *Server) handleRefreshTokenGrant(r *http.Request, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, *oauthmodel.Error) {
	if _, oauthErr := s.validateClientCredentials(req.ClientID, req.ClientSecret, false); oauthErr != nil {
		return nil, oauthErr
	}
	if req.RefreshToken == "" {
		return nil, oauthmodel.InvalidRequest("refresh_token is required")
	}

	// Rotation: the presented token dies before its replacement exists,
	// and the check-and-delete is atomic so concurrent exchanges of the
	// same token cannot both succeed. A client mismatch still burns the
	// session, same as a stolen authorization code.
	session, ok := s.refreshSessions.Consume(req.RefreshToken)
	if !ok {
		return nil, oauthmodel.InvalidGrant("invalid refresh_token")
	}
	if session.ClientID != req.ClientID {
		return nil, oauthmodel.InvalidGrant("client_id mismatch")
	}

	return s.issueTokenSet(s.issuerURL(r), session.SubjectID, session.Scope, session.ClientID, "")
}

func (s *Server) handleClientCredentialsGrant(r *http.Request, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, *oauthmodel.Error) {
	if _, oauthErr := s.validateClientCredentials(req.ClientID, req.ClientSecret, true); oauthErr != nil {
		return nil, oauthErr
	}

	// No user context: an access token for the client itself, never an ID
	// or refresh token.
	accessToken, err := s.issuer.AccessToken(s.issuerURL(r), req.ClientID, req.Scope, req.ClientID)
	if err != nil {
		log.Err(err).Msg("failed to issue access token")
		return nil, oauthmodel.InvalidRequest("failed to issue access token")
	}

	return &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.issuer.AccessTokenExpiry().Seconds()),
		Scope:       req.Scope,
	}, nil
}

func (s *Server) handleDeviceCodeGrant(r *http.Request, req oauthmodel.TokenRequest) (*oauthmodel.TokenResponse, *oauthmodel.Error) {
	if _, oauthErr := s.validateClientCredentials(req.ClientID, req.ClientSecret, false); oauthErr != nil {
		return nil, oauthErr
	}
	if req.DeviceCode == "" {
		return nil, oauthmodel.InvalidRequest("device_code is required")
	}

	code, ok := s.deviceCodes.GetByDeviceCode(req.DeviceCode)
	if !ok {
		return nil, oauthmodel.InvalidGrant("invalid or expired device_code")
	}
	if code.ClientID != req.ClientID {
		return nil, oauthmodel.InvalidGrant("client_id mismatch")
	}

	switch code.Status {
	case devicecode.StatusPending:
		return nil, oauthmodel.AuthorizationPending("the user has not yet completed authorization")
	case devicecode.StatusDenied:
		return nil, oauthmodel.AccessDenied("the user denied the authorization request")
	}

	// Approved. The record stays until natural expiry, which leaves a
	// grace period during which duplicate polls also succeed.
	return s.issueTokenSet(s.issuerURL(r), code.SubjectID, code.Scope, code.ClientID, "")
}

// issueTokenSet builds the full token response for a user-context grant:
// access token, ID token when the scope includes openid, and a refresh
// token whose session is recorded before the response leaves.
func (s *Server) issueTokenSet(issuer, subjectID, scope, clientID, nonce string) (*oauthmodel.TokenResponse, *oauthmodel.Error) {
	accessToken, err := s.issuer.AccessToken(issuer, subjectID, scope, clientID)
	if err != nil {
		log.Err(err).Msg("failed to issue access token")
		return nil, oauthmodel.InvalidRequest("failed to issue access token")
	}

	resp := &oauthmodel.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.issuer.AccessTokenExpiry().Seconds()),
		Scope:       scope,
	}

	if oauthmodel.HasScope(scope, oauthmodel.ScopeOpenID) {
		idToken, err := s.issuer.IDToken(issuer, subjectID, clientID, nonce, scope)
		if err != nil {
			log.Err(err).Msg("failed to issue ID token")
			return nil, oauthmodel.InvalidRequest("failed to issue ID token")
		}
		resp.IDToken = &idToken
	}

	refreshToken, err := s.issuer.RefreshToken(issuer, subjectID, clientID, scope)
	if err != nil {
		log.Err(err).Msg("failed to issue refresh token")
		return nil, oauthmodel.InvalidRequest("failed to issue refresh token")
	}
	s.refreshSessions.Store(refreshToken, refresh.Session{
		SubjectID: subjectID,
		ClientID:  clientID,
		Scope:     scope,
	})
	resp.RefreshToken = &refreshToken

	return resp, nil
}

// validateClientCredentials resolves the client and checks its secret. The
// secret is optional for grants a public client may use; when presented it
// must match, and requireSecret forces its presence (client_credentials).
func (s *Server) validateClientCredentials(clientID, clientSecret string, requireSecret bool) (*registry.Client, *oauthmodel.Error) {
	if clientID == "" {
		return nil, oauthmodel.InvalidRequest("client_id is required")
	}
	client, ok := s.registry.FindClient(clientID)
	if !ok {
		return nil, oauthmodel.InvalidClient("unknown client")
	}
	if requireSecret && clientSecret == "" {
		return nil, oauthmodel.InvalidClient("client_secret is required")
	}
	if clientSecret != "" && clientSecret != client.Secret {
		return nil, oauthmodel.InvalidClient("invalid client_secret")
	}
	return client, nil
}

// Revoke revokes refresh tokens (RFC 7009). It always reports success so a
// caller cannot distinguish "never existed" from "already revoked".
func (s *Server) Revoke() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !hasFormContentType(r) {
			writeOAuthError(w, oauthmodel.InvalidRequest("Content-Type must be application/x-www-form-urlencoded"))
			return
		}
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, oauthmodel.InvalidRequest("failed to parse form data"))
			return
		}

		if token := r.FormValue("token"); token != "" {
			s.refreshSessions.Revoke(token)
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte("{}\n"))
	}
}

// UserInfo returns the subject's claims, filtered by the access token's
// own scope with the same rule ID-token issuance uses.
func (s *Server) UserInfo() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := extractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeJSONError(w, oauthmodel.ErrCodeInvalidToken, "Bearer token is required", http.StatusUnauthorized)
			return
		}

		claims, err := s.verifier.Verify(rawToken, s.issuerURL(r))
		if err != nil {
			writeJSONError(w, oauthmodel.ErrCodeInvalidToken, "token verification failed", http.StatusUnauthorized)
			return
		}
		if claims.Subject == "" {
			writeJSONError(w, oauthmodel.ErrCodeInvalidToken, "token has no sub claim", http.StatusUnauthorized)
			return
		}

		subject, ok := s.registry.FindSubject(claims.Subject)
		if !ok {
			writeJSONError(w, oauthmodel.ErrCodeInvalidToken, "user not found", http.StatusUnauthorized)
			return
		}

		userInfo := map[string]any{
			"sub": subject.ID,
		}
		if oauthmodel.HasScope(claims.Scope, oauthmodel.ScopeProfile) {
			userInfo["name"] = subject.Name
			userInfo["picture"] = subject.Picture
		}
		if oauthmodel.HasScope(claims.Scope, oauthmodel.ScopeEmail) {
			userInfo["email"] = subject.Email
			userInfo["email_verified"] = subject.EmailVerified
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(userInfo)
	}
}

// Helper functions

// parseAuthorizationParameters extracts OAuth2 authorization parameters
// from the query string (GET) or the re-submitted selection form (POST).
func parseAuthorizationParameters(r *http.Request) (*oauthmodel.AuthorizationParameters, error) {
	var values url.Values
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		values = r.PostForm
	} else {
		values = r.URL.Query()
	}

	return &oauthmodel.AuthorizationParameters{
		ClientID:            values.Get("client_id"),
		RedirectURI:         values.Get("redirect_uri"),
		ResponseType:        oauthmodel.ResponseType(values.Get("response_type")),
		Scope:               values.Get("scope"),
		State:               values.Get("state"),
		Nonce:               values.Get("nonce"),
		CodeChallenge:       values.Get("code_challenge"),
		CodeChallengeMethod: oauthmodel.CodeMethodType(values.Get("code_challenge_method")),
		LoginHint:           values.Get("login_hint"),
		SubjectID:           values.Get("sub"),
	}, nil
}

// parseTokenRequest reads the token endpoint form. Client credentials may
// arrive in the form body (client_secret_post) or the Authorization header
// (client_secret_basic).
func parseTokenRequest(r *http.Request) oauthmodel.TokenRequest {
	req := oauthmodel.TokenRequest{
		GrantType:    oauthmodel.GrantType(r.PostFormValue("grant_type")),
		ClientID:     r.PostFormValue("client_id"),
		ClientSecret: r.PostFormValue("client_secret"),
		Code:         r.PostFormValue("code"),
		RedirectURI:  r.PostFormValue("redirect_uri"),
		CodeVerifier: r.PostFormValue("code_verifier"),
		RefreshToken: r.PostFormValue("refresh_token"),
		DeviceCode:   r.PostFormValue("device_code"),
		Scope:        r.PostFormValue("scope"),
	}

	if req.ClientID == "" {
		if id, secret, ok := r.BasicAuth(); ok {
			req.ClientID = id
			req.ClientSecret = secret
		}
	}
	return req
}

func hasFormContentType(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Content-Type"), contentTypeForm)
}

func extractBearerToken(authHeader string) (string, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// writeOAuthError writes a protocol error with the HTTP status the error
// code maps to (400 for everything a handler produces here).
func writeOAuthError(w http.ResponseWriter, oauthErr *oauthmodel.Error) {
	writeJSONError(w, oauthErr.Code, oauthErr.Description, http.StatusBadRequest)
}

// writeJSONError writes an OAuth2 error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
