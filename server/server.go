package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/oauthlab/oidc-sandbox/authcode"
	"github.com/oauthlab/oidc-sandbox/devicecode"
	"github.com/oauthlab/oidc-sandbox/internal/config"
	"github.com/oauthlab/oidc-sandbox/refresh"
	"github.com/oauthlab/oidc-sandbox/registry"
	"github.com/oauthlab/oidc-sandbox/token"
	"github.com/pkg/errors"
)

// Server owns every mutable store and the signing key. All store mutation
// happens from its handlers; nothing else touches them.
type Server struct {
	env    string // Environment (e.g., "DEV", "production")
	mux    *http.ServeMux
	routes []string
	config config.Config

	registry        registry.Repo
	authCodes       *authcode.Store
	deviceCodes     *devicecode.Store
	refreshSessions *refresh.Store
	signer          *token.KeyPairSigner
	issuer          *token.Issuer
	verifier        *token.Verifier
}

// New constructs a Server. The signing key pair is generated here, before
// any listener starts, so request paths can never race key generation.
// Key generation failure is fatal to the caller.
func New(cfg config.Config, reg registry.Repo) (*Server, error) {
	if reg == nil {
		return nil, errors.New("[Server New] registry is required")
	}

	keyPair, err := token.GenerateRSAKeyPair(uuid.NewString(), 2048)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to generate signing key pair")
	}
	signer := token.NewKeyPairSigner(keyPair)

	s := &Server{
		env:             cfg.GetEnv(),
		mux:             http.NewServeMux(),
		config:          cfg,
		registry:        reg,
		authCodes:       authcode.NewStore(cfg.GetAuthCodeExpiry()),
		deviceCodes:     devicecode.NewStore(cfg.GetDeviceCodeExpiry(), cfg.GetDevicePollInterval()),
		refreshSessions: refresh.NewStore(),
		signer:          signer,
		issuer: token.NewIssuer(signer, reg,
			token.WithTokenExpiry(cfg.GetAccessTokenExpiry(), cfg.GetIDTokenExpiry(), cfg.GetRefreshTokenExpiry())),
		verifier: token.NewVerifier(signer),
	}

	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

// CleanupExpired sweeps expired authorization and device codes. Lazy
// expiry already prevents stale reads; the sweep reclaims memory.
func (s *Server) CleanupExpired() int {
	return s.authCodes.CleanupExpired() + s.deviceCodes.CleanupExpired()
}

// issuerURL resolves the issuer identifier for a request: the configured
// base URL when one is set, otherwise the request's own scheme and host.
// Discovery, token claims and userinfo verification all go through this,
// so they always agree.
func (s *Server) issuerURL(r *http.Request) string {
	if base := s.config.GetBaseURL(); base != "" {
		return strings.TrimSuffix(base, "/")
	}
	return getScheme(r) + "://" + r.Host
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
