package server

import "net/http"

func (s *Server) initRoutes() {
	// OAuth2 / OIDC API routes
	s.RegisterRouteHandler("GET "+RouteWellKnownOpenIDConfig, ChainMiddleware(s.WellKnownOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteJWKS, ChainMiddleware(s.JWKS(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthorize, ChainMiddleware(s.Authorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteToken, ChainMiddleware(s.Token(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDeviceAuthorize, ChainMiddleware(s.DeviceAuthorize(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRevoke, ChainMiddleware(s.Revoke(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteUserInfo, ChainMiddleware(s.UserInfo(), s.APIMiddleware()...))

	// User-facing device approval surface
	s.RegisterRouteHandler("GET "+RouteDeviceVerification, ChainMiddleware(s.DeviceVerificationPage(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteDeviceVerification, ChainMiddleware(s.DeviceVerificationSubmit(), s.HTMLMiddleware()...))

	// CORS preflight for every protocol route
	for _, route := range []string{
		RouteWellKnownOpenIDConfig, RouteJWKS, RouteAuthorize, RouteToken,
		RouteDeviceAuthorize, RouteRevoke, RouteUserInfo,
	} {
		s.RegisterRouteHandler("OPTIONS "+route, ChainMiddleware(s.Preflight(), s.APIMiddleware()...))
	}
}

// Preflight answers CORS preflight requests. The CORS middleware has
// already attached the permissive headers.
func (s *Server) Preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
