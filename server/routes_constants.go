package server

// Route path constants
// All protocol routes are defined here to ensure consistency and prevent typos
const (
	RouteWellKnownOpenIDConfig = "/.well-known/openid-configuration"
	RouteJWKS                  = "/jwks"
	RouteAuthorize             = "/authorize"
	RouteToken                 = "/token"
	RouteDeviceAuthorize       = "/device/authorize"
	RouteDeviceVerification    = "/device"
	RouteRevoke                = "/revoke"
	RouteUserInfo              = "/userinfo"
)
