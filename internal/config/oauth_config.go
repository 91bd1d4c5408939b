package config

import "time"

const (
	authCodeExpiryVar     = "AUTH_CODE_EXPIRY"
	deviceCodeExpiryVar   = "DEVICE_CODE_EXPIRY"
	devicePollIntervalVar = "DEVICE_POLL_INTERVAL"
	accessTokenExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	idTokenExpiryVar      = "ID_TOKEN_EXPIRY"
	refreshTokenExpiryVar = "REFRESH_TOKEN_EXPIRY"
)

type OAuthConfig interface {
	GetAuthCodeExpiry() time.Duration
	GetDeviceCodeExpiry() time.Duration
	GetDevicePollInterval() time.Duration
	GetAccessTokenExpiry() time.Duration
	GetIDTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

// Durations use Go syntax ("90s", "2h"). Unset or unparsable values fall
// back to the defaults.

func (OAuth) GetAuthCodeExpiry() time.Duration {
	return GetDurationEnv(authCodeExpiryVar, 60*time.Second)
}

func (OAuth) GetDeviceCodeExpiry() time.Duration {
	return GetDurationEnv(deviceCodeExpiryVar, 600*time.Second)
}

func (OAuth) GetDevicePollInterval() time.Duration {
	return GetDurationEnv(devicePollIntervalVar, 5*time.Second)
}

func (OAuth) GetAccessTokenExpiry() time.Duration {
	return GetDurationEnv(accessTokenExpiryVar, 1*time.Hour)
}

func (OAuth) GetIDTokenExpiry() time.Duration {
	return GetDurationEnv(idTokenExpiryVar, 1*time.Hour)
}

func (OAuth) GetRefreshTokenExpiry() time.Duration {
	return GetDurationEnv(refreshTokenExpiryVar, 24*time.Hour)
}
