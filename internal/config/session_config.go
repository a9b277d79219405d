package config

import "time"

type SessionConfig interface {
	GetAccessTokenKey() string
	GetRefreshTokenKey() string
	GetAccessTokenCookie() string
	GetCookieBuffer() time.Duration
	GetRefreshTimeout() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetAccessTokenKey is the persistent-store key holding the raw access token
func (Session) GetAccessTokenKey() string {
	return GetEnv("ACCESS_TOKEN_LS_KEY", "ACCESS_TOKEN")
}

// GetRefreshTokenKey is the persistent-store key holding the raw refresh token
func (Session) GetRefreshTokenKey() string {
	return GetEnv("REFRESH_TOKEN_LS_KEY", "REFRESH_TOKEN")
}

func (Session) GetAccessTokenCookie() string {
	return "access_token"
}

// GetCookieBuffer is added to the token's remaining lifetime when setting the cookie max-age
func (Session) GetCookieBuffer() time.Duration {
	return 365 * 24 * time.Hour
}

func (Session) GetRefreshTimeout() time.Duration {
	return GetDurationEnv("REFRESH_TIMEOUT", 30*time.Second)
}
