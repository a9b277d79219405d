package config

import "time"

// DevServerConfig configures the local development backend.
type DevServerConfig interface {
	GetAccessTokenTTL() time.Duration
}

type DevServer struct{}

var _ DevServerConfig = DevServer{}

func (DevServer) GetAccessTokenTTL() time.Duration {
	return GetDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute)
}
