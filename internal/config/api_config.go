package config

import "time"

type APIConfig interface {
	GetAPIBaseURL() string
	GetHTTPTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the API root every endpoint path is resolved against (e.g., "https://api.example.com/api/v1")
func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:8080/api/v1")
}

func (API) GetHTTPTimeout() time.Duration {
	return GetDurationEnv("HTTP_TIMEOUT", 30*time.Second)
}
