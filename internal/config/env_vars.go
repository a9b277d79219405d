package config

import (
	"fmt"
	"os"
	"time"
)

const (
	portEnvVar        = "PORT"
	appNameVar        = "APP_NAME"
	localeVar         = "LOCALE"
	storageFileVar    = "STORAGE_FILE"
	routePolicyVar    = "ROUTE_POLICY_FILE"
	defaultLocale     = "en"
	defaultAppName    = "Stacking Plan Auth"
	defaultPortNumber = "8080"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, defaultPortNumber)
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, defaultAppName)
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetLocale returns the two-letter locale used to prefix redirect targets.
func (EnvVars) GetLocale() string {
	return GetEnv(localeVar, defaultLocale)
}

// GetStorageFile returns the path of the JSON file backing persistent storage.
// Empty means in-memory storage.
func (EnvVars) GetStorageFile() string {
	return GetEnv(storageFileVar, "")
}

func (EnvVars) GetRoutePolicyFile() string {
	return GetEnv(routePolicyVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// GetDurationEnv parses envVar as a time.Duration, falling back to defaultValue when unset or invalid.
func GetDurationEnv(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
