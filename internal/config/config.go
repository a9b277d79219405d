package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config interface {
	EnvConfig
	APIConfig
	SessionConfig
	GuardConfig
	DevServerConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLocale() string
	GetStorageFile() string
	GetRoutePolicyFile() string
}

type mainConfig struct {
	EnvVars
	API
	Session
	Guard
	DevServer
}

// New loads a .env file when one is present and returns a Config reading from the environment.
func New() Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}
	return mainConfig{}
}
