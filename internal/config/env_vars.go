package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar  = "PORT"
	appNameVar  = "APP_NAME"
	databaseVar = "DATABASE_URL"
	redisVar    = "REDIS_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Token Auth Service")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetDatabaseURL returns the Postgres DSN for the user store and the
// postgres refresh-token store. Empty means Postgres is not configured.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseVar, "")
}

// GetRedisURL returns the Redis address for the shared refresh-token store.
// Empty means Redis is not configured and refresh tokens live in Postgres.
func (EnvVars) GetRedisURL() string {
	return GetEnv(redisVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
