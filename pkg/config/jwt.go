package config

import (
	"time"
)

// JwtConfig holds JWT authentication configuration
type JwtConfig struct {
	Secret            string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	AccessTokenExpiry string `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`
	Issuer            string `env:"JWT_ISSUER" env-default:"account-idm"`
	Audience          string `env:"JWT_AUDIENCE" env-default:"account-idm"`
}

// ParseAccessTokenExpiry parses the access token expiry duration
func (j JwtConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return time.ParseDuration(j.AccessTokenExpiry)
}

// NewJwtConfigFromEnv creates a JwtConfig from environment variables
func NewJwtConfigFromEnv() JwtConfig {
	return JwtConfig{
		Secret:            GetEnvOrDefault("JWT_SECRET", "very-secure-jwt-secret"),
		AccessTokenExpiry: GetEnvOrDefault("ACCESS_TOKEN_EXPIRY", "15m"),
		Issuer:            GetEnvOrDefault("JWT_ISSUER", "account-idm"),
		Audience:          GetEnvOrDefault("JWT_AUDIENCE", "account-idm"),
	}
}
