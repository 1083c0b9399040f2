package config

import (
	"fmt"
	"strings"
)

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Host string `env:"GALLERY_HOST" env-default:"localhost"`
	Port uint16 `env:"GALLERY_PORT" env-default:"4000"`

	// BaseURL is the externally visible URL prefix used when building
	// the links embedded in confirmation and reset emails.
	BaseURL string `env:"GALLERY_BASE_URL" env-default:"http://localhost:4000"`
}

// Addr returns the listen address in host:port form
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ExternalURL returns the base URL without a trailing slash
func (s ServerConfig) ExternalURL() string {
	return strings.TrimRight(s.BaseURL, "/")
}

// NewServerConfigFromEnv creates a ServerConfig from environment variables
func NewServerConfigFromEnv() ServerConfig {
	return ServerConfig{
		Host:    GetEnvOrDefault("GALLERY_HOST", "localhost"),
		Port:    GetEnvUint16("GALLERY_PORT", 4000),
		BaseURL: GetEnvOrDefault("GALLERY_BASE_URL", "http://localhost:4000"),
	}
}
