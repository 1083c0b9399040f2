package config

import (
	"fmt"
)

// DatabaseConfig holds PostgreSQL database configuration
// This is shared across all services to avoid duplication
type DatabaseConfig struct {
	Host     string `env:"GALLERY_PG_HOST"`
	Port     uint16 `env:"GALLERY_PG_PORT" env-default:"5432"`
	Database string `env:"GALLERY_PG_DATABASE" env-default:"gallery_db"`
	User     string `env:"GALLERY_PG_USER" env-default:"gallery"`
	Password string `env:"GALLERY_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"GALLERY_PG_SCHEMA" env-default:"public"`
}

// IsConfigured returns true when a database host has been supplied.
// accountd falls back to in-memory storage otherwise.
func (d DatabaseConfig) IsConfigured() bool {
	return d.Host != ""
}

// ToDatabaseURL converts the config to a PostgreSQL connection URL
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		d.User, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

// NewDatabaseConfigFromEnv creates a DatabaseConfig from environment variables
func NewDatabaseConfigFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:     GetEnv("GALLERY_PG_HOST"),
		Port:     GetEnvUint16("GALLERY_PG_PORT", 5432),
		Database: GetEnvOrDefault("GALLERY_PG_DATABASE", "gallery_db"),
		User:     GetEnvOrDefault("GALLERY_PG_USER", "gallery"),
		Password: GetEnvOrDefault("GALLERY_PG_PASSWORD", "pwd"),
		Schema:   GetEnvOrDefault("GALLERY_PG_SCHEMA", "public"),
	}
}
