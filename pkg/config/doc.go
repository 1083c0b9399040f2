// Package config provides common configuration utilities for account-idm.
//
// This package centralizes configuration loading patterns used across the
// service binaries. Each config struct carries cleanenv env tags for bulk
// loading and a NewXFromEnv constructor for piecemeal loading.
//
// # Environment Variable Helpers
//
// Load configuration from environment variables with automatic type
// conversion and defaults:
//
//	host := config.GetEnvOrDefault("GALLERY_PG_HOST", "localhost")
//	port := config.GetEnvUint16("GALLERY_PG_PORT", 5432)
//	tls := config.GetEnvBool("EMAIL_TLS", false)
//	expiry := config.GetEnvDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
package config
