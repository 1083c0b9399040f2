package config

import (
	"github.com/packgallery/account-idm/pkg/password"
)

// PasswordPolicyConfig holds password policy configuration from
// environment variables
type PasswordPolicyConfig struct {
	Enabled            bool `env:"PASSWORD_POLICY_ENABLED" env-default:"true"`
	RequiredLength     int  `env:"PASSWORD_COMPLEXITY_REQUIRED_LENGTH" env-default:"8"`
	RequireUppercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE" env-default:"true"`
	RequireLowercase   bool `env:"PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE" env-default:"true"`
	RequireDigit       bool `env:"PASSWORD_COMPLEXITY_REQUIRE_DIGIT" env-default:"true"`
	RequireSpecialChar bool `env:"PASSWORD_COMPLEXITY_REQUIRE_NON_ALPHANUMERIC" env-default:"true"`
	DisallowCommonPwds bool `env:"PASSWORD_COMPLEXITY_DISALLOW_COMMON_PWDS" env-default:"true"`
	MaxRepeatedChars   int  `env:"PASSWORD_COMPLEXITY_MAX_REPEATED_CHARS" env-default:"3"`
}

// ToPolicy converts the configuration to a password.Policy. A nil or
// disabled config yields the default policy.
func (c *PasswordPolicyConfig) ToPolicy() *password.Policy {
	if c == nil || !c.Enabled {
		return password.DefaultPolicy()
	}

	return &password.Policy{
		MinLength:          c.RequiredLength,
		RequireUppercase:   c.RequireUppercase,
		RequireLowercase:   c.RequireLowercase,
		RequireDigit:       c.RequireDigit,
		RequireSpecialChar: c.RequireSpecialChar,
		DisallowCommonPwds: c.DisallowCommonPwds,
		MaxRepeatedChars:   c.MaxRepeatedChars,
	}
}

// NewPasswordPolicyConfigFromEnv creates a PasswordPolicyConfig from
// environment variables
func NewPasswordPolicyConfigFromEnv() *PasswordPolicyConfig {
	return &PasswordPolicyConfig{
		Enabled:            GetEnvBool("PASSWORD_POLICY_ENABLED", true),
		RequiredLength:     GetEnvInt("PASSWORD_COMPLEXITY_REQUIRED_LENGTH", 8),
		RequireUppercase:   GetEnvBool("PASSWORD_COMPLEXITY_REQUIRE_UPPERCASE", true),
		RequireLowercase:   GetEnvBool("PASSWORD_COMPLEXITY_REQUIRE_LOWERCASE", true),
		RequireDigit:       GetEnvBool("PASSWORD_COMPLEXITY_REQUIRE_DIGIT", true),
		RequireSpecialChar: GetEnvBool("PASSWORD_COMPLEXITY_REQUIRE_NON_ALPHANUMERIC", true),
		DisallowCommonPwds: GetEnvBool("PASSWORD_COMPLEXITY_DISALLOW_COMMON_PWDS", true),
		MaxRepeatedChars:   GetEnvInt("PASSWORD_COMPLEXITY_MAX_REPEATED_CHARS", 3),
	}
}
