package password

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Policy defines the requirements for password complexity
type Policy struct {
	MinLength          int
	RequireUppercase   bool
	RequireLowercase   bool
	RequireDigit       bool
	RequireSpecialChar bool
	DisallowCommonPwds bool
	MaxRepeatedChars   int
}

// DefaultPolicy returns a default password policy
func DefaultPolicy() *Policy {
	return &Policy{
		MinLength:          8,
		RequireUppercase:   true,
		RequireLowercase:   true,
		RequireDigit:       true,
		RequireSpecialChar: true,
		DisallowCommonPwds: true,
		MaxRepeatedChars:   3,
	}
}

// ErrComplexity marks every policy violation so callers can map the
// whole family with errors.Is while keeping the specific message.
var ErrComplexity = errors.New("password does not meet complexity requirements")

var (
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
	specialRe   = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// commonPasswords is a small built-in sample; production deployments
// would load thousands from a breach corpus.
var commonPasswords = map[string]bool{
	"password": true, "123456": true, "12345678": true, "qwerty": true,
	"admin": true, "welcome": true, "password123": true, "abc123": true,
	"letmein": true, "monkey": true,
}

// Check verifies that a password meets the complexity requirements
func (p *Policy) Check(password string) error {
	if len(password) < p.MinLength {
		return fmt.Errorf("%w: must be at least %d characters long", ErrComplexity, p.MinLength)
	}

	if p.RequireUppercase && !uppercaseRe.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrComplexity)
	}

	if p.RequireLowercase && !lowercaseRe.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrComplexity)
	}

	if p.RequireDigit && !digitRe.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one digit", ErrComplexity)
	}

	if p.RequireSpecialChar && !specialRe.MatchString(password) {
		return fmt.Errorf("%w: must contain at least one special character", ErrComplexity)
	}

	if p.MaxRepeatedChars > 0 {
		for i := 0; i+p.MaxRepeatedChars <= len(password); i++ {
			if strings.Count(password[i:i+p.MaxRepeatedChars], string(password[i])) == p.MaxRepeatedChars {
				return fmt.Errorf("%w: cannot contain %d or more repeated characters", ErrComplexity, p.MaxRepeatedChars)
			}
		}
	}

	if p.DisallowCommonPwds && commonPasswords[strings.ToLower(password)] {
		return fmt.Errorf("%w: too common and easily guessable", ErrComplexity)
	}

	return nil
}
