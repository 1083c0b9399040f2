package password

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/packgallery/account-idm/pkg/utils"
)

// Version represents the version of the password hashing algorithm
type Version int

const (
	// V1 is the original bcrypt implementation
	V1 Version = 1

	// V2 adds a salt prefix to the password before hashing
	V2 Version = 2

	// CurrentVersion is the version that should be used for new passwords
	CurrentVersion = V2
)

// Manager handles password hashing and verification. It carries no
// storage; persistence of hashes belongs to the account repository.
type Manager struct {
	policy  *Policy
	version Version
}

// NewManager creates a new Manager with the specified policy
func NewManager(policy *Policy) *Manager {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Manager{
		policy:  policy,
		version: CurrentVersion,
	}
}

// Policy returns the complexity policy in effect
func (m *Manager) Policy() *Policy {
	return m.policy
}

// CheckComplexity verifies that a password meets the policy requirements
func (m *Manager) CheckComplexity(password string) error {
	return m.policy.Check(password)
}

// Hash hashes a password with the current version
func (m *Manager) Hash(password string) (string, Version, error) {
	if password == "" {
		return "", 0, errors.New("password cannot be empty")
	}

	hash, err := hashWithVersion(password, m.version)
	if err != nil {
		return "", 0, err
	}
	return hash, m.version, nil
}

func hashWithVersion(password string, version Version) (string, error) {
	switch version {
	case V1:
		hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(hashedBytes), nil

	case V2:
		// Salt prefix plus a higher cost. The salt is stored in front of
		// the hash so the stored value is self-describing.
		salt := utils.GenerateRandomString(16)
		hashedBytes, err := bcrypt.GenerateFromPassword([]byte(salt+password), bcrypt.DefaultCost+2)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s:%s", salt, string(hashedBytes)), nil

	default:
		return "", fmt.Errorf("unsupported password version: %d", version)
	}
}

// Verify checks the provided password against a stored hash of a known version
func (m *Manager) Verify(password, storedHash string, version Version) (bool, error) {
	if password == "" || storedHash == "" {
		return false, errors.New("password and hashed password cannot be empty")
	}

	switch version {
	case V1:
		return compareBcrypt(storedHash, password)

	case V2:
		parts := strings.SplitN(storedHash, ":", 2)
		if len(parts) != 2 {
			return false, errors.New("invalid v2 password format")
		}
		return compareBcrypt(parts[1], parts[0]+password)

	default:
		return false, fmt.Errorf("unsupported password version: %d", version)
	}
}

func compareBcrypt(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GenerateRandomPassword creates a random password that meets complexity requirements
func (m *Manager) GenerateRandomPassword() string {
	// Rejection-sample until the candidate passes the policy; repeated
	// characters can otherwise slip through.
	for {
		if pw := m.randomPasswordCandidate(); m.policy.Check(pw) == nil {
			return pw
		}
	}
}

func (m *Manager) randomPasswordCandidate() string {
	uppercase := "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowercase := "abcdefghijklmnopqrstuvwxyz"
	digits := "0123456789"
	special := "!@#$%^&*()-_=+[]{}|;:,.<>?"

	var password strings.Builder

	if m.policy.RequireUppercase {
		password.WriteByte(uppercase[utils.RandomInt(len(uppercase))])
	}
	if m.policy.RequireLowercase {
		password.WriteByte(lowercase[utils.RandomInt(len(lowercase))])
	}
	if m.policy.RequireDigit {
		password.WriteByte(digits[utils.RandomInt(len(digits))])
	}
	if m.policy.RequireSpecialChar {
		password.WriteByte(special[utils.RandomInt(len(special))])
	}

	allChars := uppercase + lowercase + digits + special
	for password.Len() < m.policy.MinLength {
		password.WriteByte(allChars[utils.RandomInt(len(allChars))])
	}

	// Shuffle to avoid the predictable class ordering above
	passwordRunes := []rune(password.String())
	utils.ShuffleRunes(passwordRunes)

	return string(passwordRunes)
}
