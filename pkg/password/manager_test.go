package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	m := NewManager(nil)

	t.Run("ValidPassword", func(t *testing.T) {
		hash, version, err := m.Hash("validPassword123!")
		require.NoError(t, err)
		assert.Equal(t, CurrentVersion, version)
		assert.NotEmpty(t, hash)

		match, err := m.Verify("validPassword123!", hash, version)
		assert.NoError(t, err)
		assert.True(t, match, "the password should match its own hash")
	})

	t.Run("WrongPassword", func(t *testing.T) {
		hash, version, err := m.Hash("correctPassword1!")
		require.NoError(t, err)

		match, err := m.Verify("incorrectPassword1!", hash, version)
		assert.NoError(t, err)
		assert.False(t, match)
	})

	t.Run("EmptyPassword", func(t *testing.T) {
		_, _, err := m.Hash("")
		assert.Error(t, err)

		match, err := m.Verify("", "whatever", V2)
		assert.Error(t, err)
		assert.False(t, match)
	})

	t.Run("V1Hash", func(t *testing.T) {
		hash, err := hashWithVersion("legacyPassword1!", V1)
		require.NoError(t, err)

		match, err := m.Verify("legacyPassword1!", hash, V1)
		assert.NoError(t, err)
		assert.True(t, match)
	})

	t.Run("CorruptedV2Hash", func(t *testing.T) {
		match, err := m.Verify("somePassword1!", "no-salt-separator", V2)
		assert.Error(t, err)
		assert.False(t, match)
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		_, err := hashWithVersion("pw", Version(42))
		assert.Error(t, err)
	})
}

func TestCheckComplexity(t *testing.T) {
	m := NewManager(DefaultPolicy())

	cases := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"Valid", "Str0ng&Secret", false},
		{"TooShort", "S7!a", true},
		{"NoUppercase", "weak&secret1", true},
		{"NoLowercase", "WEAK&SECRET1", true},
		{"NoDigit", "Weak&Secret", true},
		{"NoSpecial", "WeakSecret12", true},
		{"Repeated", "Waaa&Secret1", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := m.CheckComplexity(tc.password)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateRandomPassword(t *testing.T) {
	m := NewManager(nil)
	for i := 0; i < 10; i++ {
		pw := m.GenerateRandomPassword()
		assert.NoError(t, m.CheckComplexity(pw), "generated password should pass its own policy: %q", pw)
	}
}
