package utils

import (
	"crypto/rand"
	"database/sql"
	"math/big"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateRandomString returns a cryptographically secure random string
// of the given length, drawn from a URL-safe alphabet. A crypto/rand
// failure panics: these strings become tokens and passwords, and any
// fallback would weaken them silently.
func GenerateRandomString(length int) string {
	result := make([]byte, length)
	for i := range result {
		result[i] = tokenAlphabet[RandomInt(len(tokenAlphabet))]
	}
	return string(result)
}

// RandomInt returns a uniform random int in [0, n). It panics if the
// platform random source fails.
func RandomInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}

// ShuffleRunes shuffles the slice in place using crypto/rand.
func ShuffleRunes(runes []rune) {
	for i := len(runes) - 1; i > 0; i-- {
		j := RandomInt(i + 1)
		runes[i], runes[j] = runes[j], runes[i]
	}
}

func ToNullString(str string) sql.NullString {
	if str == "" {
		return sql.NullString{
			String: str,
			Valid:  false,
		}
	}
	return sql.NullString{
		String: str,
		Valid:  true,
	}
}
