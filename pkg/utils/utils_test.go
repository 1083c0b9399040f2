package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	t.Run("Length", func(t *testing.T) {
		for _, n := range []int{0, 1, 16, 32} {
			assert.Len(t, GenerateRandomString(n), n)
		}
	})

	t.Run("Uniqueness", func(t *testing.T) {
		a := GenerateRandomString(32)
		b := GenerateRandomString(32)
		assert.NotEqual(t, a, b, "two 32-char tokens should not collide")
	})
}

func TestRandomInt(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := RandomInt(10)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 10)
	}
	assert.Equal(t, 0, RandomInt(0))

	t.Run("CoversRange", func(t *testing.T) {
		// Every value should show up over enough draws; a degenerate
		// source (constant or truncated output) fails this quickly.
		seen := map[int]bool{}
		for i := 0; i < 2000; i++ {
			seen[RandomInt(8)] = true
		}
		assert.Len(t, seen, 8)
	})
}

func TestShuffleRunes(t *testing.T) {
	runes := []rune("abcdefghijklmnopqrstuvwxyz")
	ShuffleRunes(runes)
	assert.Len(t, runes, 26)
	seen := map[rune]bool{}
	for _, r := range runes {
		seen[r] = true
	}
	assert.Len(t, seen, 26, "shuffle should not drop or duplicate runes")
}
