package shortener_test

import (
	"regexp"
	"testing"

	"github.com/linkbatch/linkbatch/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeGenerator(t *testing.T) {
	t.Run("generates codes matching the shortcode alphabet", func(t *testing.T) {
		generate, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		re := regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

		for i := 0; i < 200; i++ {
			assert.Regexp(t, re, generate())
		}
	})

	t.Run("falls back to default length when non-positive", func(t *testing.T) {
		generate, err := shortener.NewCodeGenerator(0)
		require.NoError(t, err)

		assert.Len(t, generate(), shortener.DefaultCodeLength)
	})

	t.Run("respects custom length", func(t *testing.T) {
		generate, err := shortener.NewCodeGenerator(10)
		require.NoError(t, err)

		assert.Len(t, generate(), 10)
	})

	t.Run("produces distinct codes", func(t *testing.T) {
		generate, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			seen[generate()] = true
		}

		// 62^6 combinations; 100 draws colliding would point at a broken generator.
		assert.Greater(t, len(seen), 95)
	})
}
