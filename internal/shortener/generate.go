package shortener

import "github.com/jaevor/go-nanoid"

// CodeAlphabet is the 62-symbol alphabet generated shortcodes draw from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultCodeLength is the length of generated shortcodes.
const DefaultCodeLength = 6

// CodeGenerator produces a random shortcode. It gives no uniqueness
// guarantee by itself; callers check against the store.
type CodeGenerator func() string

// NewCodeGenerator returns a generator drawing uniformly from CodeAlphabet.
// A non-positive length falls back to DefaultCodeLength.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	gen, err := nanoid.CustomASCII(CodeAlphabet, length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}
