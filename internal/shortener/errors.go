package shortener

import "errors"

var (
	// ErrNotFound indicates the shortcode does not resolve. Expired and
	// never-created codes are intentionally indistinguishable so a lookup
	// cannot reveal whether a code ever existed.
	ErrNotFound = errors.New("short link not found or expired")

	// ErrCodeInUse indicates a custom shortcode is already taken.
	ErrCodeInUse = errors.New("shortcode already in use")

	// ErrGenerationExhausted indicates random code generation collided on
	// every attempt. This is an internal capacity condition, not bad input.
	ErrGenerationExhausted = errors.New("unable to allocate a unique shortcode")
)

// ItemError reports a failure for a single entry of a creation batch.
// Index is the position in the original input sequence.
type ItemError struct {
	Index   int    `json:"index"`
	Message string `json:"error"`
}
