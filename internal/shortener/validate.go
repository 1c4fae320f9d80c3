package shortener

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// MaxBatchSize is the largest number of URLs accepted in one request.
	MaxBatchSize = 5

	// MaxValidityMinutes caps the validity window at one week.
	MaxValidityMinutes = 10080

	// DefaultValidityMinutes applies when a request omits the window.
	DefaultValidityMinutes = 30
)

var shortcodeRe = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

var nonAlphanumericRe = regexp.MustCompile(`[^A-Za-z0-9]`)

// CreateRequest is one entry of a creation batch.
type CreateRequest struct {
	OriginalURL     string
	ValidityMinutes *int
	CustomShortcode string
}

// IndexedRequest pairs a syntactically valid request with its position in
// the original batch, so later failures report the right index.
type IndexedRequest struct {
	Index   int
	Request CreateRequest
}

// ValidShortcode reports whether s, after trimming, is a well-formed
// shortcode: 3 to 20 alphanumeric characters.
func ValidShortcode(s string) bool {
	return shortcodeRe.MatchString(strings.TrimSpace(s))
}

// SanitizeShortcode trims s and strips every non-alphanumeric character.
func SanitizeShortcode(s string) string {
	return nonAlphanumericRe.ReplaceAllString(strings.TrimSpace(s), "")
}

// ValidateBatch checks a creation batch and splits it into syntactically
// valid requests and per-index errors. An empty or oversized batch is
// rejected as a whole with a single error at index 0. Per-request checks
// are independent; a duplicated custom shortcode within the batch marks
// every repeat after the first occurrence.
func ValidateBatch(requests []CreateRequest) ([]IndexedRequest, []ItemError) {
	if len(requests) == 0 {
		return nil, []ItemError{{Index: 0, Message: "at least one URL is required"}}
	}

	if len(requests) > MaxBatchSize {
		return nil, []ItemError{{Index: 0, Message: fmt.Sprintf("maximum %d URLs per request", MaxBatchSize)}}
	}

	seenCodes := make(map[string]bool)

	var (
		valid []IndexedRequest
		errs  []ItemError
	)

	for i, req := range requests {
		reasons := validateRequest(req)

		code := strings.TrimSpace(req.CustomShortcode)
		if code != "" {
			if seenCodes[code] {
				reasons = append(reasons, "customShortcode duplicated in batch")
			}

			seenCodes[code] = true
		}

		if len(reasons) > 0 {
			errs = append(errs, ItemError{Index: i, Message: strings.Join(reasons, "; ")})

			continue
		}

		valid = append(valid, IndexedRequest{Index: i, Request: req})
	}

	return valid, errs
}

func validateRequest(req CreateRequest) []string {
	var reasons []string

	if strings.TrimSpace(req.OriginalURL) == "" {
		reasons = append(reasons, "originalUrl is required")
	} else if !validAbsoluteURL(req.OriginalURL) {
		reasons = append(reasons, "originalUrl must be an absolute http or https URL")
	}

	if req.ValidityMinutes != nil {
		if v := *req.ValidityMinutes; v < 1 || v > MaxValidityMinutes {
			reasons = append(reasons, fmt.Sprintf("validityMinutes must be between 1 and %d", MaxValidityMinutes))
		}
	}

	if code := strings.TrimSpace(req.CustomShortcode); code != "" && !shortcodeRe.MatchString(code) {
		reasons = append(reasons, "customShortcode must be 3-20 alphanumeric characters")
	}

	return reasons
}

func validAbsoluteURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
