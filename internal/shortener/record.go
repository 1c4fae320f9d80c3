package shortener

import "time"

// GeoLocation is coarse click origin information, filled in best-effort.
type GeoLocation struct {
	Country string `json:"country,omitempty"`
	City    string `json:"city,omitempty"`
}

// ClickEvent is one recorded resolution of a shortcode.
type ClickEvent struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Referrer  string       `json:"referrer"`
	UserAgent string       `json:"userAgent"`
	Geo       *GeoLocation `json:"geoLocation,omitempty"`
}

// URLRecord is a shortened URL with its accumulated click history.
// Clicks is append-only; insertion order is chronological order.
type URLRecord struct {
	ID                string       `json:"id"`
	OriginalURL       string       `json:"originalUrl"`
	Shortcode         string       `json:"shortcode"`
	CreatedAt         time.Time    `json:"createdAt"`
	ExpiresAt         time.Time    `json:"expiresAt"`
	ValidityMinutes   int          `json:"validityMinutes"`
	IsCustomShortcode bool         `json:"isCustomShortcode"`
	Clicks            []ClickEvent `json:"clicks"`
}

// IsExpired reports whether the record has expired at the given time.
// A record is active strictly before ExpiresAt.
func (r *URLRecord) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Clone returns a deep copy of the record, including its click history.
func (r *URLRecord) Clone() *URLRecord {
	clicks := make([]ClickEvent, len(r.Clicks))
	copy(clicks, r.Clicks)

	for i, c := range r.Clicks {
		if c.Geo != nil {
			geo := *c.Geo
			clicks[i].Geo = &geo
		}
	}

	clone := *r
	clone.Clicks = clicks

	return &clone
}

// Page is one window of records sorted by creation time descending.
type Page struct {
	Items   []URLRecord
	Total   int
	HasMore bool
}

// Summary holds aggregate counts computed over the whole collection.
type Summary struct {
	TotalURLs   int
	TotalClicks int
	ActiveURLs  int
	ExpiredURLs int
}

// RequestMeta holds HTTP request metadata attached to click events.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
}
