package handlers

import (
	"time"

	"github.com/linkbatch/linkbatch/internal/shortener"
)

// CreateLinkInput is one entry of a creation batch. Field-level validation
// is done by the service layer so errors come back keyed by batch index.
type CreateLinkInput struct {
	OriginalURL     string `doc:"The URL to shorten"                                 example:"https://example.com/very/long/path" json:"originalUrl,omitempty"`
	ValidityMinutes *int   `doc:"Validity window in minutes (default 30, max 10080)" example:"30"                                 json:"validityMinutes,omitempty"`
	CustomShortcode string `doc:"Optional custom shortcode, 3-20 alphanumerics"      example:"promo"                              json:"customShortcode,omitempty"`
}

// CreateLinksRequest is the request body for creating short links.
type CreateLinksRequest struct {
	Body struct {
		Urls []CreateLinkInput `doc:"Up to 5 URLs to shorten" json:"urls,omitempty"`
	}
}

// LinkPayload is the API representation of a stored link.
type LinkPayload struct {
	ID                string    `json:"id"`
	Shortcode         string    `doc:"The shortcode"      example:"Ab3xY9"                       json:"shortcode"`
	ShortURL          string    `doc:"The full short URL" example:"http://localhost:8888/Ab3xY9" json:"shortUrl"`
	OriginalURL       string    `json:"originalUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	ExpiresAt         time.Time `json:"expiresAt"`
	ValidityMinutes   int       `json:"validityMinutes"`
	IsCustomShortcode bool      `json:"isCustomShortcode"`
	ClickCount        int       `json:"clickCount"`
	Expired           bool      `json:"expired"`
}

// CreateLinksResponse reports successes and per-index failures for a batch.
type CreateLinksResponse struct {
	Body struct {
		Success []LinkPayload         `json:"success"`
		Errors  []shortener.ItemError `json:"errors"`
	}
}

// RedirectRequest is the request for resolving a shortcode.
type RedirectRequest struct {
	Code string `doc:"The shortcode" example:"Ab3xY9" path:"code"`
}

// RedirectResponse redirects to the original URL.
type RedirectResponse struct {
	Status  int
	Headers struct {
		Location string `doc:"The original URL" header:"Location"`
	}
}

// ListLinksRequest selects one page of links, newest first.
type ListLinksRequest struct {
	Page  int `default:"1"  minimum:"1" query:"page"`
	Limit int `default:"10" maximum:"100" minimum:"1" query:"limit"`
}

// ListLinksResponse is one page of links.
type ListLinksResponse struct {
	Body struct {
		Items   []LinkPayload `json:"items"`
		Total   int           `json:"total"`
		Page    int           `json:"page"`
		Limit   int           `json:"limit"`
		HasMore bool          `json:"hasMore"`
	}
}

// StatsResponse is the aggregate analytics summary.
type StatsResponse struct {
	Body struct {
		TotalUrls   int `json:"totalUrls"`
		TotalClicks int `json:"totalClicks"`
		ActiveUrls  int `json:"activeUrls"`
		ExpiredUrls int `json:"expiredUrls"`
	}
}
