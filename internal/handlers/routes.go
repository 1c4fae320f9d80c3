package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// RegisterRoutes registers all API routes.
func RegisterRoutes(api huma.API, links *LinkHandler, health *HealthHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "create-links",
		Method:      http.MethodPost,
		Path:        "/api/links",
		Summary:     "Create short links",
		Description: "Shortens up to 5 URLs in one batch. Failures are reported per entry, keyed by position in the request.",
		Tags:        []string{"Links"},
	}, links.CreateLinks)

	huma.Register(api, huma.Operation{
		OperationID: "list-links",
		Method:      http.MethodGet,
		Path:        "/api/links",
		Summary:     "List short links",
		Description: "Returns one page of links sorted by creation time, newest first.",
		Tags:        []string{"Links"},
	}, links.ListLinks)

	huma.Register(api, huma.Operation{
		OperationID: "link-stats",
		Method:      http.MethodGet,
		Path:        "/api/links/stats",
		Summary:     "Aggregate link statistics",
		Description: "Returns total, active, and expired link counts plus the total click count.",
		Tags:        []string{"Links"},
	}, links.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, health.Check)

	huma.Register(api, huma.Operation{
		OperationID: "redirect",
		Method:      http.MethodGet,
		Path:        "/{code}",
		Summary:     "Redirect to original URL",
		Description: "Resolves a shortcode and redirects to the original URL. Expired and unknown codes are indistinguishable.",
		Tags:        []string{"Links"},
	}, links.RedirectToURL)
}
