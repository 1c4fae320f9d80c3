// Package geo enriches click events with coarse client location. Lookups
// are best-effort network calls; every failure path just means the click
// has no geo field.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/linkbatch/linkbatch/internal/shortener"
)

const lookupTimeout = 2 * time.Second

// HTTPResolver queries an ip-api compatible endpoint
// (GET {endpoint}/{ip} -> JSON with country/city fields).
type HTTPResolver struct {
	client   *http.Client
	endpoint string
}

// NewHTTPResolver creates a resolver against the given endpoint, e.g.
// "http://ip-api.com/json".
func NewHTTPResolver(endpoint string) *HTTPResolver {
	return &HTTPResolver{
		client:   &http.Client{Timeout: lookupTimeout},
		endpoint: endpoint,
	}
}

type lookupResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// Resolve looks up the location for an IP address.
func (r *HTTPResolver) Resolve(ctx context.Context, ip string) (*shortener.GeoLocation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return nil, err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo lookup returned status %d", resp.StatusCode)
	}

	var payload lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	if payload.Status == "fail" {
		return nil, fmt.Errorf("geo lookup failed for %s", ip)
	}

	return &shortener.GeoLocation{
		Country: payload.Country,
		City:    payload.City,
	}, nil
}
