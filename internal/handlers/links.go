package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/linkbatch/linkbatch/internal/shortener"
	"go.uber.org/zap"
)

// LinkHandler handles link creation, redirection, listing, and stats.
type LinkHandler struct {
	service *shortener.Service
	baseURL string
	clock   shortener.Clock
	logger  *zap.Logger
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(service *shortener.Service, baseURL string, clock shortener.Clock, logger *zap.Logger) *LinkHandler {
	return &LinkHandler{
		service: service,
		baseURL: baseURL,
		clock:   clock,
		logger:  logger,
	}
}

// CreateLinks shortens a batch of up to five URLs. Per-item failures come
// back in the response body, keyed by batch index; only a persistence
// failure turns into an HTTP error.
func (h *LinkHandler) CreateLinks(ctx context.Context, req *CreateLinksRequest) (*CreateLinksResponse, error) {
	requests := make([]shortener.CreateRequest, 0, len(req.Body.Urls))
	for _, in := range req.Body.Urls {
		requests = append(requests, shortener.CreateRequest{
			OriginalURL:     in.OriginalURL,
			ValidityMinutes: in.ValidityMinutes,
			CustomShortcode: in.CustomShortcode,
		})
	}

	result, err := h.service.CreateLinks(ctx, requests, RequestMetaFromContext(ctx))
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to save links")
	}

	h.logger.Debug("create batch handled",
		zap.Int("requested", len(requests)),
		zap.Int("created", len(result.Created)),
		zap.Int("rejected", len(result.Errors)),
	)

	resp := &CreateLinksResponse{}
	resp.Body.Success = make([]LinkPayload, 0, len(result.Created))
	resp.Body.Errors = result.Errors

	if resp.Body.Errors == nil {
		resp.Body.Errors = []shortener.ItemError{}
	}

	for i := range result.Created {
		resp.Body.Success = append(resp.Body.Success, h.toPayload(&result.Created[i], false))
	}

	return resp, nil
}

// RedirectToURL resolves a shortcode and redirects to the original URL.
func (h *LinkHandler) RedirectToURL(ctx context.Context, req *RedirectRequest) (*RedirectResponse, error) {
	target, err := h.service.Redirect(ctx, req.Code, RequestMetaFromContext(ctx))
	if err != nil {
		if errors.Is(err, shortener.ErrNotFound) {
			return nil, huma.Error404NotFound("short link not found or expired")
		}

		return nil, huma.Error500InternalServerError("failed to resolve short link")
	}

	resp := &RedirectResponse{
		Status: http.StatusFound,
	}
	resp.Headers.Location = target

	return resp, nil
}

// ListLinks returns one page of links, newest first.
func (h *LinkHandler) ListLinks(ctx context.Context, req *ListLinksRequest) (*ListLinksResponse, error) {
	page, err := h.service.Links(ctx, req.Page, req.Limit)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	resp := &ListLinksResponse{}
	resp.Body.Items = make([]LinkPayload, 0, len(page.Items))
	resp.Body.Total = page.Total
	resp.Body.Page = req.Page
	resp.Body.Limit = req.Limit
	resp.Body.HasMore = page.HasMore

	for i := range page.Items {
		resp.Body.Items = append(resp.Body.Items, h.toPayload(&page.Items[i], true))
	}

	return resp, nil
}

// GetStats returns the aggregate analytics summary.
func (h *LinkHandler) GetStats(ctx context.Context, _ *struct{}) (*StatsResponse, error) {
	summary := h.service.Stats(ctx)

	resp := &StatsResponse{}
	resp.Body.TotalUrls = summary.TotalURLs
	resp.Body.TotalClicks = summary.TotalClicks
	resp.Body.ActiveUrls = summary.ActiveURLs
	resp.Body.ExpiredUrls = summary.ExpiredURLs

	return resp, nil
}

func (h *LinkHandler) toPayload(record *shortener.URLRecord, markExpired bool) LinkPayload {
	payload := LinkPayload{
		ID:                record.ID,
		Shortcode:         record.Shortcode,
		ShortURL:          fmt.Sprintf("%s/%s", h.baseURL, record.Shortcode),
		OriginalURL:       record.OriginalURL,
		CreatedAt:         record.CreatedAt,
		ExpiresAt:         record.ExpiresAt,
		ValidityMinutes:   record.ValidityMinutes,
		IsCustomShortcode: record.IsCustomShortcode,
		ClickCount:        len(record.Clicks),
	}

	if markExpired {
		payload.Expired = record.IsExpired(h.clock.Now())
	}

	return payload
}
