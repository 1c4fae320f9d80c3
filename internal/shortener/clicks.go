package shortener

import (
	"context"

	"github.com/linkbatch/linkbatch/internal/messaging"
	"github.com/linkbatch/linkbatch/internal/telemetry"
	"go.uber.org/zap"
)

// GeoResolver looks up a coarse location for a client IP. Implementations
// are best-effort; any failure just omits the geo field from the click.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (*GeoLocation, error)
}

// NewClickHandler returns the consumer handler that turns a published click
// event into a durable ClickEvent on the matching record. Geo enrichment
// happens here, off the redirect path, so a slow lookup delays only the
// click record. resolver may be nil to disable enrichment.
func NewClickHandler(store Store, resolver GeoResolver, logger *zap.Logger) messaging.Handler[telemetry.LinkClickedEvent] {
	return func(ctx context.Context, event *telemetry.LinkClickedEvent) error {
		click := ClickEvent{
			ID:        event.ClickID,
			Timestamp: event.ClickedAt,
			Referrer:  event.Referrer,
			UserAgent: event.UserAgent,
		}

		if resolver != nil && event.ClientIP != "" {
			location, err := resolver.Resolve(ctx, event.ClientIP)
			if err != nil {
				logger.Debug("geo lookup failed",
					zap.String("code", event.Code),
					zap.Error(err),
				)
			} else {
				click.Geo = location
			}
		}

		return store.RecordClick(ctx, event.Code, click)
	}
}
