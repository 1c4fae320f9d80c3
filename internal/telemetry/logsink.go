package telemetry

import (
	"context"

	"github.com/linkbatch/linkbatch/internal/messaging"
	"go.uber.org/zap"
)

// Log sink handlers for the standalone consumer binary: each one writes an
// event to the structured log and acks. They never fail.

// NewLinkCreatedLogger logs link creation events.
func NewLinkCreatedLogger(logger *zap.Logger) messaging.Handler[LinkCreatedEvent] {
	return func(_ context.Context, event *LinkCreatedEvent) error {
		logger.Info("link created",
			zap.String("code", event.Code),
			zap.String("originalUrl", event.OriginalURL),
			zap.Bool("custom", event.Custom),
			zap.Time("expiresAt", event.ExpiresAt),
			zap.String("clientIp", event.ClientIP),
		)

		return nil
	}
}

// NewLinkClickedLogger logs click events.
func NewLinkClickedLogger(logger *zap.Logger) messaging.Handler[LinkClickedEvent] {
	return func(_ context.Context, event *LinkClickedEvent) error {
		logger.Info("link clicked",
			zap.String("code", event.Code),
			zap.String("clickId", event.ClickID),
			zap.Time("clickedAt", event.ClickedAt),
			zap.String("referrer", event.Referrer),
		)

		return nil
	}
}

// NewOperationFailedLogger logs failed operations at warning level.
func NewOperationFailedLogger(logger *zap.Logger) messaging.Handler[OperationFailedEvent] {
	return func(_ context.Context, event *OperationFailedEvent) error {
		logger.Warn("operation failed",
			zap.String("operation", event.Operation),
			zap.String("code", event.Code),
			zap.String("reason", event.Reason),
			zap.String("clientIp", event.ClientIP),
		)

		return nil
	}
}

// NewItemRejectedLogger logs batch rejection events at warning level.
func NewItemRejectedLogger(logger *zap.Logger) messaging.Handler[ItemRejectedEvent] {
	return func(_ context.Context, event *ItemRejectedEvent) error {
		logger.Warn("batch item rejected",
			zap.Int("index", event.Index),
			zap.String("reason", event.Reason),
			zap.String("clientIp", event.ClientIP),
		)

		return nil
	}
}
