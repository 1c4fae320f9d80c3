package telemetry

import "time"

// Topics for structured log events. The service publishes to these; the
// in-process click consumer and the standalone log consumer subscribe.
const (
	TopicLinkCreated     = "telemetry.link.created"
	TopicLinkClicked     = "telemetry.link.clicked"
	TopicItemRejected    = "telemetry.item.rejected"
	TopicOperationFailed = "telemetry.operation.failed"
)

// LinkCreatedEvent is emitted for every successfully created link.
type LinkCreatedEvent struct {
	Code        string    `json:"code"`
	OriginalURL string    `json:"originalUrl"`
	Custom      bool      `json:"custom"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ClientIP    string    `json:"clientIp,omitempty"`
	UserAgent   string    `json:"userAgent,omitempty"`
}

// LinkClickedEvent is emitted on every successful redirect. It carries the
// raw request metadata; geo enrichment and the durable click append happen
// in the consumer.
type LinkClickedEvent struct {
	ClickID   string    `json:"clickId"`
	Code      string    `json:"code"`
	ClickedAt time.Time `json:"clickedAt"`
	Referrer  string    `json:"referrer"`
	UserAgent string    `json:"userAgent,omitempty"`
	ClientIP  string    `json:"clientIp,omitempty"`
}

// ItemRejectedEvent is emitted for every rejected entry of a creation
// batch, whether the rejection was a validation error, a shortcode
// conflict, or generation exhaustion.
type ItemRejectedEvent struct {
	Index      int       `json:"index"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
	ClientIP   string    `json:"clientIp,omitempty"`
}

// OperationFailedEvent is emitted when a whole operation fails: a redirect
// that did not resolve, or a persistence write that aborted a batch.
type OperationFailedEvent struct {
	Operation  string    `json:"operation"`
	Code       string    `json:"code,omitempty"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurredAt"`
	ClientIP   string    `json:"clientIp,omitempty"`
}
