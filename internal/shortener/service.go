package shortener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linkbatch/linkbatch/internal/messaging"
	"github.com/linkbatch/linkbatch/internal/telemetry"
	"go.uber.org/zap"
)

// maxGenerateAttempts bounds the collision retry loop for generated codes.
const maxGenerateAttempts = 10

// Store is the persistence contract the service depends on. The record
// store owns the durable collection; every read and write goes through it.
type Store interface {
	// IsInUse reports whether any stored record, expired or not, has the
	// exact shortcode. Codes are never recycled.
	IsInUse(ctx context.Context, code string) bool

	// FindByCode returns the record for a live shortcode. Expired records
	// are invisible: the result is ErrNotFound either way.
	FindByCode(ctx context.Context, code string) (*URLRecord, error)

	// AddRecords appends a batch to the collection and persists once.
	AddRecords(ctx context.Context, records []URLRecord) error

	// RecordClick appends a click to the matching record and persists.
	RecordClick(ctx context.Context, code string, click ClickEvent) error

	// All returns the full collection in insertion order.
	All(ctx context.Context) []URLRecord

	// Paginate returns records sorted by creation time descending.
	Paginate(ctx context.Context, page, pageSize int) (*Page, error)

	// Analytics computes aggregate counts over the full collection.
	Analytics(ctx context.Context) Summary
}

// BatchResult is the outcome of a creation batch. Indices in Errors refer
// to positions in the original input sequence.
type BatchResult struct {
	Created []URLRecord
	Errors  []ItemError
}

// Service orchestrates validation, code allocation, and persistence for
// creation batches and redirects.
type Service struct {
	store          Store
	generate       CodeGenerator
	clock          Clock
	logger         *zap.Logger
	publishCreated messaging.Publish[telemetry.LinkCreatedEvent]
	publishClicked messaging.Publish[telemetry.LinkClickedEvent]
	publishReject  messaging.Publish[telemetry.ItemRejectedEvent]
	publishFailure messaging.Publish[telemetry.OperationFailedEvent]
}

// NewService creates a shortening service.
func NewService(
	store Store,
	generate CodeGenerator,
	clock Clock,
	publishCreated messaging.Publish[telemetry.LinkCreatedEvent],
	publishClicked messaging.Publish[telemetry.LinkClickedEvent],
	publishReject messaging.Publish[telemetry.ItemRejectedEvent],
	publishFailure messaging.Publish[telemetry.OperationFailedEvent],
	logger *zap.Logger,
) *Service {
	return &Service{
		store:          store,
		generate:       generate,
		clock:          clock,
		logger:         logger,
		publishCreated: publishCreated,
		publishClicked: publishClicked,
		publishReject:  publishReject,
		publishFailure: publishFailure,
	}
}

// CreateLinks fulfils a creation batch. Every request is attempted and
// reported independently; the only fatal outcome is a persistence failure,
// which aborts the whole operation. Constructed records are persisted in a
// single store call.
func (s *Service) CreateLinks(ctx context.Context, requests []CreateRequest, meta RequestMeta) (*BatchResult, error) {
	valid, itemErrs := ValidateBatch(requests)

	// Codes allocated earlier in this batch are not yet in the store, so
	// track them separately for uniqueness checks.
	allocated := make(map[string]bool)

	var built []builtRecord

	for _, ir := range valid {
		code, resolveErr := s.resolveShortcode(ctx, ir.Request, allocated)
		if resolveErr != nil {
			itemErrs = append(itemErrs, ItemError{Index: ir.Index, Message: resolveErr.Error()})

			continue
		}

		allocated[code] = true
		built = append(built, builtRecord{index: ir.Index, record: s.buildRecord(ir.Request, code)})
	}

	records, conflictErrs, err := s.persistBatch(ctx, built)
	if err != nil {
		s.logger.Error("failed to persist created links", zap.Int("count", len(built)), zap.Error(err))
		s.emitFailure("create", "", err.Error(), meta)

		return nil, fmt.Errorf("persisting links: %w", err)
	}

	itemErrs = append(itemErrs, conflictErrs...)

	sort.Slice(itemErrs, func(i, j int) bool { return itemErrs[i].Index < itemErrs[j].Index })

	s.emitBatchTelemetry(records, itemErrs, meta)

	return &BatchResult{Created: records, Errors: itemErrs}, nil
}

// builtRecord keeps the original request index with its constructed record
// so a write-time conflict can be reported against the right item.
type builtRecord struct {
	index  int
	record URLRecord
}

// persistBatch writes the built records in a single store call. The store
// re-checks uniqueness at write time, so a code that passed the pre-check
// can still lose to a concurrent writer; those records are demoted to
// per-item conflicts and the remainder is written again. Any other error
// is fatal for the batch.
func (s *Service) persistBatch(ctx context.Context, built []builtRecord) ([]URLRecord, []ItemError, error) {
	if len(built) == 0 {
		return nil, nil, nil
	}

	records := make([]URLRecord, 0, len(built))
	for _, b := range built {
		records = append(records, b.record)
	}

	err := s.store.AddRecords(ctx, records)
	if err == nil {
		return records, nil, nil
	}

	if !errors.Is(err, ErrCodeInUse) {
		return nil, nil, err
	}

	var (
		remaining []builtRecord
		conflicts []ItemError
	)

	for _, b := range built {
		if s.store.IsInUse(ctx, b.record.Shortcode) {
			conflicts = append(conflicts, ItemError{Index: b.index, Message: ErrCodeInUse.Error()})

			continue
		}

		remaining = append(remaining, b)
	}

	if len(remaining) == len(built) {
		// Nothing identifiable to demote; treat as fatal.
		return nil, nil, err
	}

	rest, moreConflicts, err := s.persistBatch(ctx, remaining)
	if err != nil {
		return nil, nil, err
	}

	return rest, append(conflicts, moreConflicts...), nil
}

func (s *Service) emitFailure(operation, code, reason string, meta RequestMeta) {
	event := &telemetry.OperationFailedEvent{
		Operation:  operation,
		Code:       code,
		Reason:     reason,
		OccurredAt: s.clock.Now().UTC(),
		ClientIP:   meta.ClientIP,
	}

	if err := s.publishFailure(event); err != nil {
		s.logger.Error("failed to publish failure event",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}

// Redirect resolves a shortcode to its original URL and emits a click
// event for asynchronous recording. Missing and expired codes fail
// identically with ErrNotFound. Click recording never gates the redirect.
func (s *Service) Redirect(ctx context.Context, code string, meta RequestMeta) (string, error) {
	record, err := s.store.FindByCode(ctx, code)
	if err != nil {
		s.emitFailure("redirect", code, err.Error(), meta)

		return "", err
	}

	referrer := meta.Referrer
	if referrer == "" {
		referrer = "direct"
	}

	event := &telemetry.LinkClickedEvent{
		ClickID:   uuid.NewString(),
		Code:      record.Shortcode,
		ClickedAt: s.clock.Now().UTC(),
		Referrer:  referrer,
		UserAgent: meta.UserAgent,
		ClientIP:  meta.ClientIP,
	}

	if err := s.publishClicked(event); err != nil {
		s.logger.Error("failed to publish click event",
			zap.String("code", record.Shortcode),
			zap.Error(err),
		)
	}

	return record.OriginalURL, nil
}

// Links returns one page of records, newest first.
func (s *Service) Links(ctx context.Context, page, pageSize int) (*Page, error) {
	return s.store.Paginate(ctx, page, pageSize)
}

// AllLinks returns the full collection in insertion order.
func (s *Service) AllLinks(ctx context.Context) []URLRecord {
	return s.store.All(ctx)
}

// Stats computes the aggregate summary over the full collection.
func (s *Service) Stats(ctx context.Context) Summary {
	return s.store.Analytics(ctx)
}

func (s *Service) resolveShortcode(ctx context.Context, req CreateRequest, allocated map[string]bool) (string, error) {
	if strings.TrimSpace(req.CustomShortcode) != "" {
		code := SanitizeShortcode(req.CustomShortcode)
		if allocated[code] || s.store.IsInUse(ctx, code) {
			return "", ErrCodeInUse
		}

		return code, nil
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code := s.generate()
		if allocated[code] || s.store.IsInUse(ctx, code) {
			continue
		}

		return code, nil
	}

	s.logger.Error("shortcode generation exhausted", zap.Int("attempts", maxGenerateAttempts))

	return "", ErrGenerationExhausted
}

func (s *Service) buildRecord(req CreateRequest, code string) URLRecord {
	validity := DefaultValidityMinutes
	if req.ValidityMinutes != nil {
		validity = *req.ValidityMinutes
	}

	now := s.clock.Now().UTC()

	return URLRecord{
		ID:                uuid.NewString(),
		OriginalURL:       strings.TrimSpace(req.OriginalURL),
		Shortcode:         code,
		CreatedAt:         now,
		ExpiresAt:         now.Add(time.Duration(validity) * time.Minute),
		ValidityMinutes:   validity,
		IsCustomShortcode: strings.TrimSpace(req.CustomShortcode) != "",
		Clicks:            []ClickEvent{},
	}
}

func (s *Service) emitBatchTelemetry(records []URLRecord, itemErrs []ItemError, meta RequestMeta) {
	for _, record := range records {
		event := &telemetry.LinkCreatedEvent{
			Code:        record.Shortcode,
			OriginalURL: record.OriginalURL,
			Custom:      record.IsCustomShortcode,
			CreatedAt:   record.CreatedAt,
			ExpiresAt:   record.ExpiresAt,
			ClientIP:    meta.ClientIP,
			UserAgent:   meta.UserAgent,
		}

		if err := s.publishCreated(event); err != nil {
			s.logger.Error("failed to publish created event",
				zap.String("code", record.Shortcode),
				zap.Error(err),
			)
		}
	}

	for _, itemErr := range itemErrs {
		event := &telemetry.ItemRejectedEvent{
			Index:      itemErr.Index,
			Reason:     itemErr.Message,
			OccurredAt: s.clock.Now().UTC(),
			ClientIP:   meta.ClientIP,
		}

		if err := s.publishReject(event); err != nil {
			s.logger.Error("failed to publish rejection event", zap.Error(err))
		}
	}
}
