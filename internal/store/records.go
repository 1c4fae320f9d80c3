package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/linkbatch/linkbatch/internal/shortener"
	"go.uber.org/zap"
)

// RecordStore is the sole owner of the durable URL collection. It keeps the
// full collection resident with a shortcode index for O(1) lookups, and
// rewrites the whole serialized collection through the blob substrate on
// every mutation. Callers are serialized by a mutex; cross-process
// load-modify-save races are accepted, not guarded.
type RecordStore struct {
	mu     sync.RWMutex
	blob   Blob
	clock  shortener.Clock
	logger *zap.Logger

	records []shortener.URLRecord // insertion order
	byCode  map[string]int        // shortcode -> index into records
}

// NewRecordStore creates a record store and loads the last snapshot. A load
// failure degrades to an empty collection with a warning rather than
// failing the caller.
func NewRecordStore(ctx context.Context, blob Blob, clock shortener.Clock, logger *zap.Logger) *RecordStore {
	s := &RecordStore{
		blob:   blob,
		clock:  clock,
		logger: logger,
		byCode: make(map[string]int),
	}

	s.load(ctx)

	return s
}

func (s *RecordStore) load(ctx context.Context) {
	data, err := s.blob.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSnapshot) {
			s.logger.Warn("failed to load link snapshot, starting empty", zap.Error(err))
		}

		return
	}

	var records []shortener.URLRecord
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("failed to decode link snapshot, starting empty", zap.Error(err))

		return
	}

	s.records = records
	for i, record := range records {
		s.byCode[record.Shortcode] = i
	}

	s.logger.Info("loaded link snapshot", zap.Int("records", len(records)))
}

// persist rewrites the whole collection. Callers hold the write lock.
func (s *RecordStore) persist(ctx context.Context) error {
	data, err := json.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	if err := s.blob.Save(ctx, data); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	return nil
}

// IsInUse reports whether any stored record, expired or not, has the exact
// shortcode.
func (s *RecordStore) IsInUse(_ context.Context, code string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byCode[code]

	return ok
}

// FindByCode returns a copy of the record for a live shortcode. Expired
// records remain stored but are invisible here; the caller cannot tell an
// expired code from one that never existed.
func (s *RecordStore) FindByCode(_ context.Context, code string) (*shortener.URLRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byCode[code]
	if !ok {
		return nil, shortener.ErrNotFound
	}

	record := &s.records[idx]
	if record.IsExpired(s.clock.Now()) {
		return nil, shortener.ErrNotFound
	}

	return record.Clone(), nil
}

// AddRecords appends a batch to the collection and persists once. Shortcode
// uniqueness is enforced here at write time; a duplicate rejects the whole
// batch before anything is stored.
func (s *RecordStore) AddRecords(ctx context.Context, records []shortener.URLRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	incoming := make(map[string]bool, len(records))

	for _, record := range records {
		if _, taken := s.byCode[record.Shortcode]; taken || incoming[record.Shortcode] {
			return fmt.Errorf("%w: %s", shortener.ErrCodeInUse, record.Shortcode)
		}

		incoming[record.Shortcode] = true
	}

	prev := len(s.records)
	for _, record := range records {
		s.byCode[record.Shortcode] = len(s.records)
		s.records = append(s.records, *record.Clone())
	}

	if err := s.persist(ctx); err != nil {
		// Roll back so memory matches the durable state.
		for _, record := range records {
			delete(s.byCode, record.Shortcode)
		}

		s.records = s.records[:prev]

		return err
	}

	return nil
}

// RecordClick appends a click to the matching record and persists the
// collection. An unknown code is a warned no-op. Deliberately no expiry
// check here: a click racing the expiry boundary still counts, so a click
// against an already-expired record is accepted.
func (s *RecordStore) RecordClick(ctx context.Context, code string, click shortener.ClickEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byCode[code]
	if !ok {
		s.logger.Warn("click recorded for unknown shortcode", zap.String("code", code))

		return nil
	}

	record := &s.records[idx]
	record.Clicks = append(record.Clicks, click)

	if err := s.persist(ctx); err != nil {
		record.Clicks = record.Clicks[:len(record.Clicks)-1]

		return err
	}

	return nil
}

// All returns a deep copy of the full collection in insertion order.
func (s *RecordStore) All(_ context.Context) []shortener.URLRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]shortener.URLRecord, 0, len(s.records))
	for i := range s.records {
		out = append(out, *s.records[i].Clone())
	}

	return out
}

// Paginate returns one window of records sorted by creation time
// descending. Pages are 1-based.
func (s *RecordStore) Paginate(_ context.Context, page, pageSize int) (*shortener.Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}

	if pageSize < 1 {
		return nil, fmt.Errorf("page size must be >= 1, got %d", pageSize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := make([]*shortener.URLRecord, len(s.records))
	for i := range s.records {
		sorted[i] = &s.records[i]
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	total := len(sorted)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}

	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]shortener.URLRecord, 0, end-start)
	for _, record := range sorted[start:end] {
		items = append(items, *record.Clone())
	}

	return &shortener.Page{
		Items:   items,
		Total:   total,
		HasMore: end < total,
	}, nil
}

// Analytics computes aggregate counts fresh from the full collection.
func (s *RecordStore) Analytics(_ context.Context) shortener.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.clock.Now()

	summary := shortener.Summary{TotalURLs: len(s.records)}

	for i := range s.records {
		summary.TotalClicks += len(s.records[i].Clicks)

		if s.records[i].IsExpired(now) {
			summary.ExpiredURLs++
		} else {
			summary.ActiveURLs++
		}
	}

	return summary
}

// Clear wipes the whole collection and persists the empty state. Reset and
// test hook, not reachable from the API.
func (s *RecordStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevRecords, prevIndex := s.records, s.byCode
	s.records = nil
	s.byCode = make(map[string]int)

	if err := s.persist(ctx); err != nil {
		s.records, s.byCode = prevRecords, prevIndex

		return err
	}

	return nil
}
