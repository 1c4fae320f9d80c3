package shortener_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/linkbatch/linkbatch/internal/messaging"
	"github.com/linkbatch/linkbatch/internal/shortener"
	"github.com/linkbatch/linkbatch/internal/store"
	"github.com/linkbatch/linkbatch/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingBlob rejects every save to exercise the persistence failure path.
type failingBlob struct{}

func (failingBlob) Load(context.Context) ([]byte, error) { return nil, store.ErrNoSnapshot }
func (failingBlob) Save(context.Context, []byte) error   { return errors.New("disk full") }

// racyStore wraps a RecordStore whose pre-check misses one code a single
// time, so the duplicate survives until the write-time uniqueness check.
type racyStore struct {
	*store.RecordStore
	missOnce string
	missed   bool
}

func (r *racyStore) IsInUse(ctx context.Context, code string) bool {
	if !r.missed && code == r.missOnce {
		r.missed = true

		return false
	}

	return r.RecordStore.IsInUse(ctx, code)
}

// capturePublish collects published events.
func capturePublish[T any](events *[]*T) messaging.Publish[T] {
	return func(event *T) error {
		*events = append(*events, event)

		return nil
	}
}

type serviceFixture struct {
	service *shortener.Service
	store   *store.RecordStore
	clock   *shortener.MockClock
	clicked []*telemetry.LinkClickedEvent
	created []*telemetry.LinkCreatedEvent
	reject  []*telemetry.ItemRejectedEvent
	failed  []*telemetry.OperationFailedEvent
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	return newFixtureWithBlob(t, store.NewMemoryBlob())
}

func newFixtureWithBlob(t *testing.T, blob store.Blob) *serviceFixture {
	t.Helper()

	f := &serviceFixture{
		clock: shortener.NewMockClock(time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)),
	}

	f.store = store.NewRecordStore(context.Background(), blob, f.clock, zap.NewNop())

	generate, err := shortener.NewCodeGenerator(shortener.DefaultCodeLength)
	require.NoError(t, err)

	f.service = shortener.NewService(
		f.store,
		generate,
		f.clock,
		capturePublish(&f.created),
		capturePublish(&f.clicked),
		capturePublish(&f.reject),
		capturePublish(&f.failed),
		zap.NewNop(),
	)

	return f
}

func TestService_CreateLinks(t *testing.T) {
	t.Run("creates a link with a generated code", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/very/long/path"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Empty(t, result.Errors)

		record := result.Created[0]
		assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9]{6}$`), record.Shortcode)
		assert.Equal(t, "https://example.com/very/long/path", record.OriginalURL)
		assert.False(t, record.IsCustomShortcode)
		assert.NotEmpty(t, record.ID)
		assert.True(t, f.store.IsInUse(context.Background(), record.Shortcode))
	})

	t.Run("defaults validity to 30 minutes", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		record := result.Created[0]
		assert.Equal(t, 30, record.ValidityMinutes)
		assert.Equal(t, record.CreatedAt.Add(30*time.Minute), record.ExpiresAt)
	})

	t.Run("preserves a sanitized custom shortcode", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com", CustomShortcode: " promo "},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "promo", result.Created[0].Shortcode)
		assert.True(t, result.Created[0].IsCustomShortcode)
	})

	t.Run("success plus errors always covers the whole batch", func(t *testing.T) {
		f := newFixture(t)

		requests := []shortener.CreateRequest{
			{OriginalURL: "https://example.com/a"},
			{OriginalURL: "bad"},
			{OriginalURL: "https://example.com/b", CustomShortcode: "x"},
			{OriginalURL: "https://example.com/c"},
		}

		result, err := f.service.CreateLinks(context.Background(), requests, shortener.RequestMeta{})

		require.NoError(t, err)
		assert.Equal(t, len(requests), len(result.Created)+len(result.Errors))
	})

	t.Run("rejects a custom shortcode already in use", func(t *testing.T) {
		f := newFixture(t)

		first, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/a", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)
		require.Len(t, first.Created, 1)

		second, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/b", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)

		assert.Empty(t, second.Created)
		require.Len(t, second.Errors, 1)
		assert.Equal(t, 0, second.Errors[0].Index)
		assert.Contains(t, second.Errors[0].Message, "already in use")
	})

	t.Run("one of two duplicate custom codes in a batch succeeds", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/a", CustomShortcode: "promo"},
			{OriginalURL: "https://example.com/b", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "promo", result.Created[0].Shortcode)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 1, result.Errors[0].Index)
	})

	t.Run("six requests produce a single error at index 0 and no records", func(t *testing.T) {
		f := newFixture(t)

		requests := make([]shortener.CreateRequest, 6)
		for i := range requests {
			requests[i] = shortener.CreateRequest{OriginalURL: "https://example.com"}
		}

		result, err := f.service.CreateLinks(context.Background(), requests, shortener.RequestMeta{})

		require.NoError(t, err)
		assert.Empty(t, result.Created)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 0, result.Errors[0].Index)
		assert.Contains(t, result.Errors[0].Message, "maximum 5 URLs")
	})

	t.Run("reports generation exhaustion as a per-item error", func(t *testing.T) {
		f := newFixture(t)

		// Occupy the only code a constant generator can produce.
		seed, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/seed", CustomShortcode: "AAAAAA"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)
		require.Len(t, seed.Created, 1)

		stuck := shortener.NewService(
			f.store,
			func() string { return "AAAAAA" },
			f.clock,
			messaging.NopPublish[telemetry.LinkCreatedEvent](),
			messaging.NopPublish[telemetry.LinkClickedEvent](),
			messaging.NopPublish[telemetry.ItemRejectedEvent](),
			messaging.NopPublish[telemetry.OperationFailedEvent](),
			zap.NewNop(),
		)

		result, err := stuck.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/other"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		assert.Empty(t, result.Created)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0].Message, "unique shortcode")
	})

	t.Run("generated code cannot collide with a custom code from the same batch", func(t *testing.T) {
		f := newFixture(t)

		constant := shortener.NewService(
			f.store,
			func() string { return "BBBBBB" },
			f.clock,
			messaging.NopPublish[telemetry.LinkCreatedEvent](),
			messaging.NopPublish[telemetry.LinkClickedEvent](),
			messaging.NopPublish[telemetry.ItemRejectedEvent](),
			messaging.NopPublish[telemetry.OperationFailedEvent](),
			zap.NewNop(),
		)

		result, err := constant.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/a", CustomShortcode: "BBBBBB"},
			{OriginalURL: "https://example.com/b"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 1, result.Errors[0].Index)
	})

	t.Run("persistence failure aborts the whole operation", func(t *testing.T) {
		f := newFixtureWithBlob(t, failingBlob{})

		result, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com"},
		}, shortener.RequestMeta{ClientIP: "203.0.113.9"})

		require.Error(t, err)
		assert.Nil(t, result)

		require.Len(t, f.failed, 1)
		assert.Equal(t, "create", f.failed[0].Operation)
		assert.Contains(t, f.failed[0].Reason, "disk full")
		assert.Equal(t, "203.0.113.9", f.failed[0].ClientIP)
	})

	t.Run("losing a write-time code race yields a per-item conflict", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/first", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)

		// The pre-check misses the stored code once, like a batch racing a
		// concurrent writer; the store still rejects the duplicate at write
		// time.
		racy := shortener.NewService(
			&racyStore{RecordStore: f.store, missOnce: "promo"},
			func() string { return "CCCCCC" },
			f.clock,
			messaging.NopPublish[telemetry.LinkCreatedEvent](),
			messaging.NopPublish[telemetry.LinkClickedEvent](),
			messaging.NopPublish[telemetry.ItemRejectedEvent](),
			messaging.NopPublish[telemetry.OperationFailedEvent](),
			zap.NewNop(),
		)

		result, err := racy.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/late", CustomShortcode: "promo"},
			{OriginalURL: "https://example.com/fine"},
		}, shortener.RequestMeta{})

		require.NoError(t, err)
		require.Len(t, result.Created, 1)
		assert.Equal(t, "CCCCCC", result.Created[0].Shortcode)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, 0, result.Errors[0].Index)
		assert.Contains(t, result.Errors[0].Message, "already in use")
	})

	t.Run("publishes created and rejection telemetry", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/a"},
			{OriginalURL: "bad"},
		}, shortener.RequestMeta{ClientIP: "203.0.113.9"})

		require.NoError(t, err)
		require.Len(t, f.created, 1)
		assert.Equal(t, "203.0.113.9", f.created[0].ClientIP)
		require.Len(t, f.reject, 1)
		assert.Equal(t, 1, f.reject[0].Index)
	})
}

func TestService_Redirect(t *testing.T) {
	t.Run("returns the original URL and publishes a click event", func(t *testing.T) {
		f := newFixture(t)

		created, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com/target", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)
		require.Len(t, created.Created, 1)

		target, err := f.service.Redirect(context.Background(), "promo", shortener.RequestMeta{
			UserAgent: "TestAgent/1.0",
			Referrer:  "https://referrer.example",
		})

		require.NoError(t, err)
		assert.Equal(t, "https://example.com/target", target)

		require.Len(t, f.clicked, 1)
		event := f.clicked[0]
		assert.Equal(t, "promo", event.Code)
		assert.Equal(t, "https://referrer.example", event.Referrer)
		assert.Equal(t, "TestAgent/1.0", event.UserAgent)
		assert.NotEmpty(t, event.ClickID)
	})

	t.Run("referrer defaults to direct", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com", CustomShortcode: "promo"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)

		_, err = f.service.Redirect(context.Background(), "promo", shortener.RequestMeta{})
		require.NoError(t, err)

		require.Len(t, f.clicked, 1)
		assert.Equal(t, "direct", f.clicked[0].Referrer)
	})

	t.Run("unknown code fails with not found and publishes a failure event", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Redirect(context.Background(), "nosuch", shortener.RequestMeta{ClientIP: "203.0.113.9"})

		assert.ErrorIs(t, err, shortener.ErrNotFound)
		assert.Empty(t, f.clicked)

		require.Len(t, f.failed, 1)
		assert.Equal(t, "redirect", f.failed[0].Operation)
		assert.Equal(t, "nosuch", f.failed[0].Code)
		assert.Equal(t, shortener.ErrNotFound.Error(), f.failed[0].Reason)
		assert.Equal(t, "203.0.113.9", f.failed[0].ClientIP)
	})

	t.Run("expired code fails identically to an unknown one", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateLinks(context.Background(), []shortener.CreateRequest{
			{OriginalURL: "https://example.com", ValidityMinutes: intPtr(1), CustomShortcode: "brief"},
		}, shortener.RequestMeta{})
		require.NoError(t, err)

		f.clock.Advance(61 * time.Second)

		_, expiredErr := f.service.Redirect(context.Background(), "brief", shortener.RequestMeta{})
		_, unknownErr := f.service.Redirect(context.Background(), "nosuch", shortener.RequestMeta{})

		assert.ErrorIs(t, expiredErr, shortener.ErrNotFound)
		assert.Equal(t, unknownErr, expiredErr)
	})
}
