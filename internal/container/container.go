package container

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/linkbatch/linkbatch/internal/geo"
	"github.com/linkbatch/linkbatch/internal/handlers"
	"github.com/linkbatch/linkbatch/internal/messaging"
	"github.com/linkbatch/linkbatch/internal/middleware"
	"github.com/linkbatch/linkbatch/internal/shortener"
	"github.com/linkbatch/linkbatch/internal/store"
	"github.com/linkbatch/linkbatch/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// Options is the application configuration, populated by humacli from
// flags and environment variables.
type Options struct {
	Port        int    `default:"8888"                  help:"Port to listen on"                                            short:"p"`
	BaseURL     string `default:""                      help:"Public base URL for short links (default http://localhost:<port>)"`
	CodeLength  int    `default:"6"                     help:"Length of generated shortcodes"                               short:"c"`
	RedisAddr   string `default:"localhost:6379"        help:"Redis server address"                                         short:"r"`
	PostgresDSN string `default:""                      help:"Postgres DSN for snapshot storage; snapshots go to redis when empty"`
	GeoEndpoint string `default:"http://ip-api.com/json" help:"ip-api compatible geolocation endpoint; empty disables enrichment"`
	LogFormat   string `default:"console"               enum:"console,json"                                                 help:"Log output format"`
}

func (o *Options) baseURL() string {
	if o.BaseURL != "" {
		return o.BaseURL
	}

	return fmt.Sprintf("http://localhost:%d", o.Port)
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		opts := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{Addr: opts.RedisAddr}), nil
	})
}

// StorePackage provides the clock, the snapshot blob (postgres when a DSN
// is configured, redis otherwise), and the record store.
func StorePackage(injector *do.Injector) {
	do.ProvideValue(injector, shortener.Clock(shortener.RealClock{}))

	do.Provide(injector, func(i *do.Injector) (store.Blob, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.PostgresDSN == "" {
			return store.NewRedisBlob(do.MustInvoke[*redis.Client](i), ""), nil
		}

		pool, err := pgxpool.New(context.Background(), opts.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}

		blob := store.NewPostgresBlob(pool)
		if err := blob.CreateSchema(context.Background()); err != nil {
			return nil, fmt.Errorf("creating snapshot schema: %w", err)
		}

		return blob, nil
	})

	do.Provide(injector, func(i *do.Injector) (*store.RecordStore, error) {
		return store.NewRecordStore(
			context.Background(),
			do.MustInvoke[store.Blob](i),
			do.MustInvoke[shortener.Clock](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// PublisherGroupPackage provides the telemetry publisher over redis streams.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: do.MustInvoke[*redis.Client](i),
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		return messaging.NewPublisherGroup(publisher), nil
	})
}

// ServicePackage provides the shortening service with its typed publishers.
func ServicePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)

		generate, err := shortener.NewCodeGenerator(opts.CodeLength)
		if err != nil {
			return nil, err
		}

		publisher := do.MustInvoke[*messaging.PublisherGroup](i).Publisher()

		return shortener.NewService(
			do.MustInvoke[*store.RecordStore](i),
			generate,
			do.MustInvoke[shortener.Clock](i),
			messaging.NewPublishFunc[telemetry.LinkCreatedEvent](publisher, telemetry.TopicLinkCreated),
			messaging.NewPublishFunc[telemetry.LinkClickedEvent](publisher, telemetry.TopicLinkClicked),
			messaging.NewPublishFunc[telemetry.ItemRejectedEvent](publisher, telemetry.TopicItemRejected),
			messaging.NewPublishFunc[telemetry.OperationFailedEvent](publisher, telemetry.TopicOperationFailed),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// ClickConsumerPackage provides the in-process consumer group that turns
// published click events into durable click records, with geo enrichment.
func ClickConsumerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*redis.Client](i),
			ConsumerGroup: "linkbatch-clicks",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		opts := do.MustInvoke[*Options](i)

		var resolver shortener.GeoResolver
		if opts.GeoEndpoint != "" {
			resolver = geo.NewHTTPResolver(opts.GeoEndpoint)
		}

		handler := shortener.NewClickHandler(do.MustInvoke[*store.RecordStore](i), resolver, logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, telemetry.TopicLinkClicked, handler, logger))

		return group, nil
	})
}

// LogConsumerPackage provides the consumer group for the standalone log
// sink binary: every telemetry topic lands in the structured log.
func LogConsumerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*redis.Client](i),
			ConsumerGroup: "linkbatch-logsink",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, err
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, telemetry.TopicLinkCreated, telemetry.NewLinkCreatedLogger(logger), logger))
		group.Add(messaging.NewConsumer(subscriber, telemetry.TopicLinkClicked, telemetry.NewLinkClickedLogger(logger), logger))
		group.Add(messaging.NewConsumer(subscriber, telemetry.TopicItemRejected, telemetry.NewItemRejectedLogger(logger), logger))
		group.Add(messaging.NewConsumer(subscriber, telemetry.TopicOperationFailed, telemetry.NewOperationFailedLogger(logger), logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with all routes
// registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		api := humachi.New(do.MustInvoke[*chi.Mux](i), huma.DefaultConfig("LinkBatch", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(api))

		links := handlers.NewLinkHandler(
			do.MustInvoke[*shortener.Service](i),
			opts.baseURL(),
			do.MustInvoke[shortener.Clock](i),
			logger,
		)
		health := handlers.NewHealthHandler().
			Dependency("redis", handlers.RedisPing(do.MustInvoke[*redis.Client](i)))

		handlers.RegisterRoutes(api, links, health)

		return api, nil
	})
}
