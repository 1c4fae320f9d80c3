package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linkbatch/linkbatch/internal/container"
	"github.com/linkbatch/linkbatch/internal/messaging"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// The consumer binary is the remote end of the telemetry pipeline: it
// subscribes to every telemetry topic and writes the events to the
// structured log.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New()
	do.ProvideValue(injector, &container.Options{
		RedisAddr: cmp.Or(os.Getenv("REDIS_ADDR"), "localhost:6379"),
		LogFormat: cmp.Or(os.Getenv("LOG_FORMAT"), "console"),
	})
	container.LoggerPackage(injector)
	container.RedisPackage(injector)
	container.LogConsumerPackage(injector)

	logger := do.MustInvoke[*zap.Logger](injector)
	group := do.MustInvoke[*messaging.ConsumerGroup](injector)

	if err := group.Start(ctx); err != nil {
		return fmt.Errorf("starting consumer group: %w", err)
	}

	logger.Info("telemetry log sink running")
	<-ctx.Done()

	logger.Info("shutting down")

	if err := injector.Shutdown(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")

	return nil
}
