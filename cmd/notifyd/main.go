// Command notifyd runs the notification delivery service: an HTTP boundary
// for dispatching events and managing durably queued notification jobs,
// plus an optional periodic drain of the pending-job queue.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/notifyhub/pkg/api"
	"github.com/dmitrymomot/notifyhub/pkg/channel"
	"github.com/dmitrymomot/notifyhub/pkg/config"
	"github.com/dmitrymomot/notifyhub/pkg/dispatch"
	"github.com/dmitrymomot/notifyhub/pkg/email"
	"github.com/dmitrymomot/notifyhub/pkg/httpserver"
	"github.com/dmitrymomot/notifyhub/pkg/integration"
	"github.com/dmitrymomot/notifyhub/pkg/job"
	"github.com/dmitrymomot/notifyhub/pkg/logger"
	"github.com/dmitrymomot/notifyhub/pkg/pg"
)

type appConfig struct {
	ServerAddr string        `env:"SERVER_ADDR" envDefault:":8080"`
	LogLevel   slog.Level    `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat  logger.Format `env:"LOG_FORMAT" envDefault:"json"`

	IntegrationsPath string `env:"INTEGRATIONS_PATH" envDefault:"integrations.json"`

	MaxRetries     int           `env:"DELIVERY_MAX_RETRIES" envDefault:"3"`
	RetryDelay     time.Duration `env:"DELIVERY_RETRY_DELAY" envDefault:"5s"`
	AttemptTimeout time.Duration `env:"DELIVERY_ATTEMPT_TIMEOUT" envDefault:"10s"`

	// DrainInterval enables a periodic drain of pending jobs; zero leaves
	// draining to explicit POST /drain calls.
	DrainInterval time.Duration `env:"DRAIN_INTERVAL" envDefault:"0"`

	// MemoryStorage swaps the Postgres job store for the in-memory one.
	// Local development only: jobs do not survive a restart.
	MemoryStorage bool `env:"MEMORY_STORAGE" envDefault:"false"`
}

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("notifyd exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	log := logger.New(
		logger.WithLevel(cfg.LogLevel),
		logger.WithFormat(cfg.LogFormat),
		logger.WithService("notifyd"),
	)
	logger.SetAsDefault(log)

	registry, err := loadRegistry(cfg.IntegrationsPath, log)
	if err != nil {
		return err
	}

	storage, healthcheck, err := setupStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	sender, err := setupEmailSender(log)
	if err != nil {
		return err
	}

	httpOpts := []channel.Option{channel.WithTimeout(cfg.AttemptTimeout)}
	dispatcher, err := dispatch.New(registry,
		dispatch.WithAdapters(
			channel.NewWebhookAdapter(httpOpts...),
			channel.NewPushAdapter(httpOpts...),
			channel.NewEmailAdapter(sender),
			channel.NewMessagingAdapter(httpOpts...),
		),
		dispatch.WithRetryPolicy(dispatch.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}),
		dispatch.WithLogger(log),
	)
	if err != nil {
		return err
	}

	drainer, err := job.NewDrainer(storage, dispatcher, job.WithDrainerLogger(log))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.DrainInterval > 0 {
		go drainLoop(ctx, drainer, cfg.DrainInterval, log)
	}

	handlerOpts := []api.HandlerOption{api.WithLogger(log)}
	if healthcheck != nil {
		handlerOpts = append(handlerOpts, api.WithHealthcheck(healthcheck))
	}
	handler := api.NewHandler(dispatcher, drainer, storage, handlerOpts...)

	srv := httpserver.New(
		httpserver.WithAddr(cfg.ServerAddr),
		httpserver.WithLogger(log),
	)
	return srv.Run(ctx, handler.Router())
}

// loadRegistry reads the configured integrations file. A missing file
// yields an empty registry so the service can still serve request-supplied
// integrations.
func loadRegistry(path string, log *slog.Logger) (*integration.Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("integrations file not found, starting with empty registry",
				slog.String("path", path))
			return integration.NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to read integrations file: %w", err)
	}

	var integrations []integration.Integration
	if err := json.Unmarshal(raw, &integrations); err != nil {
		return nil, fmt.Errorf("failed to parse integrations file: %w", err)
	}
	for _, in := range integrations {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("integration %q: %w", in.Name, err)
		}
	}

	log.Info("integrations loaded",
		slog.String("path", path),
		slog.Int("count", len(integrations)))
	return integration.NewRegistry(integrations...), nil
}

func setupStorage(ctx context.Context, cfg appConfig, log *slog.Logger) (job.Storage, func(context.Context) error, error) {
	if cfg.MemoryStorage {
		log.Warn("using in-memory job storage, jobs will not survive a restart")
		return job.NewMemoryStorage(), nil, nil
	}

	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return nil, nil, err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return nil, nil, err
	}

	storage, err := job.NewPgStorage(pool)
	if err != nil {
		return nil, nil, err
	}
	return storage, pg.Healthcheck(pool), nil
}

// setupEmailSender prefers Postmark and falls back to the logging dev
// sender when no tokens are configured.
func setupEmailSender(log *slog.Logger) (email.Sender, error) {
	var cfg email.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
		log.Warn("postmark tokens not configured, using dev email sender")
		return email.NewDevSender(log), nil
	}
	return email.NewPostmarkSender(cfg)
}

func drainLoop(ctx context.Context, drainer *job.Drainer, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := drainer.Drain(ctx)
			if err != nil {
				log.Error("periodic drain failed", slog.String("error", err.Error()))
				continue
			}
			if result.Processed > 0 {
				log.Info("periodic drain completed", slog.Int("processed", result.Processed))
			}
		}
	}
}
