package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"

	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/metrics"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/notifications"
	"github.com/autocrm/autocrm/pkg/otelhelper"
	"github.com/autocrm/autocrm/pkg/persistence"
	"github.com/autocrm/autocrm/pkg/registry"
	"github.com/autocrm/autocrm/pkg/validation"
	"github.com/autocrm/autocrm/pkg/workflow"
)

const httpClientTimeout = 30 * time.Second

// Config holds the infrastructure settings of a process.
type Config struct {
	ServiceName   string
	DatabaseURL   string
	EventBus      string
	KafkaBrokers  string
	RedisURL      string
	WebhookSecret string
	OtelEnabled   bool
}

// Runtime is the wired object graph shared by the API and the worker.
type Runtime struct {
	Logger      *slog.Logger
	Clock       clockwork.Clock
	Persistence persistence.Persistence
	EventBus    eventbus.EventBus
	Registry    *registry.Registry
	Validator   *validation.Validator
	Recorder    *metrics.Recorder
	Redis       *redis.Client // nil without a Redis URL
	Engine      *workflow.Engine
	Dispatcher  *workflow.Dispatcher

	closers []func(ctx context.Context) error
}

// NewRuntime connects every backend named in cfg and wires the engine.
// On error the backends opened so far are closed.
func NewRuntime(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{
		Logger:   logger,
		Clock:    clockwork.NewRealClock(),
		Recorder: metrics.NewRecorder(nil),
	}

	if err := rt.init(ctx, cfg); err != nil {
		if closeErr := rt.Close(ctx); closeErr != nil {
			logger.ErrorContext(ctx, "Failed to release resources", "error", closeErr)
		}

		return nil, err
	}

	return rt, nil
}

func (rt *Runtime) init(ctx context.Context, cfg Config) error {
	client := &http.Client{Timeout: httpClientTimeout}

	var err error

	rt.Persistence, err = NewPersistence(ctx, rt.Logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	rt.closers = append(rt.closers, rt.Persistence.Close)

	rt.EventBus, err = NewEventBus(cfg.EventBus, cfg.KafkaBrokers, rt.Logger)
	if err != nil {
		return err
	}

	rt.closers = append(rt.closers, func(context.Context) error { return rt.EventBus.Close() })

	if cfg.RedisURL != "" {
		rt.Redis, err = NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}

		rt.closers = append(rt.closers, func(context.Context) error { return rt.Redis.Close() })
	}

	rt.Registry, err = NewRegistry(rt.Logger, client, rt.Clock)
	if err != nil {
		return err
	}

	rt.Validator = validation.New(validation.WithActions(rt.Registry))

	tracer, err := rt.tracer(ctx, cfg)
	if err != nil {
		return err
	}

	tickets := rt.Persistence.TicketRepository()

	opts := []workflow.Option{
		workflow.WithClock(rt.Clock),
		workflow.WithTicketMutator(tickets),
		workflow.WithActionRunner(rt.Registry),
		workflow.WithValidator(rt.Validator),
		workflow.WithRecorder(rt.Recorder),
		workflow.WithTracer(tracer),
		workflow.WithNotifier(models.NotificationWebhook, notifications.NewWebhook(client, cfg.WebhookSecret, rt.Logger,
			notifications.WithTicketReader(tickets),
			notifications.WithWebhookClock(rt.Clock),
		)),
		workflow.WithNotifier(models.NotificationEmail, notifications.NewEmail(rt.EventBus, rt.Logger)),
	}

	if rt.Redis != nil {
		opts = append(opts, workflow.WithNotifier(models.NotificationInApp, notifications.NewInApp(rt.Redis, rt.Logger)))
	}

	rt.Engine = workflow.NewEngine(rt.Logger, opts...)
	rt.Dispatcher = workflow.NewDispatcher(
		rt.Logger,
		rt.Engine,
		rt.Persistence.WorkflowRepository(),
		rt.Persistence.ExecutionRepository(),
		rt.EventBus,
	)

	return nil
}

// nolint:ireturn // the tracer is either the OTLP tracer or a noop
func (rt *Runtime) tracer(ctx context.Context, cfg Config) (trace.Tracer, error) {
	if !cfg.OtelEnabled {
		return otelhelper.NoopTracer(), nil
	}

	tracer, shutdown, err := otelhelper.NewTracer(ctx, cfg.ServiceName)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}

	rt.closers = append(rt.closers, shutdown)

	return tracer, nil
}

// Close releases every backend in reverse order of acquisition.
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error

	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	rt.closers = nil

	return errors.Join(errs...)
}

// NewRedisClient parses url and checks the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
