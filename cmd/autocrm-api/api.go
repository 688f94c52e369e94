// Package main provides the AutoCRM API server.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/services"
	"github.com/autocrm/autocrm/pkg/web"
)

type API struct {
	logger      *slog.Logger
	runtime     *cmd.Runtime
	asyncEvents bool
	validate    *validator.Validate
}

// NewAPI creates the API. With asyncEvents, POST /events is published to the
// event bus for the worker instead of being dispatched in the request.
func NewAPI(logger *slog.Logger, runtime *cmd.Runtime, asyncEvents bool) *API {
	return &API{
		logger:      logger,
		runtime:     runtime,
		asyncEvents: asyncEvents,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(
		a.runtime.Persistence,
		a.runtime.Validator,
		a.runtime.Dispatcher,
		a.logger,
		services.WithClock(a.runtime.Clock),
	)

	var publisher eventbus.EventPublisher
	if a.asyncEvents {
		publisher = a.runtime.EventBus
	}

	handlers := web.NewAPIHandlers(workflowService, a.validate, a.runtime.Registry, publisher, a.logger)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return a.runtime.Persistence.HealthCheck(c.Context()) == nil
		},
	}))

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("AutoCRM API")
	})

	app.Get("/metrics", adaptor.HTTPHandler(a.runtime.Recorder.Handler()))

	handlers.RegisterRoutes(app)

	return app
}

// Start serves until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	go func() {
		<-ctx.Done()

		if err := app.Shutdown(); err != nil {
			a.logger.Error("Failed to shut down API", "error", err)
		}
	}()

	return app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
}
