package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/log"
)

func main() {
	flags := []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Port to run the API server on",
			Value:   3000,
			Sources: cli.EnvVars("PORT"),
		},
		&cli.BoolFlag{
			Name:    "async-events",
			Usage:   "Queue ticket events on the event bus for autocrm-worker instead of dispatching them in the request",
			Sources: cli.EnvVars("ASYNC_EVENTS"),
		},
	}

	command := &cli.Command{
		Name:                  "autocrm-api",
		EnableShellCompletion: true,
		Usage:                 "Serve the workflow management and ticket event API",
		Flags:                 append(flags, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("autocrm-api")

			logger.InfoContext(ctx, "Initializing AutoCRM API")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			runtime, err := cmd.NewRuntime(ctx, cmd.ConfigFromCommand(command, "autocrm-api"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := runtime.Close(context.Background()); err != nil {
					logger.Error("Failed to close resources", "error", err)
				}
			}()

			api := NewAPI(logger, runtime, command.Bool("async-events"))

			port := int(command.Int("port"))
			logger.InfoContext(ctx, "Listening", "port", port)

			return api.Start(ctx, port)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		slog.Error("autocrm-api stopped", "error", err)
		os.Exit(1)
	}
}
