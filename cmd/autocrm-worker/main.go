// Package main provides the AutoCRM worker executing event driven and scheduled workflows.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	cli "github.com/urfave/cli/v3"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/log"
	"github.com/autocrm/autocrm/pkg/triggers/queue"
)

func main() {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "worker-id",
			Aliases: []string{"id"},
			Usage:   "Custom worker ID (auto-generated if not provided)",
			Value:   "",
			Sources: cli.EnvVars("WORKER_ID"),
		},
		&cli.StringFlag{
			Name:    "queue",
			Usage:   "Redis list consumed for ticket events",
			Value:   queue.DefaultQueue,
			Sources: cli.EnvVars("TICKET_EVENT_QUEUE"),
		},
		&cli.DurationFlag{
			Name:    "schedule-sync-interval",
			Usage:   "How often scheduled workflows are reloaded from persistence",
			Value:   time.Minute,
			Sources: cli.EnvVars("SCHEDULE_SYNC_INTERVAL"),
		},
	}

	command := &cli.Command{
		Name:                  "autocrm-worker",
		EnableShellCompletion: true,
		Usage:                 "Start workers to execute workflows",
		Flags:                 append(flags, cmd.CommonFlags()...),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			workerID := command.String("worker-id")
			if workerID == "" {
				workerID = "worker-" + uuid.New().String()[:8]
			}

			logger := log.WithModule("autocrm-worker").With("workerId", workerID)

			logger.InfoContext(ctx, "Initializing AutoCRM Worker")

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			runtime, err := cmd.NewRuntime(ctx, cmd.ConfigFromCommand(command, "autocrm-worker"), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := runtime.Close(context.Background()); err != nil {
					logger.Error("Failed to close resources", "error", err)
				}
			}()

			worker, err := NewWorkerManager(workerID, runtime, logger, command.String("queue"), command.Duration("schedule-sync-interval"))
			if err != nil {
				return err
			}

			return worker.Start(ctx)
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		slog.Error("autocrm-worker stopped", "error", err)
		os.Exit(1)
	}
}
