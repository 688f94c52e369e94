package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/autocrm/autocrm/pkg/cmd"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/triggers/queue"
	"github.com/autocrm/autocrm/pkg/triggers/schedule"
)

const shutdownTimeout = 30 * time.Second

// WorkerManager executes workflows for ticket events arriving on the event
// bus or the Redis queue, and runs scheduled workflows.
type WorkerManager struct {
	id           string
	logger       *slog.Logger
	runtime      *cmd.Runtime
	scheduler    *schedule.Scheduler
	consumer     *queue.Consumer // nil without Redis
	syncInterval time.Duration
}

func NewWorkerManager(id string, runtime *cmd.Runtime, logger *slog.Logger, queueName string, syncInterval time.Duration) (*WorkerManager, error) {
	w := &WorkerManager{
		id:           id,
		logger:       logger.With("module", "autocrm-worker", "worker_id", id),
		runtime:      runtime,
		scheduler:    schedule.NewScheduler(runtime.Dispatcher, runtime.Clock, logger),
		syncInterval: syncInterval,
	}

	if runtime.Redis != nil {
		consumer, err := queue.NewConsumer(runtime.Redis, queueName, logger)
		if err != nil {
			return nil, err
		}

		w.consumer = consumer
	}

	return w, nil
}

// Start runs until ctx is cancelled.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.runtime.EventBus.Handle(events.TicketEventReceivedEvent, w.handleTicketEventReceived); err != nil {
		return err
	}

	if err := w.runtime.EventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if w.consumer != nil {
		if err := w.consumer.Start(ctx, w.handleTicketEvent); err != nil {
			return err
		}
	}

	workflows := w.runtime.Persistence.WorkflowRepository()
	if err := w.scheduler.Load(ctx, workflows); err != nil {
		w.logger.WarnContext(ctx, "Some scheduled workflows could not be loaded", "error", err)
	}

	w.scheduler.Start()

	go w.scheduler.Watch(ctx, workflows, w.syncInterval)

	w.logger.InfoContext(ctx, "Worker started successfully", "scheduled", len(w.scheduler.Scheduled()))

	<-ctx.Done()
	w.logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return w.stop(shutdownCtx)
}

func (w *WorkerManager) stop(ctx context.Context) error {
	var errs []error

	if w.consumer != nil {
		errs = append(errs, w.consumer.Stop(ctx))
	}

	errs = append(errs, w.scheduler.Stop(ctx))

	return errors.Join(errs...)
}

func (w *WorkerManager) handleTicketEventReceived(ctx context.Context, event any) error {
	received, ok := event.(*events.TicketEventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for TicketEventReceived")

		return nil
	}

	return w.handleTicketEvent(ctx, received.Event)
}

func (w *WorkerManager) handleTicketEvent(ctx context.Context, event models.TicketEvent) error {
	logger := w.logger.With("ticket_id", event.TicketID, "event_type", event.Type)
	logger.InfoContext(ctx, "Processing ticket event")

	executions, err := w.runtime.Dispatcher.HandleEvent(ctx, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to dispatch ticket event", "error", err)

		if len(executions) == 0 {
			return err
		}
	}

	logger.InfoContext(ctx, "Ticket event processed", "executions", len(executions))

	return nil
}
