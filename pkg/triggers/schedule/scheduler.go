// Package schedule runs workflows with scheduled triggers on cron or interval timers.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/autocrm/autocrm/pkg/models"
)

var ErrNotScheduled = errors.New("workflow does not have a scheduled trigger")

// Runner executes a workflow outside of any ticket event.
type Runner interface {
	Execute(ctx context.Context, w *models.Workflow, wctx models.WorkflowContext) (*models.Execution, error)
}

// WorkflowLister loads the workflows to schedule.
type WorkflowLister interface {
	ListActiveByTrigger(ctx context.Context, triggerType models.TriggerType) ([]*models.Workflow, error)
}

type entry struct {
	id        cron.EntryID
	spec      string
	updatedAt time.Time
}

// Scheduler keeps one cron entry per scheduled workflow.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	clock   clockwork.Clock
	logger  *slog.Logger
	mu      sync.Mutex
	entries map[string]entry
}

func NewScheduler(runner Runner, clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	logger = logger.With("module", "scheduler")
	cronLogger := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLogger),
			cron.Recover(cronLogger),
		)),
		runner:  runner,
		clock:   clock,
		logger:  logger,
		entries: make(map[string]entry),
	}
}

// Spec converts scheduled trigger conditions into a cron spec. Interval
// schedules become "@every" descriptors.
func Spec(trigger models.WorkflowTrigger) (string, error) {
	if trigger.Type != models.TriggerScheduled {
		return "", ErrNotScheduled
	}

	scheduleType, _ := trigger.Condition("scheduleType").(string)

	switch scheduleType {
	case models.ScheduleTypeCron:
		expression, _ := trigger.Condition("cron").(string)
		if strings.TrimSpace(expression) == "" {
			return "", errors.New("cron expression is required")
		}

		return expression, nil
	case models.ScheduleTypeInterval:
		interval, ok := toInt(trigger.Condition("interval"))
		if !ok || interval < 1 {
			return "", errors.New("interval must be at least 1")
		}

		intervalType, _ := trigger.Condition("intervalType").(string)

		var unit time.Duration

		switch intervalType {
		case "minutes":
			unit = time.Minute
		case "hours":
			unit = time.Hour
		case "days":
			unit = 24 * time.Hour
		default:
			return "", fmt.Errorf("unknown interval type: %q", intervalType)
		}

		return "@every " + (time.Duration(interval) * unit).String(), nil
	default:
		return "", fmt.Errorf("unknown schedule type: %q", scheduleType)
	}
}

// Schedule adds w, replacing any previous entry for the same workflow.
// An unchanged workflow keeps its entry so interval timers are not reset.
// Inactive workflows are only removed.
func (s *Scheduler) Schedule(w *models.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !w.IsActive || w.Trigger.Type != models.TriggerScheduled {
		s.removeLocked(w.ID)

		return nil
	}

	spec, err := Spec(w.Trigger)
	if err != nil {
		s.removeLocked(w.ID)

		return fmt.Errorf("workflow %s: %w", w.ID, err)
	}

	if current, ok := s.entries[w.ID]; ok && current.spec == spec && current.updatedAt.Equal(w.UpdatedAt) {
		return nil
	}

	s.removeLocked(w.ID)

	id, err := s.cron.AddFunc(spec, s.job(w))
	if err != nil {
		return fmt.Errorf("failed to add cron job for workflow %s: %w", w.ID, err)
	}

	s.entries[w.ID] = entry{id: id, spec: spec, updatedAt: w.UpdatedAt}

	s.logger.Info("Scheduled workflow", "workflow_id", w.ID, "spec", spec)

	return nil
}

func (s *Scheduler) Unschedule(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeLocked(workflowID)
}

func (s *Scheduler) removeLocked(workflowID string) {
	if current, ok := s.entries[workflowID]; ok {
		s.cron.Remove(current.id)
		delete(s.entries, workflowID)
	}
}

// Load brings the entries in line with the active scheduled workflows:
// new or changed workflows are (re)scheduled and missing ones removed.
// Workflows that cannot be scheduled are skipped and reported together.
func (s *Scheduler) Load(ctx context.Context, workflows WorkflowLister) error {
	scheduled, err := workflows.ListActiveByTrigger(ctx, models.TriggerScheduled)
	if err != nil {
		return fmt.Errorf("failed to list scheduled workflows: %w", err)
	}

	present := make(map[string]bool, len(scheduled))

	var errs []error

	for _, w := range scheduled {
		present[w.ID] = true

		if err := s.Schedule(w); err != nil {
			s.logger.WarnContext(ctx, "Skipping workflow schedule", "workflow_id", w.ID, "error", err)
			errs = append(errs, err)
		}
	}

	for _, id := range s.Scheduled() {
		if !present[id] {
			s.Unschedule(id)
		}
	}

	return errors.Join(errs...)
}

// Watch reloads the schedules from workflows every interval until ctx ends.
func (s *Scheduler) Watch(ctx context.Context, workflows WorkflowLister, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.Load(ctx, workflows); err != nil {
				s.logger.WarnContext(ctx, "Failed to reload schedules", "error", err)
			}
		}
	}
}

// Scheduled returns the ids of the workflows currently holding an entry.
func (s *Scheduler) Scheduled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}

	return ids
}

func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop stops the timers and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping scheduler")

	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) job(w *models.Workflow) func() {
	return func() {
		timestamp := s.clock.Now().UTC().Format(time.RFC3339)
		data := map[string]any{"timestamp": timestamp}

		wctx := models.WorkflowContext{
			WorkflowID: w.ID,
			UserID:     w.Owner,
			Data:       data,
			Trigger:    &models.TriggerData{Type: models.TriggerScheduled, Data: data},
		}

		execution, err := s.runner.Execute(context.Background(), w, wctx)
		if err != nil {
			s.logger.Error("Error executing scheduled workflow", "workflow_id", w.ID, "error", err)

			return
		}

		s.logger.Info("Scheduled workflow executed", "workflow_id", w.ID, "execution_id", execution.ID, "success", execution.Success)
	}
}

// cronLogger routes cron's own logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))

		return i, err == nil
	default:
		return 0, false
	}
}
