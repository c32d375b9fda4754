package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/core/ports/driving"
	"github.com/custodia-labs/stockline/internal/logger"
)

var _ driving.Scheduler = (*Scheduler)(nil)

// TaskFunc is the body of a scheduled task.
type TaskFunc func(ctx context.Context) error

type scheduledTask struct {
	domain.ScheduledTask
	run TaskFunc
}

// Scheduler runs background tasks on fixed intervals. Tasks that require a
// connection are skipped while offline.
type Scheduler struct {
	online OnlineChecker
	now    func() time.Time

	mu      sync.Mutex
	tasks   []*scheduledTask
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler.
func NewScheduler(online OnlineChecker) *Scheduler {
	if online == nil {
		online = alwaysOnline{}
	}
	return &Scheduler{online: online, now: time.Now}
}

// Add registers a task. Tasks added after Start are picked up on the next
// Start.
func (s *Scheduler) Add(task domain.ScheduledTask, run TaskFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, &scheduledTask{ScheduledTask: task, run: run})
}

// AddPollers registers one task per poller.
func (s *Scheduler) AddPollers(interval time.Duration, pollers ...*WatermarkPoller) {
	for _, p := range pollers {
		s.Add(domain.ScheduledTask{
			ID:             domain.PollTaskID(p.Collection()),
			Interval:       interval,
			RequiresOnline: true,
		}, func(ctx context.Context) error {
			_, err := p.Tick(ctx)
			return err
		})
	}
}

// Tasks returns a snapshot of the registered tasks.
func (s *Scheduler) Tasks() []domain.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScheduledTask, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.ScheduledTask
	}
	return out
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	tasks := append([]*scheduledTask(nil), s.tasks...)
	stopCh := s.stopCh
	s.mu.Unlock()

	for _, t := range tasks {
		s.wg.Add(1)
		go s.loop(ctx, stopCh, t)
	}
	select {
	case <-ctx.Done():
		s.wg.Wait()
		return ctx.Err()
	case <-stopCh:
		return nil
	}
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// loop runs one task on its own ticker.
func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}, t *scheduledTask) {
	defer s.wg.Done()
	interval := t.Interval
	if interval <= 0 {
		interval = domain.DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.runTask(ctx, t)
		}
	}
}

// RunOnce runs every eligible task once, sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.mu.Lock()
	tasks := append([]*scheduledTask(nil), s.tasks...)
	s.mu.Unlock()
	for _, t := range tasks {
		s.runTask(ctx, t)
	}
}

// runTask executes a single task and records its outcome.
func (s *Scheduler) runTask(ctx context.Context, t *scheduledTask) {
	if t.RequiresOnline && !s.online.IsOnline() {
		return
	}
	result := domain.TaskResult{TaskID: t.ID, StartedAt: s.now()}
	err := t.run(ctx)
	result.EndedAt = s.now()
	result.Success = err == nil

	s.mu.Lock()
	t.LastRun = result.StartedAt
	if result.Success {
		t.LastError = ""
		t.LastSuccess = result.EndedAt
	} else {
		result.Error = err.Error()
		t.LastError = result.Error
	}
	s.mu.Unlock()

	if !result.Success {
		logger.Debug("scheduler: task %s failed: %s", t.ID, result.Error)
	}
}
