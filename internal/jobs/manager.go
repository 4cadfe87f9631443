package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/satriahrh/lingua/domain/entities"
)

const (
	defaultWorkers   = 4
	defaultTimeout   = 2 * time.Minute
	defaultRetention = time.Hour
	eventBufferSize  = 100
)

// ErrShuttingDown is returned by Submit after Shutdown has been called
var ErrShuttingDown = errors.New("job manager is shutting down")

// Config controls worker concurrency and bookkeeping
type Config struct {
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retention time.Duration `mapstructure:"retention"`
}

// Manager runs jobs in the background and keeps their status for polling.
// At most Config.Workers jobs execute at once; the rest wait as PENDING.
type Manager struct {
	logger    *zap.Logger
	jobs      map[string]*Job
	sem       *semaphore.Weighted
	timeout   time.Duration
	retention time.Duration
	eventChan chan Event
	listeners []func(Event)
	mu        sync.RWMutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closed  bool
}

// NewManager creates a new job manager
func NewManager(cfg Config, logger *zap.Logger) *Manager {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
		logger.Info("Using default job workers", zap.Int("workers", cfg.Workers))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
		logger.Info("Using default job timeout", zap.Duration("timeout", cfg.Timeout))
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
		logger.Info("Using default job retention", zap.Duration("retention", cfg.Retention))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		logger:    logger,
		jobs:      make(map[string]*Job),
		sem:       semaphore.NewWeighted(int64(cfg.Workers)),
		timeout:   cfg.Timeout,
		retention: cfg.Retention,
		eventChan: make(chan Event, eventBufferSize),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

// Subscribe registers fn to receive every job event. Listeners run on the
// dispatcher goroutine started by Run and must not block.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Submit enqueues a job and returns its id without waiting for it to run.
// Execution is detached from ctx so the job outlives the request that started it.
func (m *Manager) Submit(ctx context.Context, def Definition, data Data, labels map[string]string) (string, error) {
	if len(def.Steps) == 0 {
		return "", fmt.Errorf("job definition %q has no steps", def.Kind)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		Kind:      def.Kind,
		Status:    entities.JobStatusPending,
		Labels:    labels,
		CreatedAt: now,
	}
	if data == nil {
		data = Data{}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", ErrShuttingDown
	}
	m.jobs[job.ID] = job
	m.wg.Add(1)
	snapshot := *job
	m.mu.Unlock()

	m.emitEvent(Event{Type: EventJobQueued, Timestamp: now, Job: snapshot})

	go m.execute(job.ID, def, data)

	m.logger.Info("Job submitted", zap.String("jobID", job.ID), zap.String("kind", def.Kind))
	return job.ID, nil
}

// Get returns a copy of the job with the given id
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

func (m *Manager) execute(id string, def Definition, data Data) {
	defer m.wg.Done()

	if err := m.sem.Acquire(m.baseCtx, 1); err != nil {
		m.finish(id, "", fmt.Errorf("job not started: %w", err))
		return
	}
	defer m.sem.Release(1)

	timeout := def.Timeout
	if timeout <= 0 {
		timeout = m.timeout
	}
	ctx, cancel := context.WithTimeout(m.baseCtx, timeout)
	defer cancel()

	m.markStarted(id)

	completed := -1
	var stepErr error
	for i, step := range def.Steps {
		if err := step.Run(ctx, data); err != nil {
			stepErr = fmt.Errorf("step %s: %w", step.Name, err)
			m.logger.Error("Step failed",
				zap.String("jobID", id),
				zap.String("step", step.Name),
				zap.Error(err))
			m.emitStep(id, EventStepFailed, step.Name)
			break
		}
		completed = i
		m.emitStep(id, EventStepCompleted, step.Name)
	}

	if stepErr != nil {
		m.compensate(id, def, data, completed)
		m.finish(id, "", stepErr)
		return
	}

	m.finish(id, data.String(def.ResultKey), nil)
}

// compensate undoes completed steps in reverse order
func (m *Manager) compensate(id string, def Definition, data Data, lastCompleted int) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for i := lastCompleted; i >= 0; i-- {
		step := def.Steps[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx, data); err != nil {
			m.logger.Error("Compensation failed",
				zap.String("jobID", id),
				zap.String("step", step.Name),
				zap.Error(err))
			continue
		}
		m.emitStep(id, EventStepCompensated, step.Name)
	}
}

func (m *Manager) markStarted(id string) {
	now := time.Now().UTC()
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	job.Status = entities.JobStatusStarted
	job.StartedAt = &now
	snapshot := *job
	m.mu.Unlock()

	m.emitEvent(Event{Type: EventJobStarted, Timestamp: now, Job: snapshot})
}

func (m *Manager) finish(id, result string, err error) {
	now := time.Now().UTC()
	m.mu.Lock()
	job, ok := m.jobs[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	job.CompletedAt = &now
	eventType := EventJobSucceeded
	if err != nil {
		job.Status = entities.JobStatusFailure
		job.Error = err.Error()
		eventType = EventJobFailed
	} else {
		job.Status = entities.JobStatusSuccess
		job.Result = result
	}
	snapshot := *job
	m.mu.Unlock()

	m.emitEvent(Event{Type: eventType, Timestamp: now, Job: snapshot})

	if err != nil {
		m.logger.Warn("Job failed", zap.String("jobID", id), zap.Error(err))
	} else {
		m.logger.Info("Job completed", zap.String("jobID", id))
	}
}

func (m *Manager) emitStep(id, eventType, step string) {
	job, _ := m.Get(id)
	m.emitEvent(Event{Type: eventType, StepName: step, Timestamp: time.Now().UTC(), Job: job})
}

func (m *Manager) emitEvent(event Event) {
	select {
	case m.eventChan <- event:
	default:
		m.logger.Warn("Event channel full, dropping event",
			zap.String("type", event.Type),
			zap.String("jobID", event.Job.ID))
	}
}

// Run dispatches events to listeners and prunes old jobs until ctx is done
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.retention / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.eventChan:
			m.dispatch(event)
		case <-ticker.C:
			if n := m.Prune(time.Now().Add(-m.retention)); n > 0 {
				m.logger.Info("Pruned finished jobs", zap.Int("count", n))
			}
		}
	}
}

func (m *Manager) dispatch(event Event) {
	m.mu.RLock()
	listeners := m.listeners
	m.mu.RUnlock()
	for _, fn := range listeners {
		fn(event)
	}
}

// Prune forgets finished jobs that completed before cutoff and reports how many were removed
func (m *Manager) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, job := range m.jobs {
		if job.Status.Terminal() && job.CompletedAt != nil && job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// Shutdown stops accepting jobs, cancels running ones and waits for them to exit
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
