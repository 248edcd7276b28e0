package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-retry"
)

// ErrRunnerStopped is returned by Submit once Stop has been called.
var ErrRunnerStopped = errors.New("job runner is stopped")

// ErrJobTimeout is returned for an attempt that exceeded its timeout.
var ErrJobTimeout = errors.New("job attempt timed out")

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process jobs.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory queue.
	QueueSize int

	// StuckJobAge defines how long a job can stay in processing state
	// before the sweeper resets it.
	StuckJobAge time.Duration

	// SweepInterval defines how often pending and stuck jobs are re-queued.
	SweepInterval time.Duration

	// RetryBackoff is the first delay between attempts. Later delays double.
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the delay between attempts.
	MaxRetryBackoff time.Duration

	// DefaultTimeout bounds an attempt of a job that does not declare its own.
	DefaultTimeout time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:     2,
		QueueSize:       100,
		StuckJobAge:     30 * time.Minute,
		SweepInterval:   5 * time.Minute,
		RetryBackoff:    time.Second,
		MaxRetryBackoff: 30 * time.Second,
		DefaultTimeout:  60 * time.Second,
	}
}

// Runner persists submitted jobs, executes them on a pool of workers with
// bounded retries, and re-queues jobs left behind by a crash or a full queue.
type Runner struct {
	store  Store
	queue  chan Job
	config RunnerConfig
	logger *slog.Logger

	mu         sync.RWMutex
	factories  map[string]Factory
	errHandler func(job Job, err error)
	stopped    bool

	inflightMu sync.Mutex
	inflight   map[uuid.UUID]struct{}

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// NewRunner creates a new Runner.
func NewRunner(store Store, config RunnerConfig, logger *slog.Logger) (*Runner, error) {
	if store == nil {
		return nil, errors.New("job store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	defaults := DefaultRunnerConfig()
	if config.WorkerCount <= 0 {
		config.WorkerCount = defaults.WorkerCount
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.StuckJobAge <= 0 {
		config.StuckJobAge = defaults.StuckJobAge
	}
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = defaults.RetryBackoff
	}
	if config.MaxRetryBackoff <= 0 {
		config.MaxRetryBackoff = defaults.MaxRetryBackoff
	}
	if config.MaxRetryBackoff < config.RetryBackoff {
		config.MaxRetryBackoff = config.RetryBackoff
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaults.DefaultTimeout
	}

	log := logger.With("component", "job_runner")
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		store:     store,
		queue:     make(chan Job, config.QueueSize),
		config:    config,
		logger:    log,
		factories: make(map[string]Factory),
		inflight:  make(map[uuid.UUID]struct{}),
		errHandler: func(job Job, err error) {
			log.Error("job failed permanently",
				slog.String("job_id", job.ID().String()),
				slog.String("job_type", job.Type()),
				slog.String("error", err.Error()))
		},
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
	}, nil
}

// SetErrorHandler replaces the function called after a job exhausts its attempts.
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errHandler = handler
}

// Register associates a job type with the factory used to rebuild it
// from a persisted record.
func (r *Runner) Register(jobType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[jobType] = factory
}

// Submit persists job as pending and queues it for execution. A full queue
// is not an error: the job stays pending and is picked up by the next sweep.
func (r *Runner) Submit(ctx context.Context, job Job) error {
	r.mu.RLock()
	stopped := r.stopped
	r.mu.RUnlock()
	if stopped {
		return ErrRunnerStopped
	}

	// Claim before saving so a concurrent sweep cannot queue the same job.
	r.claim(job.ID())
	if err := r.store.Save(ctx, NewRecord(job, r.now().UTC())); err != nil {
		r.release(job.ID())
		return fmt.Errorf("failed to save job: %w", err)
	}

	if !r.push(job) {
		r.logger.Warn("job queue is full, leaving job pending",
			slog.String("job_id", job.ID().String()),
			slog.String("job_type", job.Type()))
	}
	return nil
}

// enqueue claims job and queues it. It returns false if the job is already
// queued or running, or if the queue is full.
func (r *Runner) enqueue(job Job) bool {
	if !r.claim(job.ID()) {
		return false
	}
	return r.push(job)
}

// claim marks id as in flight. It returns false if it already was.
func (r *Runner) claim(id uuid.UUID) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	if _, ok := r.inflight[id]; ok {
		return false
	}
	r.inflight[id] = struct{}{}
	return true
}

// push makes a non-blocking send of a claimed job, releasing the claim
// when the queue is full.
func (r *Runner) push(job Job) bool {
	select {
	case r.queue <- job:
		return true
	default:
		r.release(job.ID())
		return false
	}
}

func (r *Runner) release(id uuid.UUID) {
	r.inflightMu.Lock()
	delete(r.inflight, id)
	r.inflightMu.Unlock()
}

func (r *Runner) isInflight(id uuid.UUID) bool {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

// Start recovers unfinished jobs, starts the workers and schedules the sweeper.
func (r *Runner) Start() error {
	if err := r.Recover(r.ctx); err != nil {
		return fmt.Errorf("failed to recover jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.cron = cron.New()
	spec := "@every " + r.config.SweepInterval.String()
	if _, err := r.cron.AddFunc(spec, func() { r.Sweep(r.ctx) }); err != nil {
		r.cancel()
		r.wg.Wait()
		return fmt.Errorf("failed to schedule job sweep: %w", err)
	}
	r.cron.Start()

	r.logger.Info("job runner started",
		slog.Int("worker_count", r.config.WorkerCount),
		slog.Int("queue_size", r.config.QueueSize),
		slog.Duration("sweep_interval", r.config.SweepInterval))
	return nil
}

// Stop stops the sweeper and waits for running jobs to finish their current
// attempt. Jobs still queued stay pending in the store.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	r.cancel()
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

// Recover re-queues jobs left pending or processing by a previous run.
func (r *Runner) Recover(ctx context.Context) error {
	pending, err := r.store.ListByStatus(ctx, StatusPending, 0)
	if err != nil {
		return fmt.Errorf("failed to get pending jobs: %w", err)
	}

	processing, err := r.store.ListByStatus(ctx, StatusProcessing, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing jobs: %w", err)
	}

	r.logger.Info("recovering unfinished jobs",
		slog.Int("pending_count", len(pending)),
		slog.Int("processing_count", len(processing)))

	r.requeue(ctx, pending, false, "")
	r.requeue(ctx, processing, true, "reset after recovery")
	return nil
}

// Sweep re-queues pending jobs that are not queued and processing jobs
// older than StuckJobAge.
func (r *Runner) Sweep(ctx context.Context) {
	stuck, err := r.store.ListByStatus(ctx, StatusProcessing, r.config.StuckJobAge)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", slog.String("error", err.Error()))
	} else if len(stuck) > 0 {
		r.logger.Info("found stuck jobs", slog.Int("count", len(stuck)))
		r.requeue(ctx, stuck, true, "reset after being stuck in processing state")
	}

	pending, err := r.store.ListByStatus(ctx, StatusPending, 0)
	if err != nil {
		r.logger.Error("failed to check for pending jobs", slog.String("error", err.Error()))
		return
	}
	r.requeue(ctx, pending, false, "")
}

func (r *Runner) requeue(ctx context.Context, records []Record, reset bool, note string) {
	for _, rec := range records {
		if r.isInflight(rec.ID) {
			continue
		}
		log := r.logger.With(slog.String("job_id", rec.ID.String()), slog.String("job_type", rec.Type))

		job, err := r.rebuild(rec)
		if err != nil {
			log.Error("failed to rebuild job", slog.String("error", err.Error()))
			if updErr := r.store.UpdateStatus(ctx, rec.ID, StatusFailed, rec.Attempts, err.Error()); updErr != nil {
				log.Error("failed to mark unrecoverable job as failed", slog.String("error", updErr.Error()))
			}
			continue
		}

		if reset {
			moved, err := r.store.Transition(ctx, rec.ID, StatusProcessing, StatusPending, rec.Attempts, note)
			if err != nil {
				log.Error("failed to reset job status", slog.String("error", err.Error()))
				continue
			}
			if !moved {
				log.Debug("job left processing state before reset, skipping")
				continue
			}
		}

		if !r.enqueue(job) {
			log.Warn("failed to requeue job, queue is full")
			continue
		}
		log.Debug("requeued job")
	}
}

func (r *Runner) rebuild(rec Record) (Job, error) {
	r.mu.RLock()
	factory, ok := r.factories[rec.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no factory registered for job type %q", rec.Type)
	}
	return factory(rec)
}

// worker processes jobs from the queue.
func (r *Runner) worker(id int) {
	defer r.wg.Done()
	r.logger.Debug("starting worker", slog.Int("worker_id", id))

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", slog.Int("worker_id", id))
			return
		case job := <-r.queue:
			r.process(job, id)
			r.release(job.ID())
		}
	}
}

// process runs every attempt of job and records the outcome.
func (r *Runner) process(job Job, workerID int) {
	ctx := context.WithoutCancel(r.ctx)
	log := r.logger.With(
		slog.String("job_id", job.ID().String()),
		slog.String("job_type", job.Type()),
		slog.Int("worker_id", workerID),
	)

	// The queue may hold a job listed before another worker finished it.
	claimed, err := r.store.Transition(ctx, job.ID(), StatusPending, StatusProcessing, 0, "")
	if err != nil {
		log.Error("failed to update job status to processing", slog.String("error", err.Error()))
		return
	}
	if !claimed {
		log.Debug("job is no longer pending, skipping")
		return
	}

	attempts, err := r.run(job, log)

	switch {
	case err == nil:
		log.Info("job completed", slog.Int("attempts", attempts))
		if updErr := r.store.UpdateStatus(ctx, job.ID(), StatusCompleted, attempts, ""); updErr != nil {
			log.Error("failed to update job status to completed", slog.String("error", updErr.Error()))
		}
	case errors.Is(err, context.Canceled) && r.ctx.Err() != nil:
		// Shutdown interrupted the backoff wait; the next start picks it up.
		log.Info("job interrupted by shutdown", slog.Int("attempts", attempts))
		if updErr := r.store.UpdateStatus(ctx, job.ID(), StatusPending, attempts, "interrupted by shutdown"); updErr != nil {
			log.Error("failed to reset interrupted job", slog.String("error", updErr.Error()))
		}
	default:
		log.Error("job execution failed", slog.Int("attempts", attempts), slog.String("error", err.Error()))
		if updErr := r.store.UpdateStatus(ctx, job.ID(), StatusFailed, attempts, err.Error()); updErr != nil {
			log.Error("failed to update job status to failed", slog.String("error", updErr.Error()))
		}
		if fh, ok := job.(FailureHandler); ok {
			fh.Failed(ctx, err)
		}
		r.mu.RLock()
		handler := r.errHandler
		r.mu.RUnlock()
		handler(job, err)
	}
}

// run executes job until it succeeds or its attempt budget is spent.
// Waits between attempts are cut short by Stop.
func (r *Runner) run(job Job, log *slog.Logger) (int, error) {
	limit := maxAttempts(job)
	perAttempt := timeout(job, r.config.DefaultTimeout)

	backoff := retry.NewExponential(r.config.RetryBackoff)
	backoff = retry.WithCappedDuration(r.config.MaxRetryBackoff, backoff)
	backoff = retry.WithMaxRetries(uint64(limit-1), backoff)

	attempts := 0
	err := retry.Do(r.ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := r.attempt(context.WithoutCancel(ctx), job, perAttempt)
		if err == nil {
			return nil
		}
		if attempts < limit {
			log.Warn("job attempt failed, retrying",
				slog.Int("attempt", attempts),
				slog.Int("max_attempts", limit),
				slog.String("error", err.Error()))
		}
		return retry.RetryableError(err)
	})
	return attempts, err
}

// attempt runs job once under a timeout, converting panics into errors.
func (r *Runner) attempt(parent context.Context, job Job, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(parent, limit)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("job panicked",
					slog.String("job_id", job.ID().String()),
					slog.Any("panic", p),
					slog.String("stack", string(debug.Stack())))
				done <- fmt.Errorf("panic: %v", p)
			}
		}()
		done <- job.Execute(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %v", ErrJobTimeout, limit, err)
		}
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w after %s", ErrJobTimeout, limit)
	}
}
