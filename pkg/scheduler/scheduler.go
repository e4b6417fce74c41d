// Package scheduler resumes paused and failed enrollments when their
// durable resume time arrives.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultCeiling is the longest single in-memory timer. Longer waits are
	// re-armed for the remainder when the clipped timer fires.
	DefaultCeiling  = 7 * 24 * time.Hour
	DefaultPollSpec = "@every 1m"
)

var ErrNoHandler = errors.New("scheduler has no resume handler")

// ResumeFunc advances the enrollment named by the schedule.
type ResumeFunc func(ctx context.Context, schedule *models.ResumeSchedule) error

type armedTimer struct {
	timer      *time.Timer
	generation uint64
}

type Scheduler struct {
	store    persistence.ScheduleRepository
	logger   *slog.Logger
	ceiling  time.Duration
	pollSpec string
	now      func() time.Time

	mu         sync.Mutex
	handler    ResumeFunc
	timers     map[string]*armedTimer
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	cron       *cron.Cron
	inflight   sync.WaitGroup
}

type Option func(*Scheduler)

func WithCeiling(ceiling time.Duration) Option {
	return func(s *Scheduler) {
		if ceiling > 0 {
			s.ceiling = ceiling
		}
	}
}

func WithPollSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.pollSpec = spec
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func New(store persistence.ScheduleRepository, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		logger:   logger.With("module", "resume_scheduler"),
		ceiling:  DefaultCeiling,
		pollSpec: DefaultPollSpec,
		now:      time.Now,
		timers:   make(map[string]*armedTimer),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SetHandler installs the resume entry point. It must be called before
// Start or RunDue.
func (s *Scheduler) SetHandler(handler ResumeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handler = handler
}

// Start re-arms every persisted schedule and begins the due-poll.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.handler == nil {
		s.mu.Unlock()

		return ErrNoHandler
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	s.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))
	s.mu.Unlock()

	if _, err := s.cron.AddFunc(s.pollSpec, s.poll); err != nil {
		return fmt.Errorf("failed to add due-poll job %q: %w", s.pollSpec, err)
	}

	schedules, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load resume schedules: %w", err)
	}

	for _, schedule := range schedules {
		s.setTimer(schedule)
	}

	s.cron.Start()

	s.logger.InfoContext(ctx, "Resume scheduler started", "rearmed", len(schedules), "poll", s.pollSpec)

	return nil
}

// Stop halts the poll and every timer, then waits for running resumes.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()

	for id, armed := range s.timers {
		armed.timer.Stop()
		delete(s.timers, id)
	}

	if s.cancel != nil {
		s.cancel()
	}

	c := s.cron
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}

	done := make(chan struct{})

	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.InfoContext(ctx, "Resume scheduler stopped")

		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Arm persists the schedule and replaces any timer of the same enrollment.
func (s *Scheduler) Arm(ctx context.Context, schedule *models.ResumeSchedule) error {
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = s.now().UTC()
	}

	if err := s.store.Upsert(ctx, schedule); err != nil {
		return fmt.Errorf("failed to persist resume schedule for %s: %w", schedule.EnrollmentID, err)
	}

	s.setTimer(schedule)

	s.logger.DebugContext(ctx, "Resume armed",
		"enrollment_id", schedule.EnrollmentID,
		"node_id", schedule.NodeID,
		"reason", schedule.Reason,
		"due_at", schedule.DueAt,
	)

	return nil
}

// Cancel stops the timer and deletes the durable record.
func (s *Scheduler) Cancel(ctx context.Context, enrollmentID string) error {
	s.disarm(enrollmentID)

	if err := s.store.Delete(ctx, enrollmentID); err != nil {
		return fmt.Errorf("failed to delete resume schedule for %s: %w", enrollmentID, err)
	}

	return nil
}

// Armed reports whether an in-memory timer is pending for the enrollment.
func (s *Scheduler) Armed(enrollmentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.timers[enrollmentID]

	return ok
}

// RunDue resumes every schedule whose due time has passed and returns how
// many were processed.
func (s *Scheduler) RunDue(ctx context.Context) (int, error) {
	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		return 0, ErrNoHandler
	}

	due, err := s.store.Due(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to load due schedules: %w", err)
	}

	var errs []error

	for _, schedule := range due {
		s.disarm(schedule.EnrollmentID)

		if err := handler(ctx, schedule); err != nil {
			s.logger.ErrorContext(ctx, "Failed to resume enrollment",
				"enrollment_id", schedule.EnrollmentID, "error", err)

			errs = append(errs, fmt.Errorf("enrollment %s: %w", schedule.EnrollmentID, err))
		}
	}

	return len(due), errors.Join(errs...)
}

func (s *Scheduler) poll() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx == nil || ctx.Err() != nil {
		return
	}

	count, err := s.RunDue(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Due-poll finished with errors", "resumed", count, "error", err)

		return
	}

	if count > 0 {
		s.logger.InfoContext(ctx, "Due-poll resumed enrollments", "resumed", count)
	}
}

// setTimer is a no-op until Start; the due-poll and Start pick up
// schedules persisted before that.
func (s *Scheduler) setTimer(schedule *models.ResumeSchedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx == nil || s.ctx.Err() != nil {
		return
	}

	if existing, ok := s.timers[schedule.EnrollmentID]; ok {
		existing.timer.Stop()
	}

	delay := min(max(schedule.DueAt.Sub(s.now()), 0), s.ceiling)

	s.generation++
	generation := s.generation
	fired := *schedule

	s.timers[schedule.EnrollmentID] = &armedTimer{
		generation: generation,
		timer: time.AfterFunc(delay, func() {
			s.fire(&fired, generation)
		}),
	}
}

func (s *Scheduler) fire(schedule *models.ResumeSchedule, generation uint64) {
	s.mu.Lock()

	armed, ok := s.timers[schedule.EnrollmentID]
	if !ok || armed.generation != generation || s.ctx.Err() != nil {
		s.mu.Unlock()

		return
	}

	delete(s.timers, schedule.EnrollmentID)

	ctx := s.ctx
	handler := s.handler
	s.inflight.Add(1)
	s.mu.Unlock()

	defer s.inflight.Done()

	if err := handler(ctx, schedule); err != nil {
		s.logger.ErrorContext(ctx, "Failed to resume enrollment",
			"enrollment_id", schedule.EnrollmentID,
			"node_id", schedule.NodeID,
			"error", err,
		)
	}
}

func (s *Scheduler) disarm(enrollmentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if armed, ok := s.timers[enrollmentID]; ok {
		armed.timer.Stop()
		delete(s.timers, enrollmentID)
	}
}
