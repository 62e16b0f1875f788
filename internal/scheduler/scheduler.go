// Package scheduler runs named jobs on cron schedules.
// In serve mode it refreshes the cached channel directory of each network.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jmylchreest/aaradio/internal/observability"
)

// Errors returned by the scheduler.
var (
	ErrAlreadyStarted = errors.New("scheduler already started")
	ErrJobExists      = errors.New("job already registered")
	ErrJobNotFound    = errors.New("job not found")
)

// JobFunc is the work performed on each run of a job. ctx carries a logger
// tagged with the job name; see observability.LoggerFromContext.
type JobFunc func(ctx context.Context) error

// JobInfo describes a registered job.
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev,omitzero"`
}

type job struct {
	schedule string
	entryID  cron.EntryID
	fn       JobFunc
}

// Scheduler runs jobs using 6-field cron expressions
// (seconds minutes hours day-of-month month day-of-week).
// Descriptors such as @hourly and @every 30m are also accepted.
type Scheduler struct {
	mu sync.Mutex

	cron   *cron.Cron
	parser cron.Parser
	logger *slog.Logger
	jobs   map[string]*job

	// Running state
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a scheduler. Jobs may be added before or after Start.
func New() *Scheduler {
	s := &Scheduler{
		parser: newParser(),
		logger: slog.Default(),
		jobs:   make(map[string]*job),
	}
	s.cron = s.newCron()
	return s
}

func newParser() cron.Parser {
	return cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
}

func (s *Scheduler) newCron() *cron.Cron {
	return cron.New(
		cron.WithParser(s.parser),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{s})),
	)
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = observability.WithComponent(logger, "scheduler")
	return s
}

// Add registers fn under name to run on the given schedule.
// Runs of the same job never overlap; a run that comes due while the
// previous one is still going is skipped.
func (s *Scheduler) Add(name, schedule string, fn JobFunc) error {
	schedule = strings.TrimSpace(schedule)
	parsed, err := s.parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	j := &job{schedule: schedule, fn: fn}
	j.entryID = s.cron.Schedule(parsed, cron.FuncJob(func() { s.run(name, j) }))
	s.jobs[name] = j

	s.logger.Info("job scheduled",
		slog.String("job", name),
		slog.String("schedule", schedule),
		slog.Time("next", parsed.Next(time.Now())),
	)
	return nil
}

// Remove unregisters a job. Runs already in progress are not interrupted.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	s.cron.Remove(j.entryID)
	delete(s.jobs, name)
	return nil
}

// Start begins running scheduled jobs until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return ErrAlreadyStarted
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()

	s.logger.Info("scheduler started", slog.Int("jobs", len(s.jobs)))
	return nil
}

// Stop cancels in-flight runs and waits for them to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.ctx == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()

	s.mu.Lock()
	s.ctx = nil
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// RunNow runs the named job synchronously on the caller's context.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	j, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	return s.execute(ctx, name, j)
}

// Jobs returns the registered jobs sorted by name.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	infos := make([]JobInfo, 0, len(s.jobs))
	for name, j := range s.jobs {
		info := JobInfo{Name: name, Schedule: j.schedule}
		entry := s.cron.Entry(j.entryID)
		if entry.Valid() && !entry.Next.IsZero() {
			info.Next = entry.Next
			info.Prev = entry.Prev
		} else if sched, err := s.parser.Parse(j.schedule); err == nil {
			info.Next = sched.Next(now)
		}
		infos = append(infos, info)
	}

	slices.SortFunc(infos, func(a, b JobInfo) int { return strings.Compare(a.Name, b.Name) })
	return infos
}

// run is the cron entry point for a job.
func (s *Scheduler) run(name string, j *job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		return
	}
	_ = s.execute(ctx, name, j)
}

func (s *Scheduler) execute(ctx context.Context, name string, j *job) (err error) {
	logger := s.logger.With(slog.String("job", name))
	ctx = observability.ContextWithLogger(ctx, logger)

	done := observability.TimedOperationWithError(ctx, logger, "scheduled_job", &err)
	defer done()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", name, r)
		}
	}()

	return j.fn(ctx)
}

// ValidateCron reports whether expr is an acceptable schedule.
func ValidateCron(expr string) error {
	if _, err := newParser().Parse(strings.TrimSpace(expr)); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// NextRun returns the first activation of expr after from.
func NextRun(expr string, from time.Time) (time.Time, error) {
	sched, err := newParser().Parse(strings.TrimSpace(expr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return sched.Next(from), nil
}

// cronLogger adapts the scheduler's slog logger to cron.Logger.
type cronLogger struct{ s *Scheduler }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
