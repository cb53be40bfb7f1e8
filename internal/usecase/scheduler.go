package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const (
	// MinInterval is the shortest accepted polling interval.
	MinInterval = 60 * time.Second
	// MaxInterval is the longest accepted polling interval.
	MaxInterval = 24 * time.Hour
	// DefaultInterval is used for guilds without an override.
	DefaultInterval = 60 * time.Second
)

// GuildTask is run by the scheduler for one guild.
type GuildTask func(ctx context.Context, guildID string) error

type pollJob struct {
	id       uuid.UUID
	interval time.Duration
}

// PollScheduler keeps at most one repeating job per guild.
type PollScheduler struct {
	mu   sync.Mutex
	jobs map[string]pollJob

	scheduler       gocron.Scheduler
	task            GuildTask
	defaultInterval time.Duration
	logger          *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// PollSchedulerOption configures behavioural aspects of the scheduler.
type PollSchedulerOption func(*PollScheduler)

// WithDefaultInterval sets the interval used by Ensure and Resume.
func WithDefaultInterval(interval time.Duration) PollSchedulerOption {
	return func(s *PollScheduler) {
		if interval > 0 {
			s.defaultInterval = interval
		}
	}
}

// WithSchedulerLogger sets the logger for the scheduler and its gocron backend.
func WithSchedulerLogger(logger *slog.Logger) PollSchedulerOption {
	return func(s *PollScheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewPollScheduler creates and starts a scheduler that runs task for every scheduled guild.
func NewPollScheduler(task GuildTask, opts ...PollSchedulerOption) (*PollScheduler, error) {
	if task == nil {
		return nil, fmt.Errorf("poll scheduler missing guild task")
	}

	s := &PollScheduler{
		jobs:            make(map[string]pollJob),
		task:            task,
		defaultInterval: DefaultInterval,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler")

	backend, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
		gocron.WithLogger(&gocronLogAdapter{logger: s.logger}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	s.scheduler = backend
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.scheduler.Start()
	return s, nil
}

// ValidateInterval reports ErrIntervalOutOfRange for intervals outside [MinInterval, MaxInterval].
func ValidateInterval(interval time.Duration) error {
	if interval < MinInterval || interval > MaxInterval {
		return fmt.Errorf("%w: %s not within [%s, %s]", ErrIntervalOutOfRange, interval, MinInterval, MaxInterval)
	}
	return nil
}

// Schedule installs a job for guildID at interval, removing any previous job first.
// An invalid interval leaves the previous job untouched.
func (s *PollScheduler) Schedule(guildID string, interval time.Duration) error {
	if err := ValidateInterval(interval); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(guildID, interval, false)
}

// Ensure schedules guildID with the default interval unless it already has a job.
func (s *PollScheduler) Ensure(guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[guildID]; ok {
		return nil
	}
	return s.scheduleLocked(guildID, s.defaultInterval, false)
}

// Resume schedules every guild with the default interval and runs each once immediately.
func (s *PollScheduler) Resume(guildIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, guildID := range guildIDs {
		if _, ok := s.jobs[guildID]; ok {
			continue
		}
		if err := s.scheduleLocked(guildID, s.defaultInterval, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Interval returns the polling interval of guildID, if scheduled.
func (s *PollScheduler) Interval(guildID string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[guildID]
	return job.interval, ok
}

// Every registers an auxiliary recurring job that starts immediately.
func (s *PollScheduler) Every(name string, interval time.Duration, fn func(ctx context.Context)) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval %s for job %s", interval, name)
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { fn(s.ctx) }),
		gocron.WithName(name),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", name, err)
	}
	s.logger.Debug("job scheduled", slog.String("job", name), slog.Duration("interval", interval))
	return nil
}

// Shutdown cancels running cycles, removes every job and waits for the backend to stop.
func (s *PollScheduler) Shutdown() error {
	s.cancel()

	s.mu.Lock()
	count := len(s.jobs)
	s.jobs = make(map[string]pollJob)
	s.mu.Unlock()

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shutdown scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped", slog.Int("guilds", count))
	return nil
}

func (s *PollScheduler) scheduleLocked(guildID string, interval time.Duration, immediate bool) error {
	if previous, ok := s.jobs[guildID]; ok {
		if err := s.scheduler.RemoveJob(previous.id); err != nil && !errors.Is(err, gocron.ErrJobNotFound) {
			return fmt.Errorf("failed to cancel previous job for guild %s: %w", guildID, err)
		}
		delete(s.jobs, guildID)
	}

	options := []gocron.JobOption{
		gocron.WithName("poll:" + guildID),
		gocron.WithTags(guildID),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediate {
		options = append(options, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.runGuild, guildID),
		options...,
	)
	if err != nil {
		return fmt.Errorf("failed to schedule guild %s: %w", guildID, err)
	}

	s.jobs[guildID] = pollJob{id: job.ID(), interval: interval}
	s.logger.Info("guild scheduled", slog.String("guild", guildID), slog.Duration("interval", interval))
	return nil
}

func (s *PollScheduler) runGuild(guildID string) {
	if err := s.task(s.ctx, guildID); err != nil {
		if errors.Is(err, ErrGuildNotTracked) {
			s.logger.Debug("scheduled guild has no state yet", slog.String("guild", guildID))
			return
		}
		s.logger.Debug("update cycle aborted", slog.String("guild", guildID), slog.Any("error", err))
	}
}

type gocronLogAdapter struct {
	logger *slog.Logger
}

func (l *gocronLogAdapter) Debug(msg string, args ...any) {
	l.logger.Debug(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Info(msg string, args ...any) {
	l.logger.Info(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Warn(msg string, args ...any) {
	l.logger.Warn(msg, toSlogArgs(args)...)
}

func (l *gocronLogAdapter) Error(msg string, args ...any) {
	l.logger.Error(msg, toSlogArgs(args)...)
}

func toSlogArgs(args []any) []any {
	slogArgs := make([]any, 0, len(args))

	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			key, ok := args[i].(string)
			if !ok {
				key = fmt.Sprintf("%v", args[i])
			}
			slogArgs = append(slogArgs, key, args[i+1])
		} else {
			slogArgs = append(slogArgs, "value", args[i])
		}
	}

	return slogArgs
}
