package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/valuescreen/internal/common"
	"github.com/ternarybob/valuescreen/internal/interfaces"
)

// ErrRunInProgress is returned by TriggerNow while another run is executing
var ErrRunInProgress = errors.New("run already in progress")

// RunFunc is one scheduled unit of work
type RunFunc func(ctx context.Context) error

var _ interfaces.SchedulerService = (*Service)(nil)

// Service fires a RunFunc on a cron schedule. Runs never overlap; a tick that
// arrives while a run is executing is skipped.
type Service struct {
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
	run      RunFunc
	logger   arbor.ILogger

	mu           sync.Mutex // Protects fields below
	cronID       cron.EntryID
	started      bool
	isProcessing bool
	status       interfaces.JobStatus

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService creates a scheduler for run. A zero timeout leaves runs unbounded.
func NewService(schedule string, timeout time.Duration, run RunFunc, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		cron:     cron.New(),
		schedule: schedule,
		timeout:  timeout,
		run:      run,
		logger:   logger,
		status:   interfaces.JobStatus{Schedule: schedule},
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the job and starts the cron loop
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already running")
	}

	id, err := s.cron.AddFunc(s.schedule, s.onTick)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}
	s.cronID = id

	s.cron.Start()
	s.started = true

	s.logger.Info().
		Str("cron_expr", s.schedule).
		Str("next_run", s.cron.Entry(id).Next.Format(time.RFC3339)).
		Msg("Scheduler started")

	return nil
}

// Stop halts the cron loop, cancels an in-flight run and waits for it to return
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	stopCtx := s.cron.Stop()
	s.cancel()
	<-stopCtx.Done()
	s.wg.Wait()

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning reports whether the cron loop is started
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// TriggerNow executes one run synchronously outside the schedule
func (s *Service) TriggerNow() error {
	return s.execute("manual")
}

// TriggerAsync executes one run in the background, used for run-on-start
func (s *Service) TriggerAsync() {
	s.wg.Add(1)
	common.SafeGo(s.logger, "scheduler-trigger", func() {
		defer s.wg.Done()
		if err := s.execute("startup"); err != nil && !errors.Is(err, ErrRunInProgress) {
			s.logger.Warn().Err(err).Msg("Startup run failed")
		}
	})
}

// GetJobStatus returns a copy of the current status
func (s *Service) GetJobStatus() interfaces.JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.status
	status.Started = s.started
	status.Running = s.isProcessing
	if s.started {
		if next := s.cron.Entry(s.cronID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Service) onTick() {
	s.wg.Add(1)
	defer s.wg.Done()

	if err := s.execute("cron"); err != nil && !errors.Is(err, ErrRunInProgress) {
		s.logger.Warn().Err(err).Msg("Scheduled run failed, next attempt on the next tick")
	}
}

func (s *Service) execute(trigger string) error {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Info().Str("trigger", trigger).Msg("Run already in progress, skipping this cycle")
		return ErrRunInProgress
	}
	s.isProcessing = true
	s.mu.Unlock()

	ctx := s.ctx
	var cancel context.CancelFunc = func() {}
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	started := time.Now()
	s.logger.Info().Str("trigger", trigger).Msg("Run starting")

	err := common.SafeRun(s.logger, "scheduled-run", func() error {
		return s.run(ctx)
	})

	finished := time.Now()
	duration := finished.Sub(started)

	s.mu.Lock()
	s.isProcessing = false
	s.status.Runs++
	s.status.LastRun = &started
	s.status.LastDuration = duration.Round(time.Millisecond).String()
	if err != nil {
		s.status.Failures++
		s.status.LastError = err.Error()
	} else {
		s.status.LastSuccess = &finished
		s.status.LastError = ""
	}
	s.mu.Unlock()

	s.logger.Info().
		Str("trigger", trigger).
		Dur("duration", duration).
		Bool("success", err == nil).
		Msg("Run finished")

	return err
}
