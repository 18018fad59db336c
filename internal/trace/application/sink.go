package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	"github.com/hotelops/roster/internal/trace/domain"
)

// Sink is the write surface the engines trace their decisions through. A run
// is opened per operation; steps are flushed as they happen so a crashed run
// keeps its partial trail.
type Sink struct {
	repo   domain.Repository
	logger *slog.Logger
}

// NewSink creates a trace sink.
func NewSink(repo domain.Repository, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{repo: repo, logger: logger}
}

// Begin opens and persists a RUNNING run.
func (s *Sink) Begin(ctx context.Context, component string, sectorID *uuid.UUID) (*domain.AgentRun, error) {
	run := domain.NewAgentRun(component, sectorID)
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// Step appends and persists an ordered step.
func (s *Sink) Step(ctx context.Context, run *domain.AgentRun, name string, payload map[string]any) error {
	step, err := run.AddStep(name, payload)
	if err != nil {
		return err
	}
	if err := s.repo.SaveStep(ctx, step); err != nil {
		return err
	}
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return err
	}
	return nil
}

// Complete marks the run COMPLETED.
func (s *Sink) Complete(ctx context.Context, run *domain.AgentRun) error {
	if err := run.Complete(); err != nil {
		return err
	}
	return s.repo.SaveRun(ctx, run)
}

// Fail marks the run FAILED with a reason.
func (s *Sink) Fail(ctx context.Context, run *domain.AgentRun, reason string) error {
	if err := run.Fail(reason); err != nil {
		return err
	}
	return s.repo.SaveRun(ctx, run)
}

// Sweeper fails RUNNING runs that exceeded the timeout. Runs killed by a
// crash would otherwise stay RUNNING forever.
type Sweeper struct {
	repo    domain.Repository
	uow     sharedApplication.UnitOfWork
	timeout time.Duration
	logger  *slog.Logger
}

// NewSweeper creates a stale-run sweeper.
func NewSweeper(repo domain.Repository, uow sharedApplication.UnitOfWork, timeout time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Sweeper{repo: repo, uow: uow, timeout: timeout, logger: logger}
}

// Sweep fails all stale RUNNING runs and returns how many were swept.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	now = now.UTC()
	stale, err := s.repo.StaleRunning(ctx, now.Add(-s.timeout))
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		for _, run := range stale {
			if err := run.Fail("timed out by sweeper"); err != nil {
				continue
			}
			if err := s.repo.SaveRun(txCtx, run); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "stale agent runs swept", "count", len(stale))
	return len(stale), nil
}
