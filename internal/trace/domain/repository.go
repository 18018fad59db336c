package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists agent runs and their steps.
type Repository interface {
	SaveRun(ctx context.Context, run *AgentRun) error
	SaveStep(ctx context.Context, step *TraceStep) error
	FindRun(ctx context.Context, id uuid.UUID) (*AgentRun, error)
	// StepsForRun lists a run's steps ordered by step_order.
	StepsForRun(ctx context.Context, runID uuid.UUID) ([]*TraceStep, error)
	// StaleRunning lists RUNNING runs started before the cutoff.
	StaleRunning(ctx context.Context, cutoff time.Time) ([]*AgentRun, error)
}
