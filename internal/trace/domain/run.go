package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var ErrRunFinished = errors.New("agent run already finished")

// RunStatus is the lifecycle of one engine execution.
type RunStatus string

const (
	StatusRunning   RunStatus = "RUNNING"
	StatusCompleted RunStatus = "COMPLETED"
	StatusFailed    RunStatus = "FAILED"
)

// AgentRun records one engine execution with its ordered decision steps. Runs
// are the audit trail: every planning operation explains itself through one.
type AgentRun struct {
	sharedDomain.BaseAggregateRoot
	component  string
	sectorID   *uuid.UUID
	status     RunStatus
	startedAt  time.Time
	finishedAt *time.Time
	failReason string
	nextStep   int
	steps      []*TraceStep
}

// TraceStep is one ordered decision record inside a run. Payload is an
// arbitrary JSON-serializable document.
type TraceStep struct {
	ID        uuid.UUID      `json:"id"`
	RunID     uuid.UUID      `json:"run_id"`
	StepOrder int            `json:"step_order"`
	Name      string         `json:"name"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewAgentRun starts a run for a component.
func NewAgentRun(component string, sectorID *uuid.UUID) *AgentRun {
	return &AgentRun{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		component:         component,
		sectorID:          sectorID,
		status:            StatusRunning,
		startedAt:         time.Now().UTC(),
		nextStep:          1,
	}
}

// RehydrateAgentRun recreates a run from persisted state.
func RehydrateAgentRun(id uuid.UUID, component string, sectorID *uuid.UUID, status RunStatus, startedAt time.Time, finishedAt *time.Time, failReason string, nextStep int, createdAt, updatedAt time.Time) *AgentRun {
	return &AgentRun{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		component:  component,
		sectorID:   sectorID,
		status:     status,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		failReason: failReason,
		nextStep:   nextStep,
	}
}

func (r *AgentRun) Component() string      { return r.component }
func (r *AgentRun) SectorID() *uuid.UUID   { return r.sectorID }
func (r *AgentRun) Status() RunStatus      { return r.status }
func (r *AgentRun) StartedAt() time.Time   { return r.startedAt }
func (r *AgentRun) FinishedAt() *time.Time { return r.finishedAt }
func (r *AgentRun) FailReason() string     { return r.failReason }
func (r *AgentRun) NextStep() int          { return r.nextStep }
func (r *AgentRun) Steps() []*TraceStep    { return r.steps }

// AddStep appends an ordered step; step order is monotonic within the run.
func (r *AgentRun) AddStep(name string, payload map[string]any) (*TraceStep, error) {
	if r.status != StatusRunning {
		return nil, ErrRunFinished
	}
	step := &TraceStep{
		ID:        uuid.New(),
		RunID:     r.ID(),
		StepOrder: r.nextStep,
		Name:      name,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
	r.nextStep++
	r.steps = append(r.steps, step)
	r.Touch()
	return step, nil
}

// Complete finishes the run successfully.
func (r *AgentRun) Complete() error {
	if r.status != StatusRunning {
		return ErrRunFinished
	}
	now := time.Now().UTC()
	r.status = StatusCompleted
	r.finishedAt = &now
	r.Touch()
	return nil
}

// Fail finishes the run with a reason.
func (r *AgentRun) Fail(reason string) error {
	if r.status != StatusRunning {
		return ErrRunFinished
	}
	now := time.Now().UTC()
	r.status = StatusFailed
	r.failReason = reason
	r.finishedAt = &now
	r.Touch()
	return nil
}

// IsStale reports whether a RUNNING run exceeded the sweep timeout at now.
func (r *AgentRun) IsStale(now time.Time, timeout time.Duration) bool {
	return r.status == StatusRunning && now.Sub(r.startedAt) > timeout
}
