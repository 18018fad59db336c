package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	"github.com/hotelops/roster/internal/trace/domain"
)

// Repository implements domain.Repository.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a trace repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// SaveRun upserts a run.
func (r *Repository) SaveRun(ctx context.Context, run *domain.AgentRun) error {
	var sectorStr *string
	if run.SectorID() != nil {
		s := run.SectorID().String()
		sectorStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO agent_runs (id, component, sector_id, status, started_at, finished_at, fail_reason, next_step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			finished_at = EXCLUDED.finished_at,
			fail_reason = EXCLUDED.fail_reason,
			next_step = EXCLUDED.next_step,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		run.ID().String(),
		run.Component(),
		sectorStr,
		string(run.Status()),
		run.StartedAt(),
		run.FinishedAt(),
		run.FailReason(),
		run.NextStep(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	return err
}

// SaveStep inserts a step; steps are immutable once written.
func (r *Repository) SaveStep(ctx context.Context, step *domain.TraceStep) error {
	payload, err := json.Marshal(step.Payload)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO agent_trace_steps (id, run_id, step_order, name, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`,
		step.ID.String(),
		step.RunID.String(),
		step.StepOrder,
		step.Name,
		string(payload),
		step.CreatedAt,
	)
	return err
}

const runSelect = `
	SELECT id, component, sector_id, status, started_at, finished_at, fail_reason, next_step, created_at, updated_at
	FROM agent_runs
`

// FindRun retrieves a run by id. Nil when absent.
func (r *Repository) FindRun(ctx context.Context, id uuid.UUID) (*domain.AgentRun, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, runSelect+` WHERE id = $1`, id.String())
	run, err := scanRun(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return run, nil
}

// StepsForRun lists a run's steps ordered by step_order.
func (r *Repository) StepsForRun(ctx context.Context, runID uuid.UUID) ([]*domain.TraceStep, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, run_id, step_order, name, payload, created_at
		FROM agent_trace_steps
		WHERE run_id = $1
		ORDER BY step_order
	`, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []*domain.TraceStep
	for rows.Next() {
		var (
			idStr, runStr, name, payloadJSON string
			stepOrder                        int
			createdAt                        time.Time
		)
		if err := rows.Scan(&idStr, &runStr, &stepOrder, &name, &payloadJSON, &createdAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		parsedRun, err := uuid.Parse(runStr)
		if err != nil {
			return nil, err
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
			return nil, err
		}
		steps = append(steps, &domain.TraceStep{
			ID:        id,
			RunID:     parsedRun,
			StepOrder: stepOrder,
			Name:      name,
			Payload:   payload,
			CreatedAt: createdAt,
		})
	}
	return steps, rows.Err()
}

// StaleRunning lists RUNNING runs started before the cutoff.
func (r *Repository) StaleRunning(ctx context.Context, cutoff time.Time) ([]*domain.AgentRun, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, runSelect+` WHERE status = $1 AND started_at < $2 ORDER BY started_at`, string(domain.StatusRunning), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*domain.AgentRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*domain.AgentRun, error) {
	var (
		idStr, component, status, failReason string
		sectorStr                            *string
		startedAt, createdAt, updatedAt      time.Time
		finishedAt                           *time.Time
		nextStep                             int
	)
	if err := row.Scan(&idStr, &component, &sectorStr, &status, &startedAt, &finishedAt, &failReason, &nextStep, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	var sectorID *uuid.UUID
	if sectorStr != nil {
		parsed, err := uuid.Parse(*sectorStr)
		if err != nil {
			return nil, err
		}
		sectorID = &parsed
	}

	return domain.RehydrateAgentRun(
		id, component, sectorID,
		domain.RunStatus(status),
		startedAt, finishedAt, failReason, nextStep,
		createdAt, updatedAt,
	), nil
}
