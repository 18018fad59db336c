package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/schedule/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Repository implements domain.Repository. Totals, coverage, validations,
// and the baseline delta share one JSON payload column.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a schedule repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

type planPayload struct {
	Totals      domain.PlanTotals       `json:"totals"`
	Coverage    map[int]int             `json:"coverage_by_hour,omitempty"`
	Validations []sharedDomain.Finding  `json:"validations,omitempty"`
	Delta       *domain.DeltaVsBaseline `json:"delta_vs_baseline,omitempty"`
}

// SavePlan upserts a plan row.
func (r *Repository) SavePlan(ctx context.Context, plan *domain.SchedulePlan) error {
	payload, err := json.Marshal(planPayload{
		Totals:      plan.Totals(),
		Coverage:    plan.CoverageByHour(),
		Validations: plan.Validations(),
		Delta:       plan.Delta(),
	})
	if err != nil {
		return err
	}
	var baselineStr *string
	if plan.BaselinePlanID() != nil {
		s := plan.BaselinePlanID().String()
		baselineStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO schedule_plans (
			id, sector_id, forecast_run_id, week_start, week_end,
			kind, baseline_plan_id, status, payload, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		plan.ID().String(),
		plan.SectorID().String(),
		plan.ForecastRunID().String(),
		plan.WeekStart(),
		plan.WeekEnd(),
		string(plan.Kind()),
		baselineStr,
		string(plan.Status()),
		string(payload),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	return err
}

const planSelect = `
	SELECT id, sector_id, forecast_run_id, week_start, week_end,
	       kind, baseline_plan_id, status, payload, created_at, updated_at
	FROM schedule_plans
`

// FindPlan retrieves a plan with its slots attached. Nil when absent.
func (r *Repository) FindPlan(ctx context.Context, id uuid.UUID) (*domain.SchedulePlan, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, planSelect+` WHERE id = $1`, id.String())
	plan, err := scanPlan(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.withSlots(ctx, plan)
}

// LatestPlan returns the newest non-cancelled plan of a kind for a week.
func (r *Repository) LatestPlan(ctx context.Context, sectorID uuid.UUID, weekStart time.Time, kind domain.PlanKind) (*domain.SchedulePlan, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, planSelect+`
		WHERE sector_id = $1 AND week_start = $2 AND kind = $3 AND status != $4
		ORDER BY created_at DESC
		LIMIT 1
	`, sectorID.String(), weekStart, string(kind), string(domain.PlanCancelled))
	plan, err := scanPlan(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return r.withSlots(ctx, plan)
}

func (r *Repository) withSlots(ctx context.Context, plan *domain.SchedulePlan) (*domain.SchedulePlan, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, slotSelect+` WHERE plan_id = $1 ORDER BY target_date, start_minutes, id`, plan.ID().String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []*domain.ShiftSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	plan.AttachSlots(slots)
	return plan, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPlan(row scannable) (*domain.SchedulePlan, error) {
	var (
		idStr, sectorStr, runStr, kind, status string
		baselineStr                            *string
		weekStart, weekEnd                     time.Time
		payloadJSON                            string
		createdAt, updatedAt                   time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &runStr, &weekStart, &weekEnd,
		&kind, &baselineStr, &status, &payloadJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	sectorID, err := uuid.Parse(sectorStr)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.Parse(runStr)
	if err != nil {
		return nil, err
	}
	var baselineID *uuid.UUID
	if baselineStr != nil {
		parsed, err := uuid.Parse(*baselineStr)
		if err != nil {
			return nil, err
		}
		baselineID = &parsed
	}
	var payload planPayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, err
	}

	return domain.RehydrateSchedulePlan(
		id, sectorID, runID, weekStart, weekEnd,
		domain.PlanKind(kind), baselineID, domain.PlanStatus(status),
		payload.Totals, payload.Coverage, payload.Validations, payload.Delta,
		createdAt, updatedAt,
	), nil
}

const slotSelect = `
	SELECT id, plan_id, target_date, template_name, template_tag,
	       start_minutes, end_minutes, lunch_start_minutes, lunch_end_minutes,
	       employee_id, is_assigned, created_at, updated_at
	FROM shift_slots
`

// SaveSlot upserts a slot.
func (r *Repository) SaveSlot(ctx context.Context, slot *domain.ShiftSlot) error {
	var lunchStart, lunchEnd *int
	if slot.LunchStart() != nil {
		m := slot.LunchStart().Minutes()
		lunchStart = &m
	}
	if slot.LunchEnd() != nil {
		m := slot.LunchEnd().Minutes()
		lunchEnd = &m
	}
	var employeeStr *string
	if slot.EmployeeID() != nil {
		s := slot.EmployeeID().String()
		employeeStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO shift_slots (
			id, plan_id, target_date, template_name, template_tag,
			start_minutes, end_minutes, lunch_start_minutes, lunch_end_minutes,
			employee_id, is_assigned, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			start_minutes = EXCLUDED.start_minutes,
			end_minutes = EXCLUDED.end_minutes,
			lunch_start_minutes = EXCLUDED.lunch_start_minutes,
			lunch_end_minutes = EXCLUDED.lunch_end_minutes,
			employee_id = EXCLUDED.employee_id,
			is_assigned = EXCLUDED.is_assigned,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		slot.ID().String(),
		slot.PlanID().String(),
		slot.TargetDate(),
		slot.TemplateName(),
		slot.TemplateTag(),
		slot.Start().Minutes(),
		slot.End().Minutes(),
		lunchStart,
		lunchEnd,
		employeeStr,
		slot.IsAssigned(),
		slot.CreatedAt(),
		slot.UpdatedAt(),
	)
	return err
}

// DeleteSlot removes a slot.
func (r *Repository) DeleteSlot(ctx context.Context, slotID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `DELETE FROM shift_slots WHERE id = $1`, slotID.String())
	return err
}

// SlotCountOn counts a plan's slots for one date.
func (r *Repository) SlotCountOn(ctx context.Context, planID uuid.UUID, date time.Time) (int, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `SELECT COUNT(*) FROM shift_slots WHERE plan_id = $1 AND target_date = $2`, planID.String(), date)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanSlot(row scannable) (*domain.ShiftSlot, error) {
	var (
		idStr, planStr, templateName, templateTag string
		targetDate                                time.Time
		startMinutes, endMinutes                  int
		lunchStartMinutes, lunchEndMinutes        *int
		employeeStr                               *string
		isAssigned                                bool
		createdAt, updatedAt                      time.Time
	)
	if err := row.Scan(&idStr, &planStr, &targetDate, &templateName, &templateTag,
		&startMinutes, &endMinutes, &lunchStartMinutes, &lunchEndMinutes,
		&employeeStr, &isAssigned, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	planID, err := uuid.Parse(planStr)
	if err != nil {
		return nil, err
	}
	var lunchStart, lunchEnd *workforce.TimeOfDay
	if lunchStartMinutes != nil {
		t := workforce.TimeOfDay(*lunchStartMinutes)
		lunchStart = &t
	}
	if lunchEndMinutes != nil {
		t := workforce.TimeOfDay(*lunchEndMinutes)
		lunchEnd = &t
	}
	var employeeID *uuid.UUID
	if employeeStr != nil {
		parsed, err := uuid.Parse(*employeeStr)
		if err != nil {
			return nil, err
		}
		employeeID = &parsed
	}

	return domain.RehydrateShiftSlot(
		id, planID, targetDate, templateName, templateTag,
		workforce.TimeOfDay(startMinutes), workforce.TimeOfDay(endMinutes),
		lunchStart, lunchEnd, employeeID, isAssigned,
		createdAt, updatedAt,
	), nil
}

// SaveOverrideLog inserts an override log entry.
func (r *Repository) SaveOverrideLog(ctx context.Context, log *domain.OverrideLog) error {
	payload, err := json.Marshal(log)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err = exec.Exec(ctx, `
		INSERT INTO schedule_override_logs (id, plan_id, target_date, prior_count, new_count, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		log.ID.String(),
		log.PlanID.String(),
		log.TargetDate,
		log.PriorCount,
		log.NewCount,
		string(payload),
		log.CreatedAt,
	)
	return err
}
