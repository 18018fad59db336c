package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/pipeline"
	scheduleApplication "github.com/hotelops/roster/internal/schedule/application"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Engine binds employees to unassigned slots. Scoring favors the employee
// with the fewest accumulated weekly hours, then the longest idle time,
// specialization match, and variety over repeating the same weekday/template
// pattern. Ties resolve toward the lowest employee id.
type Engine struct {
	plans     scheduleDomain.Repository
	employees workforce.EmployeeRepository
	uow       sharedApplication.UnitOfWork
	logger    *slog.Logger
}

// NewEngine creates an assignment engine.
func NewEngine(plans scheduleDomain.Repository, employees workforce.EmployeeRepository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{plans: plans, employees: employees, uow: uow, logger: logger}
}

// EmployeeMetrics summarizes one employee after an assignment pass.
type EmployeeMetrics struct {
	EmployeeID    uuid.UUID `json:"employee_id"`
	Name          string    `json:"name"`
	SlotsAssigned int       `json:"slots_assigned"`
	WeeklyHours   float64   `json:"weekly_hours"`
}

// Result is one assignment pass outcome.
type Result struct {
	FilledSlots int                                   `json:"filled_slots"`
	Preview     []scheduleApplication.PreviewEmployee `json:"convocation_preview"`
	Metrics     []EmployeeMetrics                     `json:"per_employee_metrics"`
	Violations  []sharedDomain.Finding                `json:"violations,omitempty"`
}

// Assign fills a plan's unassigned slots for one week.
func (e *Engine) Assign(ctx context.Context, pctx *pipeline.Context, planID uuid.UUID) (*Result, error) {
	result := &Result{}
	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		plan, err := e.plans.FindPlan(txCtx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
		}

		pool, err := e.employees.FindActiveBySector(txCtx, plan.SectorID())
		if err != nil {
			return err
		}

		for _, slot := range plan.Slots() {
			if slot.IsAssigned() {
				continue
			}
			chosen, violations := e.pickCandidate(ctx, pctx, pool, slot)
			result.Violations = append(result.Violations, violations...)
			if chosen == nil {
				continue
			}

			slot.Assign(chosen.ID())
			chosen.RecordAssignment(slot.StartsAt(), slot.TemplateName(), workforce.WeekdayOf(slot.TargetDate()), slot.HoursWorked())
			if err := e.plans.SaveSlot(txCtx, slot); err != nil {
				return err
			}
			if err := e.employees.Save(txCtx, chosen); err != nil {
				return err
			}
			result.FilledSlots++
		}

		validations := scheduleApplication.ValidateLegal(plan, pctx.Constraints, pctx.AsOf)
		plan.SetValidations(validations)
		if err := e.plans.SavePlan(txCtx, plan); err != nil {
			return err
		}

		result.Preview = scheduleApplication.ConvocationPreview(plan, validations)
		for _, employee := range pool {
			metrics := EmployeeMetrics{
				EmployeeID:  employee.ID(),
				Name:        employee.Name(),
				WeeklyHours: employee.History().WeeklyHours,
			}
			for _, slot := range plan.Slots() {
				if slot.EmployeeID() != nil && *slot.EmployeeID() == employee.ID() {
					metrics.SlotsAssigned++
				}
			}
			result.Metrics = append(result.Metrics, metrics)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "slots assigned",
		"plan_id", planID,
		"filled", result.FilledSlots,
	)
	return result, nil
}

// AssignSlot fills a single slot (decline reschedules use this path).
func (e *Engine) AssignSlot(ctx context.Context, pctx *pipeline.Context, planID, slotID uuid.UUID, exclude map[uuid.UUID]bool) (*uuid.UUID, error) {
	var assigned *uuid.UUID
	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		plan, err := e.plans.FindPlan(txCtx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
		}
		var slot *scheduleDomain.ShiftSlot
		for _, s := range plan.Slots() {
			if s.ID() == slotID {
				slot = s
				break
			}
		}
		if slot == nil {
			return &sharedDomain.NotFoundError{Entity: "shift slot", Ref: slotID.String()}
		}

		pool, err := e.employees.FindActiveBySector(txCtx, plan.SectorID())
		if err != nil {
			return err
		}
		filtered := pool[:0]
		for _, employee := range pool {
			if !exclude[employee.ID()] {
				filtered = append(filtered, employee)
			}
		}

		chosen, _ := e.pickCandidate(ctx, pctx, filtered, slot)
		if chosen == nil {
			return nil
		}
		slot.Assign(chosen.ID())
		chosen.RecordAssignment(slot.StartsAt(), slot.TemplateName(), workforce.WeekdayOf(slot.TargetDate()), slot.HoursWorked())
		if err := e.plans.SaveSlot(txCtx, slot); err != nil {
			return err
		}
		if err := e.employees.Save(txCtx, chosen); err != nil {
			return err
		}
		id := chosen.ID()
		assigned = &id
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assigned, nil
}

// pickCandidate filters and scores the pool for one slot.
func (e *Engine) pickCandidate(ctx context.Context, pctx *pipeline.Context, pool []*workforce.Employee, slot *scheduleDomain.ShiftSlot) (*workforce.Employee, []sharedDomain.Finding) {
	var violations []sharedDomain.Finding
	type scored struct {
		employee *workforce.Employee
		score    float64
	}
	var candidates []scored

	for _, employee := range pool {
		if employee.IsUnavailableOn(slot.TargetDate()) {
			continue
		}
		// Intermittent mode staffs exclusively through convocable on-call
		// workers; routing a fixed-schedule contract through the planner
		// would stand up a fixed roster.
		if pctx.IntermittentMode() && employee.Contract() == workforce.ContractPermanent {
			violations = append(violations, sharedDomain.Finding{
				RuleCode: "fixed-schedule-blocked",
				Severity: sharedDomain.SeverityWarning,
				Subject:  employee.ID().String(),
				Message: fmt.Sprintf("skipped for slot on %s: permanent contracts are not plannable under intermittent mode",
					slot.TargetDate().Format(time.DateOnly)),
			})
			continue
		}
		// MANDATORY gate: the slot's hours may not push the employee over
		// the weekly cap.
		weeklyCap := employee.WeeklyHourCap()
		if weeklyCap <= 0 || weeklyCap > pctx.Constraints.MaxWeeklyHours {
			weeklyCap = pctx.Constraints.MaxWeeklyHours
		}
		if employee.History().WeeklyHours+slot.HoursWorked() > weeklyCap {
			violations = append(violations, sharedDomain.Finding{
				RuleCode: "max-weekly-hours",
				Severity: sharedDomain.SeverityWarning,
				Subject:  employee.ID().String(),
				Message: fmt.Sprintf("skipped for slot on %s: weekly cap %.1fh would be exceeded",
					slot.TargetDate().Format(time.DateOnly), weeklyCap),
			})
			continue
		}
		candidates = append(candidates, scored{employee: employee, score: e.score(pctx, employee, slot)})
	}
	if len(candidates) == 0 {
		return nil, violations
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].employee.ID().String() < candidates[j].employee.ID().String()
	})
	chosen := candidates[0].employee

	pctx.Trace(ctx, "assignment.slot", map[string]any{
		"slot_id":       slot.ID().String(),
		"target_date":   slot.TargetDate().Format(time.DateOnly),
		"employee_id":   chosen.ID().String(),
		"applied_rules": []string{"max-weekly-hours"},
		"calculations": map[string]any{
			"score":        candidates[0].score,
			"weekly_hours": chosen.History().WeeklyHours,
			"candidates":   len(candidates),
		},
		"constraints_violated": len(violations),
	})
	return chosen, violations
}

// score ranks a candidate for a slot; higher wins.
func (e *Engine) score(pctx *pipeline.Context, employee *workforce.Employee, slot *scheduleDomain.ShiftSlot) float64 {
	history := employee.History()

	// Fewest accumulated weekly hours dominates.
	score := (pctx.Constraints.MaxWeeklyHours - history.WeeklyHours) * 100

	// Fairness: longer idle time scores higher, capped at two weeks.
	if history.LastAssignedAt != nil {
		idleHours := pctx.AsOf.Sub(*history.LastAssignedAt).Hours()
		if idleHours > 336 {
			idleHours = 336
		}
		score += idleHours / 10
	} else {
		score += 50
	}

	if slot.TemplateTag() != "" && employee.HasSpecialization(slot.TemplateTag()) {
		score += 25
	}

	// Declining penalty for repeating the same (weekday, template) pattern.
	if history.LastWeekday != nil && *history.LastWeekday == workforce.WeekdayOf(slot.TargetDate()) &&
		history.LastTemplateName == slot.TemplateName() {
		score -= 15
	}
	return score
}
