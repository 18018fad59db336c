package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	assignmentApplication "github.com/hotelops/roster/internal/assignment/application"
	"github.com/hotelops/roster/internal/convocation/domain"
	"github.com/hotelops/roster/internal/pipeline"
	scheduleDomain "github.com/hotelops/roster/internal/schedule/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/eventbus"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Service runs the convocation lifecycle. Legal validation happens at
// creation time and the outcome is stored on the row; terminal statuses are
// immutable.
type Service struct {
	repo     domain.Repository
	plans    scheduleDomain.Repository
	assigner *assignmentApplication.Engine
	uow      sharedApplication.UnitOfWork
	bus      eventbus.Publisher
	logger   *slog.Logger
}

// NewService creates a convocation service.
func NewService(repo domain.Repository, plans scheduleDomain.Repository, assigner *assignmentApplication.Engine, uow sharedApplication.UnitOfWork, bus eventbus.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, plans: plans, assigner: assigner, uow: uow, bus: bus, logger: logger}
}

// CreateInput describes one convocation to send.
type CreateInput struct {
	EmployeeID   uuid.UUID
	SectorID     uuid.UUID
	PlanID       uuid.UUID
	SlotID       uuid.UUID
	TargetDate   time.Time
	Start        workforce.TimeOfDay
	End          workforce.TimeOfDay
	BreakMinutes int
	Origin       domain.ConvocationOrigin
	// Replaces links a RESCHEDULE convocation back to its predecessor.
	Replaces *uuid.UUID
}

// Create validates the invitation first. Blocking errors abort with the
// validation returned alongside a nil convocation; warnings are stored on the
// persisted row.
func (s *Service) Create(ctx context.Context, pctx *pipeline.Context, input CreateInput) (*domain.Convocation, domain.LegalValidation, error) {
	now := pctx.AsOf
	validation, err := s.validate(ctx, pctx, input, now)
	if err != nil {
		return nil, validation, err
	}
	if !validation.Passed {
		return nil, validation, nil
	}

	responseHours := pctx.Constraints.ResponseDeadlineHours
	if responseHours <= 0 {
		responseHours = 24
	}
	convocation := domain.NewConvocation(
		input.EmployeeID, input.SectorID, input.PlanID, input.SlotID,
		input.TargetDate, input.Start, input.End, input.BreakMinutes,
		input.Origin, now, responseHours, validation,
	)
	if input.Replaces != nil {
		convocation.MarkReplaces(*input.Replaces)
	}

	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		return s.repo.Save(txCtx, convocation)
	})
	if err != nil {
		return nil, validation, err
	}

	s.logger.InfoContext(ctx, "convocation sent",
		"convocation_id", convocation.ID(),
		"employee_id", input.EmployeeID,
		"target_date", input.TargetDate.Format(time.DateOnly),
		"deadline", convocation.ResponseDeadline(),
	)
	return convocation, validation, nil
}

// validate checks advance notice, hour caps over prior ACCEPTED convocations,
// rest between shifts, and the calendar convocation block.
func (s *Service) validate(ctx context.Context, pctx *pipeline.Context, input CreateInput, now time.Time) (domain.LegalValidation, error) {
	validation := domain.LegalValidation{Passed: true}
	add := func(finding sharedDomain.Finding) {
		if finding.Severity == sharedDomain.SeverityError {
			validation.Passed = false
			validation.Errors = append(validation.Errors, finding)
			return
		}
		validation.Warnings = append(validation.Warnings, finding)
	}

	shiftStart := workforce.NormalizeDate(input.TargetDate).Add(time.Duration(input.Start.Minutes()) * time.Minute)
	noticeHours := shiftStart.Sub(now).Hours()
	// Short notice warns without blocking; the caps and rest rules below are
	// the mandatory ones.
	if noticeHours < pctx.Constraints.AdvanceNoticeHours {
		add(sharedDomain.Finding{
			RuleCode: "advance-notice",
			Severity: sharedDomain.SeverityWarning,
			Subject:  input.SlotID.String(),
			Message: fmt.Sprintf("shift starts in %.1fh, minimum notice is %.0fh",
				noticeHours, pctx.Constraints.AdvanceNoticeHours),
		})
	}

	newHours := float64(input.End.Minutes()-input.Start.Minutes()-input.BreakMinutes) / 60
	// The weekly cap counts only the Monday..Sunday week of the target date;
	// the query spans one extra day on each side so the rest check still sees
	// shifts adjacent to the week boundary.
	weekStart := workforce.WeekStartOf(input.TargetDate)
	weekEnd := weekStart.AddDate(0, 0, 6)
	accepted, err := s.repo.AcceptedForEmployee(ctx, input.EmployeeID, weekStart.AddDate(0, 0, -1), weekEnd.AddDate(0, 0, 1))
	if err != nil {
		return validation, err
	}

	weeklyHours := newHours
	dailyHours := newHours
	for _, prior := range accepted {
		if !prior.TargetDate().Before(weekStart) && !prior.TargetDate().After(weekEnd) {
			weeklyHours += prior.TotalHours()
		}
		if prior.TargetDate().Equal(workforce.NormalizeDate(input.TargetDate)) {
			dailyHours += prior.TotalHours()
		}
	}
	if weeklyHours > pctx.Constraints.MaxWeeklyHours {
		add(sharedDomain.Finding{
			RuleCode: "max-weekly-hours",
			Severity: sharedDomain.SeverityError,
			Subject:  input.EmployeeID.String(),
			Message: fmt.Sprintf("accepted hours would reach %.1fh, weekly cap is %.1fh",
				weeklyHours, pctx.Constraints.MaxWeeklyHours),
		})
	}
	if dailyHours > pctx.Constraints.MaxDailyHours {
		add(sharedDomain.Finding{
			RuleCode: "max-daily-hours",
			Severity: sharedDomain.SeverityError,
			Subject:  input.EmployeeID.String(),
			Message: fmt.Sprintf("accepted hours on %s would reach %.1fh, daily cap is %.1fh",
				input.TargetDate.Format(time.DateOnly), dailyHours, pctx.Constraints.MaxDailyHours),
		})
	}

	if rest := s.shortestRest(accepted, input); rest != nil && *rest < pctx.Constraints.MinRestHours {
		add(sharedDomain.Finding{
			RuleCode: "min-rest-between-shifts",
			Severity: sharedDomain.SeverityError,
			Subject:  input.EmployeeID.String(),
			Message: fmt.Sprintf("only %.1fh of rest from the adjacent accepted shift, minimum is %.1fh",
				*rest, pctx.Constraints.MinRestHours),
		})
	}

	factors, err := pctx.Calendar.Factors(ctx, input.TargetDate, input.SectorID)
	if err == nil && factors.BlockConvocations {
		add(sharedDomain.Finding{
			RuleCode: "calendar-block",
			Severity: sharedDomain.SeverityError,
			Subject:  input.TargetDate.Format(time.DateOnly),
			Message:  "convocations are blocked on this date by a calendar event",
		})
	}
	return validation, nil
}

// shortestRest measures the smallest gap in hours between the candidate shift
// and the employee's adjacent accepted shifts. Nil when no neighbor exists.
func (s *Service) shortestRest(accepted []*domain.Convocation, input CreateInput) *float64 {
	newStart := workforce.NormalizeDate(input.TargetDate).Add(time.Duration(input.Start.Minutes()) * time.Minute)
	newEnd := workforce.NormalizeDate(input.TargetDate).Add(time.Duration(input.End.Minutes()) * time.Minute)

	var shortest *float64
	for _, prior := range accepted {
		priorStart := prior.TargetDate().Add(time.Duration(prior.Start().Minutes()) * time.Minute)
		priorEnd := prior.TargetDate().Add(time.Duration(prior.End().Minutes()) * time.Minute)

		var gap float64
		switch {
		case !priorEnd.After(newStart):
			gap = newStart.Sub(priorEnd).Hours()
		case !newEnd.After(priorStart):
			gap = priorStart.Sub(newEnd).Hours()
		default:
			gap = 0 // overlapping shifts
		}
		if shortest == nil || gap < *shortest {
			shortest = &gap
		}
	}
	return shortest
}

// Accept marks a PENDING convocation accepted.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, now time.Time) (*domain.Convocation, error) {
	return s.respond(ctx, id, func(c *domain.Convocation) error { return c.Accept(now) })
}

// Decline marks a PENDING convocation declined. With autoReschedule the slot
// is reassigned to another employee and a RESCHEDULE successor is linked.
func (s *Service) Decline(ctx context.Context, pctx *pipeline.Context, id uuid.UUID, now time.Time, autoReschedule bool) (*domain.Convocation, *domain.Convocation, error) {
	declined, err := s.respond(ctx, id, func(c *domain.Convocation) error { return c.Decline(now) })
	if err != nil {
		return nil, nil, err
	}
	if !autoReschedule {
		return declined, nil, nil
	}
	successor, err := s.reschedule(ctx, pctx, declined)
	if err != nil {
		return declined, nil, err
	}
	return declined, successor, nil
}

func (s *Service) respond(ctx context.Context, id uuid.UUID, transition func(*domain.Convocation) error) (*domain.Convocation, error) {
	var convocation *domain.Convocation
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return &sharedDomain.NotFoundError{Entity: "convocation", Ref: id.String()}
		}
		if err := transition(found); err != nil {
			return err
		}
		convocation = found
		return s.repo.Save(txCtx, found)
	})
	if err != nil {
		return nil, err
	}

	if err := eventbus.PublishEvents(ctx, s.bus, convocation.DomainEvents()); err != nil {
		s.logger.WarnContext(ctx, "convocation event publish failed", "error", err)
	}
	convocation.ClearDomainEvents()
	return convocation, nil
}

// reschedule reassigns the declined slot to another employee and sends the
// successor convocation, linking the chain both ways.
func (s *Service) reschedule(ctx context.Context, pctx *pipeline.Context, predecessor *domain.Convocation) (*domain.Convocation, error) {
	exclude := map[uuid.UUID]bool{predecessor.EmployeeID(): true}
	replacementEmployee, err := s.assigner.AssignSlot(ctx, pctx, predecessor.PlanID(), predecessor.SlotID(), exclude)
	if err != nil {
		return nil, err
	}
	if replacementEmployee == nil {
		s.logger.WarnContext(ctx, "no replacement candidate for declined slot",
			"convocation_id", predecessor.ID(),
			"slot_id", predecessor.SlotID(),
		)
		return nil, nil
	}

	successor, validation, err := s.Create(ctx, pctx, CreateInput{
		EmployeeID:   *replacementEmployee,
		SectorID:     predecessor.SectorID(),
		PlanID:       predecessor.PlanID(),
		SlotID:       predecessor.SlotID(),
		TargetDate:   predecessor.TargetDate(),
		Start:        predecessor.Start(),
		End:          predecessor.End(),
		BreakMinutes: predecessor.BreakMinutes(),
		Origin:       domain.OriginReschedule,
		Replaces:     ptr(predecessor.ID()),
	})
	if err != nil {
		return nil, err
	}
	if successor == nil {
		s.logger.WarnContext(ctx, "replacement convocation blocked by validation",
			"slot_id", predecessor.SlotID(),
			"errors", len(validation.Errors),
		)
		return nil, nil
	}

	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if err := predecessor.LinkReplacement(successor.ID()); err != nil {
			return err
		}
		return s.repo.Save(txCtx, predecessor)
	})
	if err != nil {
		return nil, err
	}
	return successor, nil
}

// ExpireDue sweeps PENDING convocations past their deadline and reschedules
// each expired slot.
func (s *Service) ExpireDue(ctx context.Context, pctx *pipeline.Context, now time.Time) (int, error) {
	due, err := s.repo.PendingExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, convocation := range due {
		err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
			if err := convocation.Expire(now); err != nil {
				return err
			}
			return s.repo.Save(txCtx, convocation)
		})
		if err != nil {
			s.logger.WarnContext(ctx, "expiry failed", "convocation_id", convocation.ID(), "error", err)
			continue
		}
		if err := eventbus.PublishEvents(ctx, s.bus, convocation.DomainEvents()); err != nil {
			s.logger.WarnContext(ctx, "convocation event publish failed", "error", err)
		}
		convocation.ClearDomainEvents()
		expired++

		if _, err := s.reschedule(ctx, pctx, convocation); err != nil {
			s.logger.WarnContext(ctx, "reschedule after expiry failed", "convocation_id", convocation.ID(), "error", err)
		}
	}

	if expired > 0 {
		s.logger.InfoContext(ctx, "convocations expired", "count", expired)
	}
	return expired, nil
}

// FinalizePlan moves a schedule plan from DRAFT to FINAL. Under intermittent
// mode every assigned slot must already carry a formal convocation (PENDING
// or ACCEPTED); finalizing bare assignments would stand up a fixed roster,
// which the mode forbids.
func (s *Service) FinalizePlan(ctx context.Context, pctx *pipeline.Context, planID uuid.UUID) (*scheduleDomain.SchedulePlan, error) {
	var plan *scheduleDomain.SchedulePlan
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		found, err := s.plans.FindPlan(txCtx, planID)
		if err != nil {
			return err
		}
		if found == nil {
			return &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
		}

		if pctx.IntermittentMode() {
			convocations, err := s.repo.Find(txCtx, domain.Filter{PlanID: &planID})
			if err != nil {
				return err
			}
			covered := map[uuid.UUID]bool{}
			for _, convocation := range convocations {
				if convocation.Status() == domain.StatusPending || convocation.Status() == domain.StatusAccepted {
					covered[convocation.SlotID()] = true
				}
			}
			var blocking []sharedDomain.Finding
			for _, slot := range found.Slots() {
				if slot.IsAssigned() && !covered[slot.ID()] {
					blocking = append(blocking, sharedDomain.Finding{
						RuleCode: "formal-convocation-required",
						Severity: sharedDomain.SeverityError,
						Subject:  slot.ID().String(),
						Message: fmt.Sprintf("assigned slot on %s has no convocation; intermittent work requires one",
							slot.TargetDate().Format(time.DateOnly)),
					})
				}
			}
			if len(blocking) > 0 {
				return &sharedDomain.ValidationError{Op: "convocation.finalize", Blocking: blocking}
			}
		}

		if err := found.Finalize(); err != nil {
			return err
		}
		plan = found
		return s.plans.SavePlan(txCtx, found)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "plan finalized", "plan_id", planID)
	return plan, nil
}

// Cancel cancels a PENDING convocation with the reason stored.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*domain.Convocation, error) {
	return s.respond(ctx, id, func(c *domain.Convocation) error { return c.Cancel(reason) })
}

// List returns convocations matching the filter.
func (s *Service) List(ctx context.Context, filter domain.Filter) ([]*domain.Convocation, error) {
	return s.repo.Find(ctx, filter)
}

// Get loads one convocation by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Convocation, error) {
	return s.repo.FindByID(ctx, id)
}

func ptr[T any](v T) *T { return &v }
