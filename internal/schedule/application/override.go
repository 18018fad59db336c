package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/schedule/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// OverrideHeadcount manually forces a day's slot count. Decreases remove
// unassigned slots before assigned ones; increases add morning-template
// slots. The override log is written in the same transaction, and a final
// slot-count disagreement rolls everything back.
func (g *Generator) OverrideHeadcount(ctx context.Context, planID uuid.UUID, date time.Time, newCount int, reason string, params workforce.SectorParameters, lunchMinutes int) (*domain.OverrideLog, error) {
	if newCount < 0 {
		return nil, &sharedDomain.ValidationError{Op: "schedule.override", Blocking: []sharedDomain.Finding{{
			Severity: sharedDomain.SeverityError,
			Message:  "headcount cannot be negative",
		}}}
	}
	date = workforce.NormalizeDate(date)

	var log *domain.OverrideLog
	err := sharedApplication.WithUnitOfWork(ctx, g.uow, func(txCtx context.Context) error {
		plan, err := g.repo.FindPlan(txCtx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return &sharedDomain.NotFoundError{Entity: "schedule plan", Ref: planID.String()}
		}

		daySlots := plan.SlotsOn(date)
		log = &domain.OverrideLog{
			ID:         uuid.New(),
			PlanID:     planID,
			TargetDate: date,
			PriorCount: len(daySlots),
			NewCount:   newCount,
			Reason:     reason,
			CreatedAt:  time.Now().UTC(),
		}

		if newCount < len(daySlots) {
			toRemove := len(daySlots) - newCount
			// Unassigned slots go first; assigned ones only when unavoidable.
			for _, pass := range []bool{false, true} {
				for _, slot := range daySlots {
					if toRemove == 0 {
						break
					}
					if slot.IsAssigned() != pass {
						continue
					}
					if err := g.repo.DeleteSlot(txCtx, slot.ID()); err != nil {
						return err
					}
					plan.RemoveSlot(slot.ID())
					log.RemovedSlots = append(log.RemovedSlots, slot.ID())
					toRemove--
				}
			}
		} else if newCount > len(daySlots) {
			morning, _ := shiftTemplates(params)
			lunchStart, lunchEnd := domain.LunchWindow(morning, params.Lunch, lunchMinutes)
			for i := len(daySlots); i < newCount; i++ {
				slot := domain.NewShiftSlot(planID, date, morning, lunchStart, lunchEnd)
				if err := g.repo.SaveSlot(txCtx, slot); err != nil {
					return err
				}
				plan.AddSlot(slot)
				log.AddedSlots = append(log.AddedSlots, slot.ID())
			}
		}

		if err := g.repo.SaveOverrideLog(txCtx, log); err != nil {
			return err
		}
		if err := g.repo.SavePlan(txCtx, plan); err != nil {
			return err
		}

		count, err := g.repo.SlotCountOn(txCtx, planID, date)
		if err != nil {
			return err
		}
		if count != newCount {
			return &sharedDomain.IntegrityError{
				Invariant: "slot count matches override",
				Detail:    fmt.Sprintf("expected %d slots on %s, found %d", newCount, date.Format(time.DateOnly), count),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "headcount overridden",
		"plan_id", planID,
		"date", date.Format(time.DateOnly),
		"new_count", newCount,
	)
	return log, nil
}
