package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	"github.com/hotelops/roster/internal/schedule/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	statsDomain "github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Generator turns per-day demand into a shift plan.
type Generator struct {
	repo          domain.Repository
	distributions statsDomain.DistributionLookup
	uow           sharedApplication.UnitOfWork
	logger        *slog.Logger
}

// NewGenerator creates a schedule generator.
func NewGenerator(repo domain.Repository, distributions statsDomain.DistributionLookup, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{repo: repo, distributions: distributions, uow: uow, logger: logger}
}

// Generate builds a plan for the run's horizon from its demand rows. For
// ADJUSTMENT plans the baseline link is mandatory and the delta against it is
// recorded.
func (g *Generator) Generate(ctx context.Context, pctx *pipeline.Context, run *forecastDomain.ForecastRun, demand []*demandDomain.DemandDaily, kind domain.PlanKind, baselinePlanID *uuid.UUID) (*domain.SchedulePlan, error) {
	plan, err := domain.NewSchedulePlan(run.SectorID(), run.ID(), run.HorizonStart(), kind, baselinePlanID)
	if err != nil {
		return nil, err
	}
	params := run.Snapshot().Parameters

	for _, day := range demand {
		if err := g.generateDay(ctx, pctx, plan, params, day); err != nil {
			return nil, err
		}
	}
	plan.SetCoverage(coverage(plan.Slots()))

	if kind == domain.PlanAdjustment {
		baseline, err := g.repo.FindPlan(ctx, *baselinePlanID)
		if err != nil {
			return nil, err
		}
		if baseline == nil {
			return nil, &sharedDomain.NotFoundError{Entity: "baseline plan", Ref: baselinePlanID.String()}
		}
		plan.SetDelta(domain.DeltaVsBaseline{
			HeadcountDelta: plan.Totals().Headcount - baseline.Totals().Headcount,
			HoursDelta:     plan.Totals().Hours - baseline.Totals().Hours,
		})
	}

	err = sharedApplication.WithUnitOfWork(ctx, g.uow, func(txCtx context.Context) error {
		if err := g.repo.SavePlan(txCtx, plan); err != nil {
			return err
		}
		for _, slot := range plan.Slots() {
			if err := g.repo.SaveSlot(txCtx, slot); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	g.logger.InfoContext(ctx, "schedule plan generated",
		"plan_id", plan.ID(),
		"kind", kind,
		"slots", plan.Totals().Headcount,
	)
	return plan, nil
}

func (g *Generator) generateDay(ctx context.Context, pctx *pipeline.Context, plan *domain.SchedulePlan, params workforce.SectorParameters, day *demandDomain.DemandDaily) error {
	headcount := day.HeadcountRounded
	if headcount <= 0 {
		return nil
	}
	weekday := workforce.WeekdayOf(day.TargetDate)

	checkoutShares, err := g.distributions.SharesFor(ctx, datalakeDomain.EventCheckOut, weekday)
	if err != nil {
		return err
	}
	checkinShares, err := g.distributions.SharesFor(ctx, datalakeDomain.EventCheckIn, weekday)
	if err != nil {
		return err
	}
	morningW, afternoonW := domain.SplitWeights(checkoutShares, checkinShares)
	ratio := domain.MorningRatio(morningW, afternoonW)
	morningCount, afternoonCount := domain.SplitHeadcount(headcount, ratio)

	morning, afternoon := shiftTemplates(params)
	counts := []struct {
		template workforce.ShiftTemplate
		count    int
	}{
		{morning, morningCount},
		{afternoon, afternoonCount},
	}
	for _, entry := range counts {
		template := overrideFor(params, weekday, entry.template)
		lunchStart, lunchEnd := domain.LunchWindow(template, params.Lunch, pctx.Constraints.LunchMinutes)
		for i := 0; i < entry.count; i++ {
			plan.AddSlot(domain.NewShiftSlot(plan.ID(), day.TargetDate, template, lunchStart, lunchEnd))
		}
	}

	pctx.Trace(ctx, "schedule.day", map[string]any{
		"target_date":     day.TargetDate.Format(time.DateOnly),
		"headcount":       headcount,
		"morning_ratio":   ratio,
		"morning_count":   morningCount,
		"afternoon_count": afternoonCount,
	})
	return nil
}

// shiftTemplates picks the morning and afternoon templates, falling back to
// the stock pair when the sector configures fewer than two.
func shiftTemplates(params workforce.SectorParameters) (morning, afternoon workforce.ShiftTemplate) {
	templates := params.ShiftTemplates
	if len(templates) < 2 {
		defaults := workforce.DefaultShiftTemplates()
		if len(templates) == 1 {
			return templates[0], defaults[1]
		}
		return defaults[0], defaults[1]
	}
	return templates[0], templates[1]
}

// overrideFor applies a MANDATORY weekday override to a template's window.
// Advisory overrides never change generated slots.
func overrideFor(params workforce.SectorParameters, weekday workforce.Weekday, template workforce.ShiftTemplate) workforce.ShiftTemplate {
	for _, override := range params.ShiftOverrides {
		if !override.Mandatory || override.Weekday != weekday || override.TemplateName != template.Name {
			continue
		}
		template.Start = override.Start
		template.End = override.End
		return template
	}
	return template
}

// coverage aggregates per-hour worker presence over the operating day.
func coverage(slots []*domain.ShiftSlot) map[int]int {
	byHour := map[int]int{}
	for h := 6; h <= 23; h++ {
		for _, slot := range slots {
			if slot.CoversHour(h) {
				byHour[h]++
			}
		}
	}
	return byHour
}
