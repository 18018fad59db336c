package application

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/demand/domain"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// methodVersion tags the breakdown documents this engine emits.
const methodVersion = "demand-v2"

// Engine computes per-day staffing demand from a forecast run. All inputs are
// taken from the run's frozen sector snapshot so recomputation against the
// same run is reproducible.
type Engine struct {
	repo       domain.Repository
	lake       datalakeDomain.Store
	activities workforce.ActivityRepository
	rules      rulesDomain.Repository
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewEngine creates a demand engine.
func NewEngine(repo domain.Repository, lake datalakeDomain.Store, activities workforce.ActivityRepository, rules rulesDomain.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{repo: repo, lake: lake, activities: activities, rules: rules, uow: uow, logger: logger}
}

// ComputeForRun replaces the run's demand rows with freshly computed ones.
func (e *Engine) ComputeForRun(ctx context.Context, pctx *pipeline.Context, run *forecastDomain.ForecastRun, forecastDailies []*forecastDomain.ForecastDaily) ([]*domain.DemandDaily, error) {
	params := run.Snapshot().Parameters

	constants, err := e.constantActivities(ctx, run)
	if err != nil {
		return nil, err
	}
	demandRules, err := e.rules.CalculationRules(ctx, run.SectorID(), rulesDomain.ScopeDemand)
	if err != nil {
		return nil, err
	}
	adjustmentRules, err := e.rules.CalculationRules(ctx, run.SectorID(), rulesDomain.ScopeAdjustments)
	if err != nil {
		return nil, err
	}

	periodicities := map[uuid.UUID]*workforce.ActivityPeriodicity{}
	dailies := make([]*domain.DemandDaily, 0, len(forecastDailies))
	for _, forecastDay := range forecastDailies {
		daily, err := e.computeDay(ctx, pctx, run, params, forecastDay, constants, periodicities, demandRules, adjustmentRules)
		if err != nil {
			return nil, err
		}
		dailies = append(dailies, daily)
	}

	err = sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		if err := e.repo.DeleteForRun(txCtx, run.ID()); err != nil {
			return err
		}
		for _, daily := range dailies {
			if err := e.repo.SaveDaily(txCtx, daily); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "demand computed",
		"run_id", run.ID(),
		"days", len(dailies),
	)
	return dailies, nil
}

func (e *Engine) constantActivities(ctx context.Context, run *forecastDomain.ForecastRun) ([]*workforce.GovernanceActivity, error) {
	activities, err := e.activities.FindActiveBySector(ctx, run.SectorID())
	if err != nil {
		return nil, err
	}
	var constants []*workforce.GovernanceActivity
	for _, activity := range activities {
		if activity.Driver() == workforce.DriverConstant {
			constants = append(constants, activity)
		}
	}
	return constants, nil
}

// dueConstants keeps the constant activities programmed for one day. A
// RECURRING activity charges its minutes only on dates its periodicity makes
// due; other classifications charge daily.
func (e *Engine) dueConstants(ctx context.Context, date time.Time, activities []*workforce.GovernanceActivity, periodicities map[uuid.UUID]*workforce.ActivityPeriodicity) ([]domain.ConstantActivity, error) {
	var constants []domain.ConstantActivity
	for _, activity := range activities {
		if activity.Classification() == workforce.ClassificationRecurring {
			due, err := e.isDue(ctx, activity, date, periodicities)
			if err != nil {
				return nil, err
			}
			if !due {
				continue
			}
		}
		constants = append(constants, domain.ConstantActivity{
			ActivityID: activity.ID(),
			Name:       activity.Name(),
			Minutes:    activity.AverageMinutes(),
		})
	}
	return constants, nil
}

func (e *Engine) isDue(ctx context.Context, activity *workforce.GovernanceActivity, date time.Time, cache map[uuid.UUID]*workforce.ActivityPeriodicity) (bool, error) {
	if activity.PeriodicityID() == nil || activity.FirstExecution() == nil {
		return false, nil
	}
	periodicity, cached := cache[*activity.PeriodicityID()]
	if !cached {
		var err error
		periodicity, err = e.activities.FindPeriodicityByID(ctx, *activity.PeriodicityID())
		if err != nil {
			return false, err
		}
		cache[*activity.PeriodicityID()] = periodicity
	}
	if periodicity == nil {
		return false, nil
	}
	return periodicity.IsDueOn(date, *activity.FirstExecution(), activity.ToleranceDays()), nil
}

func (e *Engine) computeDay(
	ctx context.Context,
	pctx *pipeline.Context,
	run *forecastDomain.ForecastRun,
	params workforce.SectorParameters,
	forecastDay *forecastDomain.ForecastDaily,
	constantPool []*workforce.GovernanceActivity,
	periodicities map[uuid.UUID]*workforce.ActivityPeriodicity,
	demandRules, adjustmentRules []*rulesDomain.SectorCalculationRule,
) (*domain.DemandDaily, error) {
	daily := domain.NewDemandDaily(run.ID(), forecastDay.TargetDate)
	weekday := workforce.WeekdayOf(forecastDay.TargetDate)

	constants, err := e.dueConstants(ctx, forecastDay.TargetDate, constantPool, periodicities)
	if err != nil {
		return nil, err
	}

	occupied := int(math.Round(float64(params.TotalRooms) * forecastDay.OccAdj / 100))
	daily.OccupiedRooms = occupied

	departures, departuresSource, err := e.countFor(ctx, forecastDay.TargetDate, datalakeDomain.EventCheckOut, occupied, params.TurnoverRates, workforce.DefaultTurnoverRates, weekday)
	if err != nil {
		return nil, err
	}
	daily.DeparturesCount, daily.DeparturesSource = departures, departuresSource

	arrivals, arrivalsSource, err := e.countFor(ctx, forecastDay.TargetDate, datalakeDomain.EventCheckIn, occupied, params.ArrivalRates, workforce.DefaultArrivalRates, weekday)
	if err != nil {
		return nil, err
	}
	daily.ArrivalsCount, daily.ArrivalsSource = arrivals, arrivalsSource

	stayovers := occupied - departures
	if stayovers < 0 {
		stayovers = 0
	}
	daily.StayoversEstimated = stayovers

	daily.MinutesVariable = float64(departures)*params.TimeVacantDirtyMin + float64(stayovers)*params.TimeStayoverMin
	for _, constant := range constants {
		daily.MinutesConstant += constant.Minutes
	}
	daily.MinutesRaw = daily.MinutesVariable + daily.MinutesConstant

	bufferPct := params.BufferPct
	if pctx.Constraints.BufferPct != nil {
		bufferPct = *pctx.Constraints.BufferPct
	}
	daily.MinutesBuffered = daily.MinutesRaw * (1 + bufferPct/100)

	factors, err := pctx.Calendar.Factors(ctx, forecastDay.TargetDate, run.SectorID())
	if err != nil {
		return nil, err
	}
	minutes := daily.MinutesBuffered * factors.DemandFactor

	inputs := map[string]float64{
		"occ_adj":        forecastDay.OccAdj,
		"occupied_rooms": float64(occupied),
		"departures":     float64(departures),
		"arrivals":       float64(arrivals),
		"stayovers":      float64(stayovers),
		"total_rooms":    float64(params.TotalRooms),
	}

	var applied []domain.AppliedRule
	for _, ruleSet := range [][]*rulesDomain.SectorCalculationRule{demandRules, adjustmentRules} {
		for _, rule := range ruleSet {
			matches, err := rule.Matches(inputs)
			if err != nil || !matches {
				continue
			}
			after, err := rule.ApplyTo(minutes)
			if err != nil {
				continue
			}
			applied = append(applied, domain.AppliedRule{
				RuleID:        rule.ID(),
				Scope:         string(rule.Scope()),
				Condition:     rule.Condition(),
				Action:        rule.Action(),
				MinutesBefore: minutes,
				MinutesAfter:  after,
			})
			minutes = after
		}
	}
	daily.MinutesFinal = minutes
	daily.HoursProductive = minutes / 60

	utilization := params.UtilizationTargetPct
	if pctx.Constraints.UtilizationTargetPct != nil {
		utilization = *pctx.Constraints.UtilizationTargetPct
	}
	adjustedUtilization := utilization * factors.ProductivityFactor
	if adjustedUtilization > 0 {
		daily.HoursTotal = daily.HoursProductive / (adjustedUtilization / 100)
	}
	if params.AvgShiftHours > 0 {
		daily.HeadcountRequired = daily.HoursTotal / params.AvgShiftHours
	}
	if daily.HeadcountRequired > 0 {
		daily.HeadcountRounded = int(math.Ceil(daily.HeadcountRequired))
	}

	daily.Breakdown = domain.Breakdown{
		Formula:       "headcount = ceil(((minutes_rule_adj / 60) / (utilization_adj / 100)) / avg_shift_hours)",
		MethodVersion: methodVersion,
		Inputs:        inputs,
		CalendarFactors: map[string]any{
			"productivity_factor": factors.ProductivityFactor,
			"demand_factor":       factors.DemandFactor,
			"block_convocations":  factors.BlockConvocations,
			"applied_events":      factors.AppliedEvents,
		},
		ConstantActivities: constants,
		AppliedRules:       applied,
		Calculations: map[string]float64{
			"minutes_variable":     daily.MinutesVariable,
			"minutes_constant":     daily.MinutesConstant,
			"minutes_raw":          daily.MinutesRaw,
			"buffer_pct":           bufferPct,
			"minutes_buffered":     daily.MinutesBuffered,
			"minutes_rule_adj":     daily.MinutesFinal,
			"hours_productive":     daily.HoursProductive,
			"adjusted_utilization": adjustedUtilization,
			"hours_total":          daily.HoursTotal,
			"headcount_required":   daily.HeadcountRequired,
			"headcount_rounded":    float64(daily.HeadcountRounded),
		},
	}

	pctx.Trace(ctx, "demand.day", map[string]any{
		"target_date":       forecastDay.TargetDate.Format(time.DateOnly),
		"occupied_rooms":    occupied,
		"departures_source": string(departuresSource),
		"headcount":         daily.HeadcountRounded,
	})
	return daily, nil
}

// countFor resolves a per-day event count through the three-tier fallback:
// real hourly aggregates, learned per-weekday rates, stock constants.
func (e *Engine) countFor(ctx context.Context, date time.Time, eventType datalakeDomain.EventType, occupied int, configured map[workforce.Weekday]float64, fallback [7]float64, weekday workforce.Weekday) (int, domain.CountSource, error) {
	aggs, err := e.lake.HourlyAggsForDate(ctx, date, eventType)
	if err != nil {
		return 0, "", err
	}
	total := 0
	for _, agg := range aggs {
		total += agg.CountEvents
	}
	if total > 0 {
		return total, domain.SourceReal, nil
	}

	if rate, ok := configured[weekday]; ok {
		return int(math.Round(float64(occupied) * rate)), domain.SourceStats, nil
	}
	return int(math.Round(float64(occupied) * fallback[weekday])), domain.SourceFallback, nil
}
