package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	demandDomain "github.com/hotelops/roster/internal/demand/domain"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/suggestion/domain"
)

// Thresholds tune the replan detector.
type Thresholds struct {
	// CostPerHead is the monetary weight of one headcount of delta.
	CostPerHead float64
	// ReplanCost is the minimum weighted headcount delta worth a replan.
	ReplanCost float64
	// OccDeltaPP is the occupancy drift in percentage points worth a
	// replan regardless of headcount.
	OccDeltaPP float64
}

// DefaultThresholds are the detector defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{CostPerHead: 1, ReplanCost: 2, OccDeltaPP: 5}
}

// Engine compares live daily-update forecasts and demand against the locked
// baseline and proposes adjustments. Suggestions never mutate plans.
type Engine struct {
	repo       domain.Repository
	forecasts  forecastDomain.Repository
	demand     demandDomain.Repository
	thresholds Thresholds
	uow        sharedApplication.UnitOfWork
	logger     *slog.Logger
}

// NewEngine creates a suggestion engine.
func NewEngine(repo domain.Repository, forecasts forecastDomain.Repository, demand demandDomain.Repository, thresholds Thresholds, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if thresholds.OccDeltaPP <= 0 {
		thresholds.OccDeltaPP = 5
	}
	return &Engine{repo: repo, forecasts: forecasts, demand: demand, thresholds: thresholds, uow: uow, logger: logger}
}

// Detection is one detection pass outcome.
type Detection struct {
	Replans []*domain.ReplanSuggestion `json:"replans"`
	Dailies []*domain.DailySuggestion  `json:"dailies"`
}

// Detect runs the deviation scan for one sector week. Requires a locked
// baseline and at least one completed daily update.
func (e *Engine) Detect(ctx context.Context, pctx *pipeline.Context, sectorID uuid.UUID, weekStart time.Time) (*Detection, error) {
	baseline, err := e.forecasts.LockedBaseline(ctx, sectorID, weekStart)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "locked baseline", Ref: weekStart.Format(time.DateOnly)}
	}
	live, err := e.forecasts.LatestRun(ctx, sectorID, weekStart, forecastDomain.RunDailyUpdate)
	if err != nil {
		return nil, err
	}
	if live == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "daily update run", Ref: weekStart.Format(time.DateOnly)}
	}

	baselineOcc, err := e.occByDate(ctx, baseline.ID())
	if err != nil {
		return nil, err
	}
	liveOcc, err := e.occByDate(ctx, live.ID())
	if err != nil {
		return nil, err
	}
	baselineHeads, err := e.headsByDate(ctx, baseline.ID())
	if err != nil {
		return nil, err
	}
	liveHeads, err := e.headsByDate(ctx, live.ID())
	if err != nil {
		return nil, err
	}

	detection := &Detection{}
	for _, date := range baseline.TargetDates() {
		key := date.Format(time.DateOnly)
		e.detectDay(detection, sectorID, baseline.ID(), live.ID(), date,
			baselineHeads[key], liveHeads[key], baselineOcc[key], liveOcc[key])
	}
	pctx.Trace(ctx, "suggestion.detect", map[string]any{
		"baseline_run_id": baseline.ID().String(),
		"live_run_id":     live.ID().String(),
		"replans":         len(detection.Replans),
		"dailies":         len(detection.Dailies),
	})

	err = sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		for _, replan := range detection.Replans {
			if err := e.repo.SaveReplan(txCtx, replan); err != nil {
				return err
			}
		}
		for _, daily := range detection.Dailies {
			if err := e.repo.SaveDaily(txCtx, daily); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "deviation scan complete",
		"sector_id", sectorID,
		"week_start", weekStart.Format(time.DateOnly),
		"replans", len(detection.Replans),
		"dailies", len(detection.Dailies),
	)
	return detection, nil
}

func (e *Engine) detectDay(detection *Detection, sectorID uuid.UUID, baselineRunID, liveRunID uuid.UUID, date time.Time, headsBaseline, headsLive *int, occBaseline, occLive *float64) {
	if headsBaseline != nil && headsLive != nil {
		delta := *headsLive - *headsBaseline
		weighted := math.Abs(float64(delta)) * e.thresholds.CostPerHead
		if weighted >= e.thresholds.ReplanCost && delta != 0 {
			detection.Replans = append(detection.Replans, domain.NewReplanSuggestion(
				sectorID, baselineRunID, liveRunID, date,
				domain.ReplanHeadcountDelta,
				float64(*headsBaseline), float64(*headsLive),
				fmt.Sprintf("headcount moved from %d to %d", *headsBaseline, *headsLive),
				map[string]any{
					"cost_per_head":  e.thresholds.CostPerHead,
					"weighted_delta": weighted,
					"threshold":      e.thresholds.ReplanCost,
				},
				priorityFor(weighted, e.thresholds.ReplanCost),
			))
		}
		switch {
		case delta > 0:
			detection.Dailies = append(detection.Dailies, domain.NewDailySuggestion(
				sectorID, date, domain.KindReinforce, domain.CategoryOperational,
				fmt.Sprintf("demand on %s asks for %d more housekeeper(s) than the locked baseline", date.Format(time.DateOnly), delta),
			))
		case delta < 0:
			detection.Dailies = append(detection.Dailies, domain.NewDailySuggestion(
				sectorID, date, domain.KindReduce, domain.CategoryFinancial,
				fmt.Sprintf("demand on %s allows %d fewer convocation(s) than the locked baseline", date.Format(time.DateOnly), -delta),
			))
		}
	}

	if occBaseline != nil && occLive != nil {
		occDelta := *occLive - *occBaseline
		if math.Abs(occDelta) > e.thresholds.OccDeltaPP {
			detection.Replans = append(detection.Replans, domain.NewReplanSuggestion(
				sectorID, baselineRunID, liveRunID, date,
				domain.ReplanOccupancyDelta,
				*occBaseline, *occLive,
				fmt.Sprintf("adjusted occupancy drifted %.1f pp from the locked baseline", occDelta),
				map[string]any{
					"threshold_pp": e.thresholds.OccDeltaPP,
					"delta_pp":     occDelta,
				},
				priorityFor(math.Abs(occDelta), e.thresholds.OccDeltaPP),
			))
		}
	}
}

// priorityFor scales with how far past the threshold the signal landed.
func priorityFor(value, threshold float64) domain.ReplanPriority {
	if threshold <= 0 {
		return domain.PriorityMedium
	}
	switch ratio := value / threshold; {
	case ratio >= 2:
		return domain.PriorityHigh
	case ratio >= 1.5:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

func (e *Engine) occByDate(ctx context.Context, runID uuid.UUID) (map[string]*float64, error) {
	dailies, err := e.forecasts.DailiesForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*float64, len(dailies))
	for _, daily := range dailies {
		occ := daily.OccAdj
		byDate[daily.TargetDate.Format(time.DateOnly)] = &occ
	}
	return byDate, nil
}

func (e *Engine) headsByDate(ctx context.Context, runID uuid.UUID) (map[string]*int, error) {
	dailies, err := e.demand.DailiesForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]*int, len(dailies))
	for _, daily := range dailies {
		heads := daily.HeadcountRounded
		byDate[daily.TargetDate.Format(time.DateOnly)] = &heads
	}
	return byDate, nil
}

// DecideReplan records acceptance or rejection. The plan stays untouched;
// applying an accepted suggestion is an explicit schedule adjustment.
func (e *Engine) DecideReplan(ctx context.Context, id uuid.UUID, accepted bool, now time.Time) (*domain.ReplanSuggestion, error) {
	var suggestion *domain.ReplanSuggestion
	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		found, err := e.repo.FindReplan(txCtx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return &sharedDomain.NotFoundError{Entity: "replan suggestion", Ref: id.String()}
		}
		if err := found.Decide(accepted, now); err != nil {
			return err
		}
		suggestion = found
		return e.repo.SaveReplan(txCtx, found)
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}

// ResolveDaily applies or ignores an OPEN daily suggestion.
func (e *Engine) ResolveDaily(ctx context.Context, id uuid.UUID, apply bool, now time.Time) (*domain.DailySuggestion, error) {
	var suggestion *domain.DailySuggestion
	err := sharedApplication.WithUnitOfWork(ctx, e.uow, func(txCtx context.Context) error {
		found, err := e.repo.FindDaily(txCtx, id)
		if err != nil {
			return err
		}
		if found == nil {
			return &sharedDomain.NotFoundError{Entity: "daily suggestion", Ref: id.String()}
		}
		var terr error
		if apply {
			terr = found.Apply(now)
		} else {
			terr = found.Ignore(now)
		}
		if terr != nil {
			return terr
		}
		suggestion = found
		return e.repo.SaveDaily(txCtx, found)
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}
