package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/eventbus"
	statsDomain "github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Service runs the forecast lifecycle: prerequisites, baseline, daily update,
// lock, comparison, error measurement, executive summary.
type Service struct {
	repo       domain.Repository
	lake       datalakeDomain.Store
	bias       statsDomain.BiasLookup
	sectors    workforce.SectorRepository
	activities workforce.ActivityRepository
	rules      pipeline.ConstraintsResolver
	uow        sharedApplication.UnitOfWork
	bus        eventbus.Publisher
	alpha      float64
	logger     *slog.Logger
}

// NewService creates a forecast service.
func NewService(repo domain.Repository, lake datalakeDomain.Store, bias statsDomain.BiasLookup, sectors workforce.SectorRepository, activities workforce.ActivityRepository, rules pipeline.ConstraintsResolver, uow sharedApplication.UnitOfWork, bus eventbus.Publisher, alpha float64, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		lake:       lake,
		bias:       bias,
		sectors:    sectors,
		activities: activities,
		rules:      rules,
		uow:        uow,
		bus:        bus,
		alpha:      alpha,
		logger:     logger,
	}
}

// Axis is one prerequisite check.
type Axis struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Blocking bool   `json:"blocking"`
	Message  string `json:"message,omitempty"`
}

// Verdict is the structured prerequisites result.
type Verdict struct {
	Axes       []Axis `json:"axes"`
	CanProceed bool   `json:"can_proceed"`
}

// CheckPrerequisites verifies a sector can produce a baseline: sector exists,
// parameters present, at least one active activity, at least one historical
// occupancy record. Week-specific data gaps warn without blocking.
func (s *Service) CheckPrerequisites(ctx context.Context, sectorID uuid.UUID, weekStart time.Time) (*Verdict, error) {
	verdict := &Verdict{CanProceed: true}
	add := func(name string, ok, blocking bool, message string) {
		verdict.Axes = append(verdict.Axes, Axis{Name: name, OK: ok, Blocking: blocking, Message: message})
		if !ok && blocking {
			verdict.CanProceed = false
		}
	}

	sector, err := s.sectors.FindByID(ctx, sectorID)
	if err != nil {
		var notFound *sharedDomain.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		sector = nil
	}
	if sector == nil {
		add("sector_exists", false, true, "sector not found")
		add("sector_parameters", false, true, "")
		add("active_activities", false, true, "")
		add("occupancy_history", false, true, "")
		return verdict, nil
	}
	add("sector_exists", true, true, "")

	params := sector.Parameters()
	paramsOK := params.TotalRooms > 0 && params.AvgShiftHours > 0 && params.UtilizationTargetPct > 0
	add("sector_parameters", paramsOK, true, messageUnless(paramsOK, "operational parameters incomplete"))

	activities, err := s.activities.FindActiveBySector(ctx, sectorID)
	if err != nil {
		return nil, err
	}
	add("active_activities", len(activities) > 0, true, messageUnless(len(activities) > 0, "no active activities for sector"))

	samples, err := s.lake.PairedSamples(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	historyOK := len(samples) > 0
	if !historyOK {
		// Any snapshot counts as history, not only paired ones.
		if latest, err := s.lake.FindLatest(ctx, workforce.NormalizeDate(weekStart)); err != nil {
			return nil, err
		} else if latest != nil {
			historyOK = true
		}
	}
	add("occupancy_history", historyOK, true, messageUnless(historyOK, "no historical occupancy records"))

	weekStart = workforce.NormalizeDate(weekStart)
	missing := 0
	for i := 0; i < 7; i++ {
		latest, err := s.lake.FindLatest(ctx, weekStart.AddDate(0, 0, i))
		if err != nil {
			return nil, err
		}
		if latest == nil || latest.OccupancyPct == nil {
			missing++
		}
	}
	add("week_data", missing == 0, false, messageUnless(missing == 0, fmt.Sprintf("%d of 7 days lack occupancy data", missing)))

	return verdict, nil
}

func messageUnless(ok bool, message string) string {
	if ok {
		return ""
	}
	return message
}

// CreateBaseline produces a BASELINE run for (sector, week_start) at as_of.
func (s *Service) CreateBaseline(ctx context.Context, sectorID uuid.UUID, weekStart, asOf time.Time) (*domain.ForecastRun, []*domain.ForecastDaily, error) {
	return s.createRun(ctx, sectorID, domain.RunBaseline, weekStart, asOf)
}

// DailyUpdate produces a DAILY_UPDATE run with a newer as_of; never lockable.
func (s *Service) DailyUpdate(ctx context.Context, sectorID uuid.UUID, weekStart, asOf time.Time) (*domain.ForecastRun, []*domain.ForecastDaily, error) {
	return s.createRun(ctx, sectorID, domain.RunDailyUpdate, weekStart, asOf)
}

func (s *Service) createRun(ctx context.Context, sectorID uuid.UUID, runType domain.RunType, weekStart, asOf time.Time) (*domain.ForecastRun, []*domain.ForecastDaily, error) {
	verdict, err := s.CheckPrerequisites(ctx, sectorID, weekStart)
	if err != nil {
		return nil, nil, err
	}
	if !verdict.CanProceed {
		var blocking []sharedDomain.Finding
		for _, axis := range verdict.Axes {
			if !axis.OK && axis.Blocking {
				blocking = append(blocking, sharedDomain.Finding{
					Severity: sharedDomain.SeverityError,
					Subject:  axis.Name,
					Message:  axis.Message,
				})
			}
		}
		return nil, nil, &sharedDomain.ValidationError{Op: "forecast.create", Blocking: blocking}
	}

	sector, err := s.sectors.FindByID(ctx, sectorID)
	if err != nil {
		return nil, nil, err
	}
	constraints, err := s.rules.Constraints(ctx, sectorID, asOf)
	if err != nil {
		return nil, nil, err
	}

	run := domain.NewForecastRun(sectorID, runType, weekStart, asOf, string(statsDomain.MethodEWMA), s.alpha, domain.SectorSnapshot{
		SectorName:  sector.Name(),
		Constraints: constraints,
		Parameters:  sector.Parameters(),
	})

	dailies := make([]*domain.ForecastDaily, 0, 7)
	for _, targetDate := range run.TargetDates() {
		occRaw, source, sourceRef, err := s.pickOccRaw(ctx, targetDate, run.AsOf())
		if err != nil {
			return nil, nil, err
		}

		weekday := workforce.WeekdayOf(targetDate)
		biasValue, err := s.bias.Get(ctx, statsDomain.MetricOccupancy, weekday)
		if err != nil {
			return nil, nil, err
		}
		safety := sector.Parameters().SafetyFor(weekday)

		dailies = append(dailies, domain.NewForecastDaily(
			run.ID(), targetDate, occRaw, biasValue.BiasPP, safety, biasValue.HasData, source, sourceRef,
		))
	}
	run.Complete()

	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if err := s.repo.SaveRun(txCtx, run); err != nil {
			return err
		}
		return s.repo.SaveDailies(txCtx, dailies)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoContext(ctx, "forecast run created",
		"run_id", run.ID(),
		"run_type", runType,
		"week_start", weekStart.Format(time.DateOnly),
	)
	return run, dailies, nil
}

// pickOccRaw applies as-of snapshot selection: most recent non-real snapshot
// with generated_at <= as_of, falling back to the latest projection.
func (s *Service) pickOccRaw(ctx context.Context, targetDate, asOf time.Time) (float64, domain.SourceTag, string, error) {
	snapshot, err := s.lake.LatestSnapshotAsOf(ctx, targetDate, asOf, false)
	if err != nil {
		return 0, "", "", err
	}
	if snapshot != nil {
		return snapshot.OccupancyPct, domain.SourceSnapshot, snapshot.ID.String(), nil
	}

	latest, err := s.lake.FindLatest(ctx, targetDate)
	if err != nil {
		return 0, "", "", err
	}
	if latest != nil {
		if latest.LatestForecastPct != nil {
			return *latest.LatestForecastPct, domain.SourceLatest, targetDate.Format(time.DateOnly), nil
		}
		if latest.OccupancyPct != nil {
			return *latest.OccupancyPct, domain.SourceLatest, targetDate.Format(time.DateOnly), nil
		}
	}
	return 0, "", "", &sharedDomain.DataAbsentError{What: "occupancy projection", Days: []string{targetDate.Format(time.DateOnly)}}
}

// Lock makes a baseline authoritative, superseding the previously locked
// baseline for the same (sector, horizon_start) in the same transaction.
func (s *Service) Lock(ctx context.Context, runID uuid.UUID) (*domain.ForecastRun, error) {
	var run *domain.ForecastRun
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		var err error
		run, err = s.repo.FindRun(txCtx, runID)
		if err != nil {
			return err
		}
		if run == nil {
			return &sharedDomain.NotFoundError{Entity: "forecast run", Ref: runID.String()}
		}

		prior, err := s.repo.LockedBaseline(txCtx, run.SectorID(), run.HorizonStart())
		if err != nil {
			return err
		}
		if err := run.Lock(time.Now()); err != nil {
			return &sharedDomain.ConflictError{Entity: "forecast run", Reason: err.Error()}
		}
		if prior != nil && prior.ID() != run.ID() {
			prior.SupersedeBy(run.ID())
			if err := s.repo.SaveRun(txCtx, prior); err != nil {
				return err
			}
		}
		return s.repo.SaveRun(txCtx, run)
	})
	if err != nil {
		return nil, err
	}

	if err := eventbus.PublishEvents(ctx, s.bus, run.DomainEvents()); err != nil {
		s.logger.WarnContext(ctx, "failed to publish run events", "run_id", run.ID(), "error", err)
	}
	run.ClearDomainEvents()

	s.logger.InfoContext(ctx, "baseline locked", "run_id", run.ID())
	return run, nil
}

// CompareRow is one per-date diff between two runs. Nil sides mean the run
// has no row for the date.
type CompareRow struct {
	TargetDate time.Time `json:"target_date"`
	OccAdjA    *float64  `json:"occ_adj_a"`
	OccAdjB    *float64  `json:"occ_adj_b"`
	Delta      *float64  `json:"delta"`
}

// Comparison is a full run diff.
type Comparison struct {
	RunA         uuid.UUID    `json:"run_a"`
	RunB         uuid.UUID    `json:"run_b"`
	Rows         []CompareRow `json:"rows"`
	MeanAbsDelta float64      `json:"mean_abs_delta"`
}

// Compare emits per-date deltas occ_adj_B - occ_adj_A and the mean absolute
// delta over dates present on both sides.
func (s *Service) Compare(ctx context.Context, runA, runB uuid.UUID) (*Comparison, error) {
	dailiesA, err := s.repo.DailiesForRun(ctx, runA)
	if err != nil {
		return nil, err
	}
	dailiesB, err := s.repo.DailiesForRun(ctx, runB)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*CompareRow)
	var order []string
	rowFor := func(date time.Time) *CompareRow {
		key := date.Format(time.DateOnly)
		if row, ok := byDate[key]; ok {
			return row
		}
		row := &CompareRow{TargetDate: date}
		byDate[key] = row
		order = append(order, key)
		return row
	}
	for _, d := range dailiesA {
		v := d.OccAdj
		rowFor(d.TargetDate).OccAdjA = &v
	}
	for _, d := range dailiesB {
		v := d.OccAdj
		rowFor(d.TargetDate).OccAdjB = &v
	}

	comparison := &Comparison{RunA: runA, RunB: runB}
	var sumAbs float64
	var paired int
	for _, key := range order {
		row := byDate[key]
		if row.OccAdjA != nil && row.OccAdjB != nil {
			delta := *row.OccAdjB - *row.OccAdjA
			row.Delta = &delta
			sumAbs += math.Abs(delta)
			paired++
		}
		comparison.Rows = append(comparison.Rows, *row)
	}
	if paired > 0 {
		comparison.MeanAbsDelta = sumAbs / float64(paired)
	}
	return comparison, nil
}

// ErrorReport measures a run against observed reality.
type ErrorReport struct {
	RunID     uuid.UUID `json:"run_id"`
	DaysUsed  int       `json:"days_used"`
	MeanError float64   `json:"mean_error_pp"`
}

// ForecastError compares past horizon days against the latest real occupancy;
// days without real data are skipped.
func (s *Service) ForecastError(ctx context.Context, runID uuid.UUID, today time.Time) (*ErrorReport, error) {
	dailies, err := s.repo.DailiesForRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	today = workforce.NormalizeDate(today)

	report := &ErrorReport{RunID: runID}
	var sum float64
	for _, daily := range dailies {
		if !daily.TargetDate.Before(today) {
			continue
		}
		latest, err := s.lake.FindLatest(ctx, daily.TargetDate)
		if err != nil {
			return nil, err
		}
		if latest == nil || latest.LatestRealPct == nil {
			continue
		}
		sum += *latest.LatestRealPct - daily.OccAdj
		report.DaysUsed++
	}
	if report.DaysUsed > 0 {
		report.MeanError = sum / float64(report.DaysUsed)
	}
	return report, nil
}

// SummaryDay is one flagged day of the executive summary.
type SummaryDay struct {
	TargetDate     time.Time `json:"target_date"`
	BaselineAdj    float64   `json:"baseline_adj"`
	DailyAdj       float64   `json:"daily_adj"`
	DeltaPP        float64   `json:"delta_pp"`
	Recommendation string    `json:"recommendation"`
}

// Summary is the executive view of baseline drift.
type Summary struct {
	BaselineRun uuid.UUID    `json:"baseline_run"`
	DailyRun    uuid.UUID    `json:"daily_run"`
	ThresholdPP float64      `json:"threshold_pp"`
	Flagged     []SummaryDay `json:"flagged"`
}

// ExecutiveSummary flags horizon days where the latest daily update drifted
// beyond the threshold from the locked baseline.
func (s *Service) ExecutiveSummary(ctx context.Context, sectorID uuid.UUID, weekStart time.Time, thresholdPP float64) (*Summary, error) {
	if thresholdPP <= 0 {
		thresholdPP = 2
	}
	weekStart = workforce.NormalizeDate(weekStart)

	baseline, err := s.repo.LockedBaseline(ctx, sectorID, weekStart)
	if err != nil {
		return nil, err
	}
	if baseline == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "locked baseline", Ref: weekStart.Format(time.DateOnly)}
	}
	daily, err := s.repo.LatestRun(ctx, sectorID, weekStart, domain.RunDailyUpdate)
	if err != nil {
		return nil, err
	}
	if daily == nil {
		return nil, &sharedDomain.NotFoundError{Entity: "daily update run", Ref: weekStart.Format(time.DateOnly)}
	}

	comparison, err := s.Compare(ctx, baseline.ID(), daily.ID())
	if err != nil {
		return nil, err
	}

	summary := &Summary{BaselineRun: baseline.ID(), DailyRun: daily.ID(), ThresholdPP: thresholdPP}
	for _, row := range comparison.Rows {
		if row.Delta == nil || math.Abs(*row.Delta) <= thresholdPP {
			continue
		}
		direction := "higher"
		action := "consider reinforcing the team"
		if *row.Delta < 0 {
			direction = "lower"
			action = "consider reducing convocations"
		}
		summary.Flagged = append(summary.Flagged, SummaryDay{
			TargetDate:  row.TargetDate,
			BaselineAdj: *row.OccAdjA,
			DailyAdj:    *row.OccAdjB,
			DeltaPP:     *row.Delta,
			Recommendation: fmt.Sprintf(
				"%s: latest projection is %.1f pp %s than the locked baseline; %s",
				row.TargetDate.Format(time.DateOnly), math.Abs(*row.Delta), direction, action,
			),
		})
	}
	return summary, nil
}
