package application

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	calendarDomain "github.com/hotelops/roster/internal/calendar/domain"
	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/demand/domain"
	forecastDomain "github.com/hotelops/roster/internal/forecast/domain"
	"github.com/hotelops/roster/internal/pipeline"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

type nopUnitOfWork struct{}

func (nopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (nopUnitOfWork) Commit(context.Context) error                       { return nil }
func (nopUnitOfWork) Rollback(context.Context) error                     { return nil }

type mockDemandRepo struct {
	byRun map[uuid.UUID][]*domain.DemandDaily
}

func newMockDemandRepo() *mockDemandRepo {
	return &mockDemandRepo{byRun: make(map[uuid.UUID][]*domain.DemandDaily)}
}

func (m *mockDemandRepo) SaveDaily(_ context.Context, daily *domain.DemandDaily) error {
	m.byRun[daily.RunID] = append(m.byRun[daily.RunID], daily)
	return nil
}

func (m *mockDemandRepo) DailiesForRun(_ context.Context, runID uuid.UUID) ([]*domain.DemandDaily, error) {
	return m.byRun[runID], nil
}

func (m *mockDemandRepo) DeleteForRun(_ context.Context, runID uuid.UUID) error {
	delete(m.byRun, runID)
	return nil
}

type mockLake struct {
	datalakeDomain.Store
	aggs map[string][]*datalakeDomain.HourlyAgg
}

func aggKey(date time.Time, eventType datalakeDomain.EventType) string {
	return date.UTC().Format(time.DateOnly) + "|" + string(eventType)
}

func (m *mockLake) HourlyAggsForDate(_ context.Context, date time.Time, eventType datalakeDomain.EventType) ([]*datalakeDomain.HourlyAgg, error) {
	return m.aggs[aggKey(date, eventType)], nil
}

type mockActivityRepo struct {
	activities    []*workforce.GovernanceActivity
	periodicities map[uuid.UUID]*workforce.ActivityPeriodicity
}

func (m *mockActivityRepo) Save(context.Context, *workforce.GovernanceActivity) error { return nil }
func (m *mockActivityRepo) FindByID(context.Context, uuid.UUID) (*workforce.GovernanceActivity, error) {
	return nil, nil
}
func (m *mockActivityRepo) FindActiveBySector(context.Context, uuid.UUID) ([]*workforce.GovernanceActivity, error) {
	return m.activities, nil
}
func (m *mockActivityRepo) SavePeriodicity(context.Context, *workforce.ActivityPeriodicity) error {
	return nil
}
func (m *mockActivityRepo) FindPeriodicityByID(_ context.Context, id uuid.UUID) (*workforce.ActivityPeriodicity, error) {
	return m.periodicities[id], nil
}

// mockRulesRepo serves calculation rules; the base interface stays nil because
// the engine touches nothing else.
type mockRulesRepo struct {
	rulesDomain.Repository
	calcRules []*rulesDomain.SectorCalculationRule
}

func (m *mockRulesRepo) CalculationRules(_ context.Context, _ uuid.UUID, scope rulesDomain.CalculationScope) ([]*rulesDomain.SectorCalculationRule, error) {
	var out []*rulesDomain.SectorCalculationRule
	for _, rule := range m.calcRules {
		if rule.Scope() == scope {
			out = append(out, rule)
		}
	}
	return out, nil
}

type neutralCalendar struct {
	factors calendarDomain.DayFactors
}

func (c neutralCalendar) Factors(context.Context, time.Time, uuid.UUID) (calendarDomain.DayFactors, error) {
	return c.factors, nil
}

type harness struct {
	engine *Engine
	repo   *mockDemandRepo
	lake   *mockLake
	rules  *mockRulesRepo
	run    *forecastDomain.ForecastRun
	pctx   *pipeline.Context
	monday time.Time
}

func newHarness(t *testing.T, params workforce.SectorParameters) *harness {
	t.Helper()

	sectorID := uuid.New()
	monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	run := forecastDomain.NewForecastRun(sectorID, forecastDomain.RunBaseline, monday, monday, "EWMA", 0.2,
		forecastDomain.SectorSnapshot{SectorName: "Governança", Parameters: params})

	repo := newMockDemandRepo()
	lake := &mockLake{aggs: make(map[string][]*datalakeDomain.HourlyAgg)}
	rules := &mockRulesRepo{}
	engine := NewEngine(repo, lake, &mockActivityRepo{}, rules, nopUnitOfWork{}, nil)

	return &harness{
		engine: engine,
		repo:   repo,
		lake:   lake,
		rules:  rules,
		run:    run,
		pctx:   &pipeline.Context{Constraints: rulesDomain.Reduce(nil), Calendar: neutralCalendar{calendarDomain.NeutralFactors()}},
		monday: monday,
	}
}

func forecastDay(run *forecastDomain.ForecastRun, date time.Time, occAdj float64) *forecastDomain.ForecastDaily {
	return forecastDomain.NewForecastDaily(run.ID(), date, occAdj, 0, 0, false, forecastDomain.SourceLatest, "")
}

func TestComputeForRun(t *testing.T) {
	ctx := context.Background()

	t.Run("full chain with stock fallback rates", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)
		require.Len(t, dailies, 1)

		day := dailies[0]
		assert.Equal(t, 60, day.OccupiedRooms)
		// Monday stock rates: checkout 0.35, check-in 0.40.
		assert.Equal(t, 21, day.DeparturesCount)
		assert.Equal(t, domain.SourceFallback, day.DeparturesSource)
		assert.Equal(t, 24, day.ArrivalsCount)
		assert.Equal(t, 39, day.StayoversEstimated)

		// 21 departures * 25 min + 39 stayovers * 10 min.
		assert.InDelta(t, 915.0, day.MinutesVariable, 1e-9)
		assert.InDelta(t, 915.0, day.MinutesRaw, 1e-9)
		assert.InDelta(t, 1006.5, day.MinutesBuffered, 1e-9)
		assert.InDelta(t, 1006.5, day.MinutesFinal, 1e-9)

		// hours_total = (1006.5/60) / 0.85; headcount over 8h shifts.
		assert.InDelta(t, 19.735294, day.HoursTotal, 1e-4)
		assert.InDelta(t, 2.466912, day.HeadcountRequired, 1e-4)
		assert.Equal(t, 3, day.HeadcountRounded)

		assert.Equal(t, "demand-v2", day.Breakdown.MethodVersion)
		assert.Equal(t, 50.0, day.Breakdown.Inputs["occ_adj"])
		assert.Empty(t, day.Breakdown.AppliedRules)

		saved, err := h.repo.DailiesForRun(ctx, h.run.ID())
		require.NoError(t, err)
		assert.Len(t, saved, 1)
	})

	t.Run("real hourly events win over rates", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))
		h.lake.aggs[aggKey(h.monday, datalakeDomain.EventCheckOut)] = []*datalakeDomain.HourlyAgg{
			{OperationalDate: h.monday, HourTimeline: 9, EventType: datalakeDomain.EventCheckOut, CountEvents: 12},
			{OperationalDate: h.monday, HourTimeline: 10, EventType: datalakeDomain.EventCheckOut, CountEvents: 6},
		}

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)
		assert.Equal(t, 18, dailies[0].DeparturesCount)
		assert.Equal(t, domain.SourceReal, dailies[0].DeparturesSource)
		// Arrivals had no events and still fall through to the stock rate.
		assert.Equal(t, domain.SourceFallback, dailies[0].ArrivalsSource)
	})

	t.Run("configured turnover rates beat the stock table", func(t *testing.T) {
		params := workforce.DefaultSectorParameters(120)
		params.TurnoverRates = map[workforce.Weekday]float64{workforce.Monday: 0.5}
		h := newHarness(t, params)

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)
		assert.Equal(t, 30, dailies[0].DeparturesCount)
		assert.Equal(t, domain.SourceStats, dailies[0].DeparturesSource)
	})

	t.Run("calculation rules fire on matching days only", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))
		rule, err := rulesDomain.NewSectorCalculationRule(h.run.SectorID(), rulesDomain.ScopeDemand, 1,
			"occ_adj > 80", "minutes *= 1.15")
		require.NoError(t, err)
		h.rules.calcRules = []*rulesDomain.SectorCalculationRule{rule}

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
			forecastDay(h.run, h.monday.AddDate(0, 0, 4), 90),
		})
		require.NoError(t, err)
		require.Len(t, dailies, 2)

		quiet, busy := dailies[0], dailies[1]
		assert.Empty(t, quiet.Breakdown.AppliedRules)
		assert.InDelta(t, quiet.MinutesBuffered, quiet.MinutesFinal, 1e-9)

		require.Len(t, busy.Breakdown.AppliedRules, 1)
		applied := busy.Breakdown.AppliedRules[0]
		assert.Equal(t, "minutes *= 1.15", applied.Action)
		assert.InDelta(t, busy.MinutesBuffered*1.15, busy.MinutesFinal, 1e-9)
		assert.InDelta(t, applied.MinutesBefore*1.15, applied.MinutesAfter, 1e-9)
	})

	t.Run("calendar demand factor scales minutes", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))
		factors := calendarDomain.NeutralFactors()
		factors.DemandFactor = 1.2
		h.pctx.Calendar = neutralCalendar{factors}

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)
		assert.InDelta(t, 1006.5*1.2, dailies[0].MinutesFinal, 1e-9)
		assert.Equal(t, 1.2, dailies[0].Breakdown.CalendarFactors["demand_factor"])
	})

	t.Run("constraint overrides replace sector parameters", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))
		buffer, utilization := 0.0, 100.0
		h.pctx.Constraints.BufferPct = &buffer
		h.pctx.Constraints.UtilizationTargetPct = &utilization

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)
		assert.InDelta(t, 915.0, dailies[0].MinutesFinal, 1e-9)
		assert.InDelta(t, 915.0/60, dailies[0].HoursTotal, 1e-9)
	})

	t.Run("exact headcount never rounds up", func(t *testing.T) {
		params := workforce.DefaultSectorParameters(120)
		params.TimeVacantDirtyMin = 20
		params.TimeStayoverMin = 5
		params.BufferPct = 0
		params.UtilizationTargetPct = 100
		params.TurnoverRates = map[workforce.Weekday]float64{workforce.Monday: 0.2}
		params.ArrivalRates = map[workforce.Weekday]float64{workforce.Monday: 0.2}
		h := newHarness(t, params)

		dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
			forecastDay(h.run, h.monday, 50),
		})
		require.NoError(t, err)

		// 12*20 + 48*5 = 480 minutes = exactly one 8h head.
		day := dailies[0]
		assert.InDelta(t, 1.0, day.HeadcountRequired, 1e-9)
		assert.Equal(t, 1, day.HeadcountRounded)
	})

	t.Run("recomputation replaces prior rows", func(t *testing.T) {
		h := newHarness(t, workforce.DefaultSectorParameters(120))
		days := []*forecastDomain.ForecastDaily{forecastDay(h.run, h.monday, 50)}

		_, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, days)
		require.NoError(t, err)
		_, err = h.engine.ComputeForRun(ctx, h.pctx, h.run, days)
		require.NoError(t, err)

		saved, err := h.repo.DailiesForRun(ctx, h.run.ID())
		require.NoError(t, err)
		assert.Len(t, saved, 1)
	})
}

func TestConstantActivitiesContribute(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, workforce.DefaultSectorParameters(120))

	laundry, err := workforce.NewGovernanceActivity(h.run.SectorID(), "Lavanderia", "laundry", 90,
		workforce.DriverConstant, workforce.ClassificationCalculated, 1)
	require.NoError(t, err)
	cleaning, err := workforce.NewGovernanceActivity(h.run.SectorID(), "Limpeza de quarto", "room_clean", 25,
		workforce.DriverVariable, workforce.ClassificationCalculated, 2)
	require.NoError(t, err)
	h.engine.activities = &mockActivityRepo{activities: []*workforce.GovernanceActivity{laundry, cleaning}}

	dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
		forecastDay(h.run, h.monday, 50),
	})
	require.NoError(t, err)

	day := dailies[0]
	// Only the CONSTANT driver contributes fixed minutes.
	assert.InDelta(t, 90.0, day.MinutesConstant, 1e-9)
	assert.InDelta(t, 1005.0, day.MinutesRaw, 1e-9)
	require.Len(t, day.Breakdown.ConstantActivities, 1)
	assert.Equal(t, "Lavanderia", day.Breakdown.ConstantActivities[0].Name)
}

func TestRecurringConstantChargesOnDueDatesOnly(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, workforce.DefaultSectorParameters(120))

	deepClean, err := workforce.NewGovernanceActivity(h.run.SectorID(), "Limpeza profunda", "deep_clean", 120,
		workforce.DriverConstant, workforce.ClassificationRecurring, 3)
	require.NoError(t, err)
	weekly, err := workforce.NewActivityPeriodicity("semanal", workforce.PeriodicityWeekly, "", 0, "")
	require.NoError(t, err)
	deepClean.SetRecurrence(weekly.ID(), 0, h.monday)
	h.engine.activities = &mockActivityRepo{
		activities:    []*workforce.GovernanceActivity{deepClean},
		periodicities: map[uuid.UUID]*workforce.ActivityPeriodicity{weekly.ID(): weekly},
	}

	dailies, err := h.engine.ComputeForRun(ctx, h.pctx, h.run, []*forecastDomain.ForecastDaily{
		forecastDay(h.run, h.monday, 50),
		forecastDay(h.run, h.monday.AddDate(0, 0, 1), 50),
	})
	require.NoError(t, err)
	require.Len(t, dailies, 2)

	// Due on the weekly anchor only; the off day charges nothing.
	assert.InDelta(t, 120.0, dailies[0].MinutesConstant, 1e-9)
	require.Len(t, dailies[0].Breakdown.ConstantActivities, 1)
	assert.Zero(t, dailies[1].MinutesConstant)
	assert.Empty(t, dailies[1].Breakdown.ConstantActivities)
}
