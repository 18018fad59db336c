package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/forecast/domain"
	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	statsDomain "github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

type nopUnitOfWork struct{}

func (nopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (nopUnitOfWork) Commit(context.Context) error                       { return nil }
func (nopUnitOfWork) Rollback(context.Context) error                     { return nil }

type mockForecastRepo struct {
	runs    []*domain.ForecastRun
	dailies map[uuid.UUID][]*domain.ForecastDaily
}

func newMockForecastRepo() *mockForecastRepo {
	return &mockForecastRepo{dailies: make(map[uuid.UUID][]*domain.ForecastDaily)}
}

func (m *mockForecastRepo) SaveRun(_ context.Context, run *domain.ForecastRun) error {
	for i, existing := range m.runs {
		if existing.ID() == run.ID() {
			m.runs[i] = run
			return nil
		}
	}
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockForecastRepo) FindRun(_ context.Context, id uuid.UUID) (*domain.ForecastRun, error) {
	for _, run := range m.runs {
		if run.ID() == id {
			return run, nil
		}
	}
	return nil, nil
}

func (m *mockForecastRepo) LockedBaseline(_ context.Context, sectorID uuid.UUID, horizonStart time.Time) (*domain.ForecastRun, error) {
	for _, run := range m.runs {
		if run.SectorID() == sectorID && run.HorizonStart().Equal(horizonStart) &&
			run.RunType() == domain.RunBaseline && run.IsLocked() && run.SupersededBy() == nil {
			return run, nil
		}
	}
	return nil, nil
}

func (m *mockForecastRepo) LatestRun(_ context.Context, sectorID uuid.UUID, horizonStart time.Time, runType domain.RunType) (*domain.ForecastRun, error) {
	for i := len(m.runs) - 1; i >= 0; i-- {
		run := m.runs[i]
		if run.SectorID() == sectorID && run.HorizonStart().Equal(horizonStart) &&
			run.RunType() == runType && run.Status() == domain.RunCompleted {
			return run, nil
		}
	}
	return nil, nil
}

func (m *mockForecastRepo) SaveDailies(_ context.Context, dailies []*domain.ForecastDaily) error {
	for _, daily := range dailies {
		m.dailies[daily.RunID] = append(m.dailies[daily.RunID], daily)
	}
	return nil
}

func (m *mockForecastRepo) DailiesForRun(_ context.Context, runID uuid.UUID) ([]*domain.ForecastDaily, error) {
	return m.dailies[runID], nil
}

// mockLake serves occupancy data keyed by target date.
type mockLake struct {
	datalakeDomain.Store
	samples   []*datalakeDomain.PairedSample
	latest    map[string]*datalakeDomain.OccupancyLatest
	snapshots map[string]*datalakeDomain.OccupancySnapshot
}

func newMockLake() *mockLake {
	return &mockLake{
		latest:    make(map[string]*datalakeDomain.OccupancyLatest),
		snapshots: make(map[string]*datalakeDomain.OccupancySnapshot),
	}
}

func dateKey(date time.Time) string { return date.UTC().Format(time.DateOnly) }

func (m *mockLake) PairedSamples(context.Context, time.Time) ([]*datalakeDomain.PairedSample, error) {
	return m.samples, nil
}

func (m *mockLake) FindLatest(_ context.Context, targetDate time.Time) (*datalakeDomain.OccupancyLatest, error) {
	return m.latest[dateKey(targetDate)], nil
}

func (m *mockLake) LatestSnapshotAsOf(_ context.Context, targetDate, asOf time.Time, real bool) (*datalakeDomain.OccupancySnapshot, error) {
	snapshot := m.snapshots[dateKey(targetDate)]
	if snapshot == nil || snapshot.IsReal != real || snapshot.GeneratedAt.After(asOf) {
		return nil, nil
	}
	return snapshot, nil
}

func (m *mockLake) seedLatest(date time.Time, occupancyPct float64) {
	pct := occupancyPct
	m.latest[dateKey(date)] = &datalakeDomain.OccupancyLatest{TargetDate: date, OccupancyPct: &pct}
}

type mockBias struct {
	values map[workforce.Weekday]statsDomain.BiasValue
}

func (m *mockBias) Get(_ context.Context, _ string, weekday workforce.Weekday) (statsDomain.BiasValue, error) {
	return m.values[weekday], nil
}

type mockSectorRepo struct {
	sectors map[uuid.UUID]*workforce.Sector
}

func (m *mockSectorRepo) Save(_ context.Context, sector *workforce.Sector) error {
	m.sectors[sector.ID()] = sector
	return nil
}

func (m *mockSectorRepo) FindByID(_ context.Context, id uuid.UUID) (*workforce.Sector, error) {
	sector, ok := m.sectors[id]
	if !ok {
		return nil, &sharedDomain.NotFoundError{Entity: "sector", Ref: id.String()}
	}
	return sector, nil
}

func (m *mockSectorRepo) FindByName(context.Context, string) (*workforce.Sector, error) {
	return nil, nil
}

type mockActivityRepo struct {
	bySector map[uuid.UUID][]*workforce.GovernanceActivity
}

func (m *mockActivityRepo) Save(context.Context, *workforce.GovernanceActivity) error { return nil }
func (m *mockActivityRepo) FindByID(context.Context, uuid.UUID) (*workforce.GovernanceActivity, error) {
	return nil, nil
}
func (m *mockActivityRepo) FindActiveBySector(_ context.Context, sectorID uuid.UUID) ([]*workforce.GovernanceActivity, error) {
	return m.bySector[sectorID], nil
}
func (m *mockActivityRepo) SavePeriodicity(context.Context, *workforce.ActivityPeriodicity) error {
	return nil
}
func (m *mockActivityRepo) FindPeriodicityByID(context.Context, uuid.UUID) (*workforce.ActivityPeriodicity, error) {
	return nil, nil
}

type defaultConstraints struct{}

func (defaultConstraints) Constraints(context.Context, uuid.UUID, time.Time) (rulesDomain.Constraints, error) {
	return rulesDomain.Reduce(nil), nil
}

type fixture struct {
	service    *Service
	repo       *mockForecastRepo
	lake       *mockLake
	bias       *mockBias
	sector     *workforce.Sector
	weekStart  time.Time
	asOf       time.Time
	activities *mockActivityRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	params := workforce.DefaultSectorParameters(120)
	params.SafetyPP[workforce.Friday] = 2
	sector, err := workforce.NewSector("Governança", params)
	require.NoError(t, err)

	activity, err := workforce.NewGovernanceActivity(sector.ID(), "Limpeza de quarto", "room_clean", 25,
		workforce.DriverVariable, workforce.ClassificationCalculated, 2)
	require.NoError(t, err)

	repo := newMockForecastRepo()
	lake := newMockLake()
	bias := &mockBias{values: map[workforce.Weekday]statsDomain.BiasValue{
		workforce.Friday: {BiasPP: 1, HasData: true},
	}}
	sectors := &mockSectorRepo{sectors: map[uuid.UUID]*workforce.Sector{sector.ID(): sector}}
	activities := &mockActivityRepo{bySector: map[uuid.UUID][]*workforce.GovernanceActivity{
		sector.ID(): {activity},
	}}

	weekStart := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC) // Monday
	for i := 0; i < 7; i++ {
		lake.seedLatest(weekStart.AddDate(0, 0, i), 60)
	}

	return &fixture{
		service:    NewService(repo, lake, bias, sectors, activities, defaultConstraints{}, nopUnitOfWork{}, nil, 0.2, nil),
		repo:       repo,
		lake:       lake,
		bias:       bias,
		sector:     sector,
		weekStart:  weekStart,
		asOf:       weekStart.Add(-12 * time.Hour),
		activities: activities,
	}
}

func TestCheckPrerequisites(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy sector can proceed", func(t *testing.T) {
		f := newFixture(t)

		verdict, err := f.service.CheckPrerequisites(ctx, f.sector.ID(), f.weekStart)
		require.NoError(t, err)
		assert.True(t, verdict.CanProceed)
		require.Len(t, verdict.Axes, 5)
		for _, axis := range verdict.Axes {
			assert.True(t, axis.OK, axis.Name)
		}
	})

	t.Run("unknown sector blocks everything", func(t *testing.T) {
		f := newFixture(t)

		verdict, err := f.service.CheckPrerequisites(ctx, uuid.New(), f.weekStart)
		require.NoError(t, err)
		assert.False(t, verdict.CanProceed)
	})

	t.Run("no activities blocks", func(t *testing.T) {
		f := newFixture(t)
		f.activities.bySector[f.sector.ID()] = nil

		verdict, err := f.service.CheckPrerequisites(ctx, f.sector.ID(), f.weekStart)
		require.NoError(t, err)
		assert.False(t, verdict.CanProceed)
	})

	t.Run("missing week days warn without blocking", func(t *testing.T) {
		f := newFixture(t)
		delete(f.lake.latest, dateKey(f.weekStart.AddDate(0, 0, 3)))
		// Keep history satisfied through paired samples.
		f.lake.samples = []*datalakeDomain.PairedSample{{TargetDate: f.weekStart.AddDate(0, 0, -7), RealPct: 70, ForecastPct: 68}}

		verdict, err := f.service.CheckPrerequisites(ctx, f.sector.ID(), f.weekStart)
		require.NoError(t, err)
		assert.True(t, verdict.CanProceed)

		last := verdict.Axes[len(verdict.Axes)-1]
		assert.Equal(t, "week_data", last.Name)
		assert.False(t, last.OK)
		assert.False(t, last.Blocking)
	})
}

func TestCreateBaseline(t *testing.T) {
	ctx := context.Background()

	t.Run("seven days with bias and safety applied", func(t *testing.T) {
		f := newFixture(t)

		run, dailies, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
		require.NoError(t, err)
		assert.Equal(t, domain.RunBaseline, run.RunType())
		assert.Equal(t, domain.RunCompleted, run.Status())
		assert.Equal(t, "Governança", run.Snapshot().SectorName)
		require.Len(t, dailies, 7)

		// Friday picks up the learned bias (+1) and configured safety (+2).
		friday := dailies[4]
		assert.Equal(t, workforce.Friday, workforce.WeekdayOf(friday.TargetDate))
		assert.Equal(t, 60.0, friday.OccRaw)
		assert.Equal(t, 63.0, friday.OccAdj)
		assert.True(t, friday.HasBiasData)
		assert.Equal(t, domain.SourceLatest, friday.Source)

		// Days without learned bias stay at the raw projection.
		monday := dailies[0]
		assert.Equal(t, 60.0, monday.OccAdj)
		assert.False(t, monday.HasBiasData)
	})

	t.Run("as-of snapshot wins over the latest projection", func(t *testing.T) {
		f := newFixture(t)
		snapshot, err := datalakeDomain.NewOccupancySnapshot(f.weekStart, f.asOf.Add(-time.Hour), 70, false, uuid.New())
		require.NoError(t, err)
		f.lake.snapshots[dateKey(f.weekStart)] = snapshot

		_, dailies, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
		require.NoError(t, err)
		assert.Equal(t, 70.0, dailies[0].OccRaw)
		assert.Equal(t, domain.SourceSnapshot, dailies[0].Source)
		assert.Equal(t, snapshot.ID.String(), dailies[0].SourceRef)
	})

	t.Run("snapshots after as-of are invisible", func(t *testing.T) {
		f := newFixture(t)
		snapshot, err := datalakeDomain.NewOccupancySnapshot(f.weekStart, f.asOf.Add(time.Hour), 70, false, uuid.New())
		require.NoError(t, err)
		f.lake.snapshots[dateKey(f.weekStart)] = snapshot

		_, dailies, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
		require.NoError(t, err)
		assert.Equal(t, 60.0, dailies[0].OccRaw)
		assert.Equal(t, domain.SourceLatest, dailies[0].Source)
	})

	t.Run("failed prerequisites block with findings", func(t *testing.T) {
		f := newFixture(t)

		_, _, err := f.service.CreateBaseline(ctx, uuid.New(), f.weekStart, f.asOf)
		var validation *sharedDomain.ValidationError
		require.True(t, errors.As(err, &validation))
		assert.NotEmpty(t, validation.Blocking)
	})
}

func TestLock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, _, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
	require.NoError(t, err)

	locked, err := f.service.Lock(ctx, first.ID())
	require.NoError(t, err)
	assert.True(t, locked.IsLocked())

	// Locking a newer baseline supersedes the prior one.
	second, _, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf.Add(time.Hour))
	require.NoError(t, err)
	_, err = f.service.Lock(ctx, second.ID())
	require.NoError(t, err)

	require.NotNil(t, first.SupersededBy())
	assert.Equal(t, second.ID(), *first.SupersededBy())

	current, err := f.repo.LockedBaseline(ctx, f.sector.ID(), f.weekStart)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, second.ID(), current.ID())

	t.Run("relocking conflicts", func(t *testing.T) {
		_, err := f.service.Lock(ctx, second.ID())
		var conflict *sharedDomain.ConflictError
		assert.True(t, errors.As(err, &conflict))
	})

	t.Run("daily updates never lock", func(t *testing.T) {
		daily, _, err := f.service.DailyUpdate(ctx, f.sector.ID(), f.weekStart, f.asOf.Add(2*time.Hour))
		require.NoError(t, err)
		_, err = f.service.Lock(ctx, daily.ID())
		var conflict *sharedDomain.ConflictError
		assert.True(t, errors.As(err, &conflict))
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := f.service.Lock(ctx, uuid.New())
		var notFound *sharedDomain.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	baseline, _, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
	require.NoError(t, err)

	// The later update sees Monday two points higher.
	f.lake.seedLatest(f.weekStart, 62)
	daily, _, err := f.service.DailyUpdate(ctx, f.sector.ID(), f.weekStart, f.asOf.Add(time.Hour))
	require.NoError(t, err)

	comparison, err := f.service.Compare(ctx, baseline.ID(), daily.ID())
	require.NoError(t, err)
	require.Len(t, comparison.Rows, 7)

	monday := comparison.Rows[0]
	require.NotNil(t, monday.Delta)
	assert.InDelta(t, 2.0, *monday.Delta, 1e-9)
	assert.InDelta(t, 2.0/7.0, comparison.MeanAbsDelta, 1e-9)

	tuesday := comparison.Rows[1]
	require.NotNil(t, tuesday.Delta)
	assert.Zero(t, *tuesday.Delta)
}

func TestForecastError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	run, _, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
	require.NoError(t, err)

	// Reality came in 4 points above the forecast on Monday, 2 on Tuesday.
	real0, real1 := 64.0, 62.0
	f.lake.latest[dateKey(f.weekStart)].LatestRealPct = &real0
	f.lake.latest[dateKey(f.weekStart.AddDate(0, 0, 1))].LatestRealPct = &real1

	report, err := f.service.ForecastError(ctx, run.ID(), f.weekStart.AddDate(0, 0, 3))
	require.NoError(t, err)
	// Wednesday has no real value and is skipped.
	assert.Equal(t, 2, report.DaysUsed)
	assert.InDelta(t, 3.0, report.MeanError, 1e-9)
}

func TestExecutiveSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	baseline, _, err := f.service.CreateBaseline(ctx, f.sector.ID(), f.weekStart, f.asOf)
	require.NoError(t, err)
	_, err = f.service.Lock(ctx, baseline.ID())
	require.NoError(t, err)

	// Monday drifts +5 pp, Tuesday -1 pp (inside the threshold).
	f.lake.seedLatest(f.weekStart, 65)
	f.lake.seedLatest(f.weekStart.AddDate(0, 0, 1), 59)
	_, _, err = f.service.DailyUpdate(ctx, f.sector.ID(), f.weekStart, f.asOf.Add(time.Hour))
	require.NoError(t, err)

	summary, err := f.service.ExecutiveSummary(ctx, f.sector.ID(), f.weekStart, 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, summary.ThresholdPP)
	require.Len(t, summary.Flagged, 1)

	flagged := summary.Flagged[0]
	assert.Equal(t, f.weekStart, flagged.TargetDate)
	assert.InDelta(t, 5.0, flagged.DeltaPP, 1e-9)
	assert.Contains(t, flagged.Recommendation, "higher")

	t.Run("no locked baseline", func(t *testing.T) {
		_, err := f.service.ExecutiveSummary(ctx, f.sector.ID(), f.weekStart.AddDate(0, 0, 7), 2)
		var notFound *sharedDomain.NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})
}
