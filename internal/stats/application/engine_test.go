package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datalakeDomain "github.com/hotelops/roster/internal/datalake/domain"
	"github.com/hotelops/roster/internal/stats/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

type nopUnitOfWork struct{}

func (nopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (nopUnitOfWork) Commit(context.Context) error                       { return nil }
func (nopUnitOfWork) Rollback(context.Context) error                     { return nil }

// mockStatsRepo is an in-memory stats repository.
type mockStatsRepo struct {
	bias          map[string]*domain.WeekdayBias
	distributions map[string][]*domain.HourlyDistribution
}

func newMockStatsRepo() *mockStatsRepo {
	return &mockStatsRepo{
		bias:          make(map[string]*domain.WeekdayBias),
		distributions: make(map[string][]*domain.HourlyDistribution),
	}
}

func biasKey(metric string, weekday workforce.Weekday) string {
	return fmt.Sprintf("%s|%d", metric, weekday)
}

func (m *mockStatsRepo) SaveBias(_ context.Context, bias *domain.WeekdayBias) error {
	m.bias[biasKey(bias.MetricName, bias.Weekday)] = bias
	return nil
}

func (m *mockStatsRepo) FindBias(_ context.Context, metric string, weekday workforce.Weekday) (*domain.WeekdayBias, error) {
	return m.bias[biasKey(metric, weekday)], nil
}

func (m *mockStatsRepo) AllBias(_ context.Context, metric string) ([]*domain.WeekdayBias, error) {
	var out []*domain.WeekdayBias
	for _, bias := range m.bias {
		if bias.MetricName == metric {
			out = append(out, bias)
		}
	}
	return out, nil
}

func (m *mockStatsRepo) ReplaceDistribution(_ context.Context, metric string, rows []*domain.HourlyDistribution) error {
	m.distributions[metric] = rows
	return nil
}

func (m *mockStatsRepo) DistributionFor(_ context.Context, metric string, weekday workforce.Weekday) ([]*domain.HourlyDistribution, error) {
	var out []*domain.HourlyDistribution
	for _, row := range m.distributions[metric] {
		if row.Weekday == weekday {
			out = append(out, row)
		}
	}
	return out, nil
}

// mockLake serves paired samples and hourly aggregates.
type mockLake struct {
	datalakeDomain.Store
	samples []*datalakeDomain.PairedSample
	aggs    []*datalakeDomain.HourlyAgg
}

func (m *mockLake) PairedSamples(context.Context, time.Time) ([]*datalakeDomain.PairedSample, error) {
	return m.samples, nil
}

func (m *mockLake) HourlyAggsAll(_ context.Context, eventType datalakeDomain.EventType) ([]*datalakeDomain.HourlyAgg, error) {
	var out []*datalakeDomain.HourlyAgg
	for _, agg := range m.aggs {
		if agg.EventType == eventType {
			out = append(out, agg)
		}
	}
	return out, nil
}

func TestUpdateWeekdayBias(t *testing.T) {
	ctx := context.Background()
	friday := time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC)

	lake := &mockLake{samples: []*datalakeDomain.PairedSample{
		{TargetDate: friday, RealPct: 74, ForecastPct: 70},
		{TargetDate: friday.AddDate(0, 0, -7), RealPct: 75, ForecastPct: 70},
		{TargetDate: friday.AddDate(0, 0, -14), RealPct: 76, ForecastPct: 70},
	}}
	repo := newMockStatsRepo()
	engine := NewEngine(repo, lake, nopUnitOfWork{}, 0.2, nil)

	result, err := engine.UpdateWeekdayBias(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, result.SamplesUsed)
	assert.Equal(t, []workforce.Weekday{workforce.Friday}, result.WeekdaysUpdated)
	assert.Len(t, result.WeekdaysSkipped, 6)

	bias, err := repo.FindBias(ctx, domain.MetricOccupancy, workforce.Friday)
	require.NoError(t, err)
	require.NotNil(t, bias)
	// Mean batch error is +5 pp; first EWMA step from zero is alpha * 5.
	assert.InDelta(t, 1.0, bias.BiasPP, 1e-9)
	assert.Equal(t, 3, bias.N)

	// Weekdays without samples keep no row at all.
	missing, err := repo.FindBias(ctx, domain.MetricOccupancy, workforce.Monday)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpdateWeekdayBias_NoSamples(t *testing.T) {
	engine := NewEngine(newMockStatsRepo(), &mockLake{}, nopUnitOfWork{}, 0.2, nil)

	result, err := engine.UpdateWeekdayBias(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.SamplesUsed)
	assert.Empty(t, result.WeekdaysUpdated)
	assert.Len(t, result.WeekdaysSkipped, 7)
}

func TestBootstrapBias(t *testing.T) {
	ctx := context.Background()
	repo := newMockStatsRepo()
	engine := NewEngine(repo, &mockLake{}, nopUnitOfWork{}, 0.2, nil)

	require.NoError(t, engine.BootstrapBias(ctx, workforce.Saturday, 3.5))

	bias, err := repo.FindBias(ctx, domain.MetricOccupancy, workforce.Saturday)
	require.NoError(t, err)
	require.NotNil(t, bias)
	assert.Equal(t, 3.5, bias.BiasPP)
	assert.Zero(t, bias.N)
	assert.Equal(t, domain.MethodBootstrapManual, bias.Method)
}

func TestUpdateHourlyDistribution(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	lake := &mockLake{aggs: []*datalakeDomain.HourlyAgg{
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 10, EventType: datalakeDomain.EventCheckOut, CountEvents: 3},
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 11, EventType: datalakeDomain.EventCheckOut, CountEvents: 1},
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 15, EventType: datalakeDomain.EventCheckIn, CountEvents: 2},
	}}
	repo := newMockStatsRepo()
	engine := NewEngine(repo, lake, nopUnitOfWork{}, 0.2, nil)

	require.NoError(t, engine.UpdateHourlyDistribution(ctx))

	lookup := NewLookup(repo)
	checkout, err := lookup.SharesFor(ctx, datalakeDomain.EventCheckOut, workforce.Monday)
	require.NoError(t, err)
	assert.InDelta(t, 75.0, checkout[10], 1e-9)
	assert.InDelta(t, 25.0, checkout[11], 1e-9)

	checkin, err := lookup.SharesFor(ctx, datalakeDomain.EventCheckIn, workforce.Monday)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, checkin[15], 1e-9)
}

func TestLookup_Get_Absent(t *testing.T) {
	lookup := NewLookup(newMockStatsRepo())

	value, err := lookup.Get(context.Background(), domain.MetricOccupancy, workforce.Wednesday)
	require.NoError(t, err)
	assert.False(t, value.HasData)
	assert.Zero(t, value.BiasPP)
}
