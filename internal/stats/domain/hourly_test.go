package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

func TestDistributeHourly(t *testing.T) {
	monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	nextMonday := monday.AddDate(0, 0, 7)

	aggs := []*datalake.HourlyAgg{
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 10, EventType: datalake.EventCheckOut, CountEvents: 30},
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 11, EventType: datalake.EventCheckOut, CountEvents: 10},
		{OperationalDate: nextMonday, Weekday: workforce.Monday, HourTimeline: 10, EventType: datalake.EventCheckOut, CountEvents: 60},
		// Other event types never leak into the checkout distribution.
		{OperationalDate: monday, Weekday: workforce.Monday, HourTimeline: 15, EventType: datalake.EventCheckIn, CountEvents: 99},
	}

	rows := DistributeHourly(datalake.EventCheckOut, aggs)
	require.Len(t, rows, 2)

	byHour := map[datalake.HourTimeline]*HourlyDistribution{}
	for _, row := range rows {
		assert.Equal(t, "checkout_hourly", row.MetricName)
		assert.Equal(t, workforce.Monday, row.Weekday)
		byHour[row.HourTimeline] = row
	}

	require.Contains(t, byHour, datalake.HourTimeline(10))
	require.Contains(t, byHour, datalake.HourTimeline(11))
	assert.InDelta(t, 90.0, byHour[10].Percentage, 1e-9)
	assert.InDelta(t, 10.0, byHour[11].Percentage, 1e-9)
	// N counts distinct operational dates, not events.
	assert.Equal(t, 2, byHour[10].N)
	assert.Equal(t, 1, byHour[11].N)
}

func TestDistributeHourly_NoEvents(t *testing.T) {
	assert.Empty(t, DistributeHourly(datalake.EventCheckOut, nil))
}

func TestMetricNameFor(t *testing.T) {
	assert.Equal(t, "checkin_hourly", MetricNameFor(datalake.EventCheckIn))
	assert.Equal(t, "checkout_hourly", MetricNameFor(datalake.EventCheckOut))
}
