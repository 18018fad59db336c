package domain

import (
	"time"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// HourlyDistribution is the percentage share of one hour_timeline bucket
// within a weekday's event total.
type HourlyDistribution struct {
	MetricName   string
	Weekday      workforce.Weekday
	HourTimeline datalake.HourTimeline
	Percentage   float64
	N            int // distinct operational dates observed
}

// MetricNameFor maps an event type to its distribution metric name.
func MetricNameFor(eventType datalake.EventType) string {
	switch eventType {
	case datalake.EventCheckIn:
		return "checkin_hourly"
	default:
		return "checkout_hourly"
	}
}

// DistributeHourly reduces hourly aggregates into percentage shares per
// (weekday, hour_timeline). Weekdays with no events produce no rows.
func DistributeHourly(eventType datalake.EventType, aggs []*datalake.HourlyAgg) []*HourlyDistribution {
	metric := MetricNameFor(eventType)

	type bucket struct {
		count int
		dates map[string]struct{}
	}
	perHour := make(map[workforce.Weekday]map[datalake.HourTimeline]*bucket)
	totals := make(map[workforce.Weekday]int)

	for _, agg := range aggs {
		if agg.EventType != eventType {
			continue
		}
		hours, ok := perHour[agg.Weekday]
		if !ok {
			hours = make(map[datalake.HourTimeline]*bucket)
			perHour[agg.Weekday] = hours
		}
		b, ok := hours[agg.HourTimeline]
		if !ok {
			b = &bucket{dates: make(map[string]struct{})}
			hours[agg.HourTimeline] = b
		}
		b.count += agg.CountEvents
		b.dates[agg.OperationalDate.Format(time.DateOnly)] = struct{}{}
		totals[agg.Weekday] += agg.CountEvents
	}

	var rows []*HourlyDistribution
	for weekday, hours := range perHour {
		total := totals[weekday]
		if total == 0 {
			continue
		}
		for hour, b := range hours {
			rows = append(rows, &HourlyDistribution{
				MetricName:   metric,
				Weekday:      weekday,
				HourTimeline: hour,
				Percentage:   100 * float64(b.count) / float64(total),
				N:            len(b.dates),
			})
		}
	}
	return rows
}
