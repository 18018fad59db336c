package domain

import (
	"time"

	"github.com/google/uuid"

	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// EventType distinguishes frontdesk event kinds.
type EventType string

const (
	EventCheckIn  EventType = "CHECKIN"
	EventCheckOut EventType = "CHECKOUT"
)

// FrontdeskEvent is a raw check-in/check-out record anchored to a date.
type FrontdeskEvent struct {
	ID             uuid.UUID
	EventType      EventType
	AnchorDate     time.Time
	EventTime      *time.Time
	SourceUploadID uuid.UUID
}

// NewFrontdeskEvent normalizes a raw event.
func NewFrontdeskEvent(eventType EventType, anchorDate time.Time, eventTime *time.Time, sourceUploadID uuid.UUID) *FrontdeskEvent {
	if eventTime != nil {
		t := eventTime.UTC()
		eventTime = &t
	}
	return &FrontdeskEvent{
		ID:             uuid.New(),
		EventType:      eventType,
		AnchorDate:     workforce.NormalizeDate(anchorDate),
		EventTime:      eventTime,
		SourceUploadID: sourceUploadID,
	}
}

// HourlyAgg is a FrontdeskEventsHourlyAgg row: event counts keyed by
// (operational_date, weekday, hour_timeline, event_type).
type HourlyAgg struct {
	OperationalDate time.Time
	Weekday         workforce.Weekday
	HourTimeline    HourTimeline
	EventType       EventType
	CountEvents     int
}

// Aggregate buckets raw events into hourly aggregates. Events without a time
// are counted on the anchor date at hour 12 (midday bucket), matching the
// source aggregation.
func Aggregate(events []*FrontdeskEvent) []*HourlyAgg {
	type key struct {
		date      string
		timeline  HourTimeline
		eventType EventType
	}
	buckets := make(map[key]*HourlyAgg)

	for _, e := range events {
		opDate := e.AnchorDate
		timeline := HourTimeline(12)
		if e.EventTime != nil {
			opDate, timeline = TimelineFor(e.EventType, *e.EventTime)
		}
		k := key{date: opDate.Format(time.DateOnly), timeline: timeline, eventType: e.EventType}
		agg, ok := buckets[k]
		if !ok {
			agg = &HourlyAgg{
				OperationalDate: opDate,
				Weekday:         workforce.WeekdayOf(opDate),
				HourTimeline:    timeline,
				EventType:       e.EventType,
			}
			buckets[k] = agg
		}
		agg.CountEvents++
	}

	aggs := make([]*HourlyAgg, 0, len(buckets))
	for _, agg := range buckets {
		aggs = append(aggs, agg)
	}
	return aggs
}
