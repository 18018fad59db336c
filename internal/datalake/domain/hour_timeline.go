package domain

import (
	"errors"
	"time"

	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// ErrInvalidHourTimeline is returned for hours outside 0..35.
var ErrInvalidHourTimeline = errors.New("hour timeline out of range")

// HourTimeline positions an event inside an operational night. Hours 0..23
// are the anchor calendar day; 24..35 encode 00..11 of the following calendar
// day that still belong to the prior operational night. The encoding is
// preserved verbatim in storage for interchange compatibility.
type HourTimeline int

// NewHourTimeline validates a raw timeline value.
func NewHourTimeline(h int) (HourTimeline, error) {
	if h < 0 || h > 35 {
		return 0, ErrInvalidHourTimeline
	}
	return HourTimeline(h), nil
}

// TimelineFor buckets an event time against its anchor date. A check-in
// between midnight and noon belongs to the previous operational night;
// same-day check-ins occupy buckets 14..23, so an early arrival before the
// 14:00 check-in window is clamped into the first bucket.
func TimelineFor(eventType EventType, eventTime time.Time) (operationalDate time.Time, timeline HourTimeline) {
	eventTime = eventTime.UTC()
	date := workforce.NormalizeDate(eventTime)
	hour := eventTime.Hour()

	if eventType == EventCheckIn {
		if hour < 12 {
			return date.AddDate(0, 0, -1), HourTimeline(hour + 24)
		}
		if hour < 14 {
			hour = 14
		}
	}
	return date, HourTimeline(hour)
}

// ClockHour maps the timeline back to a 0..23 clock hour.
func (h HourTimeline) ClockHour() int { return int(h) % 24 }

// DayOffset is 0 for the anchor day, 1 for the spill into the next day.
func (h HourTimeline) DayOffset() int { return int(h) / 24 }

// IsValid reports whether the value is inside the encoding range.
func (h HourTimeline) IsValid() bool { return h >= 0 && h <= 35 }
