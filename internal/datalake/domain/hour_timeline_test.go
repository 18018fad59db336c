package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHourTimeline(t *testing.T) {
	for _, h := range []int{0, 12, 23, 24, 35} {
		got, err := NewHourTimeline(h)
		require.NoError(t, err)
		assert.Equal(t, HourTimeline(h), got)
	}
	_, err := NewHourTimeline(36)
	assert.ErrorIs(t, err, ErrInvalidHourTimeline)
	_, err = NewHourTimeline(-1)
	assert.ErrorIs(t, err, ErrInvalidHourTimeline)
}

func TestTimelineFor(t *testing.T) {
	t.Run("afternoon checkin stays on its calendar day", func(t *testing.T) {
		eventTime := time.Date(2025, time.March, 8, 15, 30, 0, 0, time.UTC)
		opDate, timeline := TimelineFor(EventCheckIn, eventTime)
		assert.Equal(t, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC), opDate)
		assert.Equal(t, HourTimeline(15), timeline)
	})

	t.Run("early-morning checkin belongs to the prior operational night", func(t *testing.T) {
		eventTime := time.Date(2025, time.March, 9, 2, 0, 0, 0, time.UTC)
		opDate, timeline := TimelineFor(EventCheckIn, eventTime)
		assert.Equal(t, time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC), opDate)
		assert.Equal(t, HourTimeline(26), timeline)
		assert.Equal(t, 2, timeline.ClockHour())
		assert.Equal(t, 1, timeline.DayOffset())
	})

	t.Run("early-morning checkout keeps its calendar day", func(t *testing.T) {
		eventTime := time.Date(2025, time.March, 9, 7, 0, 0, 0, time.UTC)
		opDate, timeline := TimelineFor(EventCheckOut, eventTime)
		assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), opDate)
		assert.Equal(t, HourTimeline(7), timeline)
		assert.Equal(t, 0, timeline.DayOffset())
	})

	t.Run("early arrival clamps into the first checkin bucket", func(t *testing.T) {
		for _, hour := range []int{12, 13} {
			eventTime := time.Date(2025, time.March, 9, hour, 30, 0, 0, time.UTC)
			opDate, timeline := TimelineFor(EventCheckIn, eventTime)
			assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), opDate)
			assert.Equal(t, HourTimeline(14), timeline)
		}
	})

	t.Run("checkin window opens at fourteen", func(t *testing.T) {
		eventTime := time.Date(2025, time.March, 9, 14, 0, 0, 0, time.UTC)
		opDate, timeline := TimelineFor(EventCheckIn, eventTime)
		assert.Equal(t, time.Date(2025, time.March, 9, 0, 0, 0, 0, time.UTC), opDate)
		assert.Equal(t, HourTimeline(14), timeline)
	})
}

func TestAggregate(t *testing.T) {
	anchor := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	upload := uuid.New()

	at := func(day, hour int) *time.Time {
		ts := time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)
		return &ts
	}

	events := []*FrontdeskEvent{
		NewFrontdeskEvent(EventCheckIn, anchor, at(8, 14), upload),
		NewFrontdeskEvent(EventCheckIn, anchor, at(8, 14), upload),
		NewFrontdeskEvent(EventCheckIn, anchor, at(9, 1), upload), // spills back to the 8th
		NewFrontdeskEvent(EventCheckOut, anchor, at(8, 10), upload),
		NewFrontdeskEvent(EventCheckOut, anchor, nil, upload), // timeless rows land at noon
	}

	aggs := Aggregate(events)
	byKey := make(map[HourTimeline]map[EventType]int)
	for _, agg := range aggs {
		if byKey[agg.HourTimeline] == nil {
			byKey[agg.HourTimeline] = make(map[EventType]int)
		}
		byKey[agg.HourTimeline][agg.EventType] = agg.CountEvents
	}

	assert.Equal(t, 2, byKey[14][EventCheckIn])
	assert.Equal(t, 1, byKey[25][EventCheckIn])
	assert.Equal(t, 1, byKey[10][EventCheckOut])
	assert.Equal(t, 1, byKey[12][EventCheckOut])
	assert.Len(t, aggs, 4)
}
