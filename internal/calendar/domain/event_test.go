package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	eventStart = time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC)
	eventEnd   = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
)

func TestNewCalendarEvent(t *testing.T) {
	sectorID := uuid.New()

	t.Run("valid sector event", func(t *testing.T) {
		event, err := NewCalendarEvent(ScopeSector, &sectorID, "Festa Junina", eventStart, eventEnd, 0.9, 1.3, false)
		require.NoError(t, err)
		assert.True(t, event.IsActive())
		assert.Equal(t, &sectorID, event.SectorID())
	})

	t.Run("global events drop the sector", func(t *testing.T) {
		event, err := NewCalendarEvent(ScopeGlobal, &sectorID, "Feriado nacional", eventStart, eventStart, 1, 1.5, true)
		require.NoError(t, err)
		assert.Nil(t, event.SectorID())
		assert.True(t, event.BlocksConvocations())
	})

	t.Run("rejections", func(t *testing.T) {
		_, err := NewCalendarEvent(ScopeGlobal, nil, "", eventStart, eventEnd, 1, 1, false)
		assert.ErrorIs(t, err, ErrNameRequired)

		_, err = NewCalendarEvent(ScopeGlobal, nil, "invertido", eventEnd, eventStart, 1, 1, false)
		assert.ErrorIs(t, err, ErrBadDateRange)

		_, err = NewCalendarEvent(ScopeGlobal, nil, "fator zero", eventStart, eventEnd, 0, 1, false)
		assert.ErrorIs(t, err, ErrBadFactor)

		_, err = NewCalendarEvent(ScopeSector, nil, "sem setor", eventStart, eventEnd, 1, 1, false)
		assert.ErrorIs(t, err, ErrSectorRequired)
	})
}

func TestCalendarEvent_Covers(t *testing.T) {
	event, err := NewCalendarEvent(ScopeGlobal, nil, "manutenção", eventStart, eventEnd, 0.8, 1, false)
	require.NoError(t, err)

	// Both endpoints are covered.
	assert.True(t, event.Covers(eventStart))
	assert.True(t, event.Covers(eventEnd))
	assert.True(t, event.Covers(eventStart.Add(36*time.Hour)))
	assert.False(t, event.Covers(eventStart.AddDate(0, 0, -1)))
	assert.False(t, event.Covers(eventEnd.AddDate(0, 0, 1)))

	event.Deactivate()
	assert.False(t, event.Covers(eventStart))
}

func TestCompose(t *testing.T) {
	sectorID := uuid.New()

	global, err := NewCalendarEvent(ScopeGlobal, nil, "Feriado", eventStart, eventEnd, 0.9, 1.5, false)
	require.NoError(t, err)
	sector, err := NewCalendarEvent(ScopeSector, &sectorID, "Obra no andar", eventStart, eventEnd, 0.8, 1.2, true)
	require.NoError(t, err)
	elsewhere, err := NewCalendarEvent(ScopeGlobal, nil, "Outro fim de semana", eventEnd.AddDate(0, 0, 7), eventEnd.AddDate(0, 0, 8), 0.5, 0.5, false)
	require.NoError(t, err)

	t.Run("multiplies global then sector", func(t *testing.T) {
		factors := Compose(eventStart, []*CalendarEvent{sector, global, elsewhere})
		assert.InDelta(t, 0.9*0.8, factors.ProductivityFactor, 1e-9)
		assert.InDelta(t, 1.5*1.2, factors.DemandFactor, 1e-9)
		assert.True(t, factors.BlockConvocations)
		assert.Equal(t, []string{"Feriado", "Obra no andar"}, factors.AppliedEvents)
	})

	t.Run("no events in force is neutral", func(t *testing.T) {
		factors := Compose(eventStart.AddDate(0, 0, -10), []*CalendarEvent{sector, global})
		assert.Equal(t, NeutralFactors(), factors)
	})
}
