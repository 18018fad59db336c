package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var testWeekStart = time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

func morningSlot(t *testing.T, planID uuid.UUID, date time.Time) *ShiftSlot {
	t.Helper()
	template := workforce.DefaultShiftTemplates()[0]
	lunchStart, lunchEnd := LunchWindow(template, workforce.DefaultLunchPolicy(), 0)
	return NewShiftSlot(planID, date, template, lunchStart, lunchEnd)
}

func TestNewSchedulePlan(t *testing.T) {
	sectorID, runID := uuid.New(), uuid.New()

	plan, err := NewSchedulePlan(sectorID, runID, testWeekStart, PlanBaseline, nil)
	require.NoError(t, err)
	assert.Equal(t, PlanDraft, plan.Status())
	assert.Equal(t, testWeekStart.AddDate(0, 0, 6), plan.WeekEnd())
	assert.Zero(t, plan.Totals().Headcount)

	t.Run("adjustments require a baseline", func(t *testing.T) {
		_, err := NewSchedulePlan(sectorID, runID, testWeekStart, PlanAdjustment, nil)
		assert.ErrorIs(t, err, ErrBaselineRequired)

		baselineID := plan.ID()
		adjustment, err := NewSchedulePlan(sectorID, runID, testWeekStart, PlanAdjustment, &baselineID)
		require.NoError(t, err)
		assert.Equal(t, &baselineID, adjustment.BaselinePlanID())
	})
}

func TestSchedulePlan_Totals(t *testing.T) {
	plan, err := NewSchedulePlan(uuid.New(), uuid.New(), testWeekStart, PlanBaseline, nil)
	require.NoError(t, err)

	first := morningSlot(t, plan.ID(), testWeekStart)
	second := morningSlot(t, plan.ID(), testWeekStart.AddDate(0, 0, 1))
	plan.AddSlot(first)
	plan.AddSlot(second)

	// Each morning slot is 8h minus a 1h lunch.
	assert.Equal(t, 2, plan.Totals().Headcount)
	assert.InDelta(t, 14.0, plan.Totals().Hours, 1e-9)

	require.True(t, plan.RemoveSlot(first.ID()))
	assert.Equal(t, 1, plan.Totals().Headcount)
	assert.InDelta(t, 7.0, plan.Totals().Hours, 1e-9)

	assert.False(t, plan.RemoveSlot(uuid.New()))

	slots := plan.SlotsOn(testWeekStart.AddDate(0, 0, 1))
	require.Len(t, slots, 1)
	assert.Equal(t, second.ID(), slots[0].ID())
	assert.Empty(t, plan.SlotsOn(testWeekStart))
}

func TestSchedulePlan_Lifecycle(t *testing.T) {
	plan, err := NewSchedulePlan(uuid.New(), uuid.New(), testWeekStart, PlanBaseline, nil)
	require.NoError(t, err)

	require.NoError(t, plan.Finalize())
	assert.Equal(t, PlanFinal, plan.Status())
	assert.ErrorIs(t, plan.Finalize(), ErrPlanTerminal)

	plan.MarkAdjusted()
	assert.Equal(t, PlanAdjusted, plan.Status())

	require.NoError(t, plan.Cancel())
	assert.ErrorIs(t, plan.Cancel(), ErrPlanTerminal)
}

func TestSchedulePlan_IsValid(t *testing.T) {
	plan, err := NewSchedulePlan(uuid.New(), uuid.New(), testWeekStart, PlanBaseline, nil)
	require.NoError(t, err)
	assert.True(t, plan.IsValid())

	plan.SetValidations([]sharedDomain.Finding{{Severity: sharedDomain.SeverityWarning, Message: "short notice"}})
	assert.True(t, plan.IsValid())

	plan.SetValidations([]sharedDomain.Finding{{Severity: sharedDomain.SeverityError, Message: "weekly cap exceeded"}})
	assert.False(t, plan.IsValid())
}

func TestShiftSlot(t *testing.T) {
	planID := uuid.New()
	slot := morningSlot(t, planID, testWeekStart)

	assert.InDelta(t, 7.0, slot.HoursWorked(), 1e-9)
	assert.Equal(t, 60, slot.LunchMinutes())
	assert.Equal(t, 420, slot.AvailableMinutes())

	t.Run("covers working hours but not lunch", func(t *testing.T) {
		assert.True(t, slot.CoversHour(7))
		assert.True(t, slot.CoversHour(10))
		assert.False(t, slot.CoversHour(11)) // lunch 11:00-12:00
		assert.True(t, slot.CoversHour(12))
		assert.True(t, slot.CoversHour(14))
		assert.False(t, slot.CoversHour(15)) // end is exclusive
		assert.False(t, slot.CoversHour(6))
	})

	t.Run("assignment binds in place", func(t *testing.T) {
		employeeID := uuid.New()
		require.False(t, slot.IsAssigned())

		slot.Assign(employeeID)
		assert.True(t, slot.IsAssigned())
		require.NotNil(t, slot.EmployeeID())
		assert.Equal(t, employeeID, *slot.EmployeeID())

		slot.Unassign()
		assert.False(t, slot.IsAssigned())
		assert.Nil(t, slot.EmployeeID())
	})

	t.Run("override replaces the window", func(t *testing.T) {
		slot.OverrideTimes(workforce.MustTimeOfDay(8, 0), workforce.MustTimeOfDay(16, 0))
		assert.Equal(t, workforce.MustTimeOfDay(8, 0), slot.Start())
		assert.InDelta(t, 7.0, slot.HoursWorked(), 1e-9)
	})

	t.Run("starts at the absolute instant", func(t *testing.T) {
		fresh := morningSlot(t, planID, testWeekStart)
		assert.Equal(t, testWeekStart.Add(7*time.Hour), fresh.StartsAt())
	})
}
