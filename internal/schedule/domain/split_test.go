package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

func TestSplitWeights(t *testing.T) {
	checkout := map[datalake.HourTimeline]float64{
		8: 10, 9: 20, 10: 25, 11: 15, // morning block: 70
		12: 10, 13: 10, // midday: 20, shared 70/30
	}
	checkin := map[datalake.HourTimeline]float64{
		15: 30, 18: 20, 22: 10, // afternoon block: 60
		23: 40, // outside the 14-22 window
	}

	morningW, afternoonW := SplitWeights(checkout, checkin)
	assert.InDelta(t, 70+0.7*20, morningW, 1e-9)
	assert.InDelta(t, 0.3*20+60, afternoonW, 1e-9)
}

func TestMorningRatio(t *testing.T) {
	assert.InDelta(t, 0.6, MorningRatio(60, 40), 1e-9)
	// Clamped into [0.35, 0.65].
	assert.InDelta(t, 0.65, MorningRatio(90, 10), 1e-9)
	assert.InDelta(t, 0.35, MorningRatio(10, 90), 1e-9)
	// No signal falls back to the stock ratio.
	assert.InDelta(t, DefaultMorningRatio, MorningRatio(0, 0), 1e-9)
}

func TestSplitHeadcount(t *testing.T) {
	tests := []struct {
		name      string
		headcount int
		ratio     float64
		morning   int
		afternoon int
	}{
		{"zero", 0, 0.55, 0, 0},
		{"single head goes to the heavier shift", 1, 0.55, 1, 0},
		{"even split", 4, 0.5, 2, 2},
		{"default ratio", 5, 0.55, 3, 2},
		{"extreme ratio still staffs both shifts", 3, 0.95, 2, 1},
		{"low ratio keeps a morning head", 2, 0.05, 1, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			morning, afternoon := SplitHeadcount(tc.headcount, tc.ratio)
			assert.Equal(t, tc.morning, morning)
			assert.Equal(t, tc.afternoon, afternoon)
			assert.Equal(t, tc.headcount, morning+afternoon)
		})
	}
}

func TestLunchWindow(t *testing.T) {
	policy := workforce.DefaultLunchPolicy()

	t.Run("morning shift lunches three hours in", func(t *testing.T) {
		morning := workforce.DefaultShiftTemplates()[0] // 07:00-15:00
		start, end := LunchWindow(morning, policy, 0)
		require.NotNil(t, start)
		require.NotNil(t, end)
		// 07:00 + 3h = 10:00, clipped up to the 11:00 window start.
		assert.Equal(t, workforce.MustTimeOfDay(11, 0), *start)
		assert.Equal(t, workforce.MustTimeOfDay(12, 0), *end)
	})

	t.Run("afternoon shift has no feasible lunch", func(t *testing.T) {
		afternoon := workforce.DefaultShiftTemplates()[1] // 14:00-22:00
		start, end := LunchWindow(afternoon, policy, 0)
		assert.Nil(t, start)
		assert.Nil(t, end)
	})

	t.Run("short break fits where the full hour does not", func(t *testing.T) {
		shift := workforce.ShiftTemplate{Name: "mid", Start: workforce.MustTimeOfDay(10, 0), End: workforce.MustTimeOfDay(18, 0)}
		start, end := LunchWindow(shift, policy, 30)
		require.NotNil(t, start)
		assert.Equal(t, workforce.MustTimeOfDay(13, 0), *start)
		assert.Equal(t, workforce.MustTimeOfDay(13, 30), *end)
	})
}
