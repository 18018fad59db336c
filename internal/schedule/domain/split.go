package domain

import (
	"math"

	datalake "github.com/hotelops/roster/internal/datalake/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// DefaultMorningRatio is used when no distribution data exists for a weekday.
const DefaultMorningRatio = 0.55

// SplitWeights derives morning and afternoon workload weights from the hourly
// distribution shares. Checkouts from 8 to 11 load the morning shift fully;
// the 12 to 13 band is shared 70/30 with the afternoon, which also absorbs
// the 14 to 22 check-in window.
func SplitWeights(checkoutShares, checkinShares map[datalake.HourTimeline]float64) (morningW, afternoonW float64) {
	for h := 8; h <= 11; h++ {
		morningW += checkoutShares[datalake.HourTimeline(h)]
	}
	var midday float64
	for h := 12; h <= 13; h++ {
		midday += checkoutShares[datalake.HourTimeline(h)]
	}
	morningW += 0.7 * midday
	afternoonW = 0.3 * midday
	for h := 14; h <= 22; h++ {
		afternoonW += checkinShares[datalake.HourTimeline(h)]
	}
	return morningW, afternoonW
}

// MorningRatio clamps the morning share of the split into [0.35, 0.65],
// falling back to the stock ratio when there is no signal.
func MorningRatio(morningW, afternoonW float64) float64 {
	total := morningW + afternoonW
	if total <= 0 {
		return DefaultMorningRatio
	}
	ratio := morningW / total
	if ratio < 0.35 {
		return 0.35
	}
	if ratio > 0.65 {
		return 0.65
	}
	return ratio
}

// SplitHeadcount divides a day's headcount between morning and afternoon.
// Both shifts get at least one worker whenever headcount allows it.
func SplitHeadcount(headcount int, morningRatio float64) (morning, afternoon int) {
	if headcount <= 0 {
		return 0, 0
	}
	morning = int(math.Round(float64(headcount) * morningRatio))
	if morning < 1 {
		morning = 1
	}
	if morning > headcount {
		morning = headcount
	}
	afternoon = headcount - morning
	if headcount >= 2 {
		if morning == 0 {
			morning, afternoon = 1, headcount-1
		}
		if afternoon == 0 {
			morning, afternoon = headcount-1, 1
		}
	}
	return morning, afternoon
}

// LunchWindow places a lunch inside a shift: earliest start is
// min_hours_before_lunch into the shift, clipped into the policy window. Nil
// when no feasible placement exists.
func LunchWindow(template workforce.ShiftTemplate, policy workforce.LunchPolicy, durationMinutes int) (*workforce.TimeOfDay, *workforce.TimeOfDay) {
	if durationMinutes <= 0 {
		durationMinutes = policy.DurationMinutes
	}

	earliest := template.Start.Minutes() + policy.MinHoursBeforeLunch*60
	if earliest < policy.WindowStart.Minutes() {
		earliest = policy.WindowStart.Minutes()
	}
	latestEnd := policy.WindowEnd.Minutes()
	if latestEnd > template.End.Minutes() {
		latestEnd = template.End.Minutes()
	}
	if earliest+durationMinutes > latestEnd {
		return nil, nil
	}

	start := workforce.TimeOfDay(earliest)
	end := workforce.TimeOfDay(earliest + durationMinutes)
	return &start, &end
}
