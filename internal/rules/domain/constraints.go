package domain

import (
	"sort"
	"strings"
)

// Constraints is the flat map of effective numeric/boolean limits a sector
// plans under, after reducing the active rule set.
type Constraints struct {
	MaxWeeklyHours        float64            `json:"max_weekly_hours"`
	MaxDailyHours         float64            `json:"max_daily_hours"`
	MinRestHours          float64            `json:"min_rest_between_shifts_hours"`
	AdvanceNoticeHours    float64            `json:"advance_notice_hours"`
	MaxConsecutiveDays    int                `json:"max_consecutive_days"`
	BufferPct             *float64           `json:"buffer_pct,omitempty"`
	UtilizationTargetPct  *float64           `json:"utilization_target_pct,omitempty"`
	ResponseDeadlineHours float64            `json:"response_deadline_hours"`
	LunchMinutes          int                `json:"lunch_minutes"`
	ShiftFactors          map[string]float64 `json:"shift_factors,omitempty"`
	IntermittentMode      bool               `json:"intermittent_mode"`

	// Sources maps each constraint key to the code of the rule that set it.
	Sources map[string]string `json:"sources,omitempty"`
}

// DefaultConstraints are the statutory fallbacks applied before any rule.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxWeeklyHours:        44,
		MaxDailyHours:         8,
		MinRestHours:          11,
		AdvanceNoticeHours:    72,
		MaxConsecutiveDays:    6,
		ResponseDeadlineHours: 24,
		LunchMinutes:          60,
		ShiftFactors:          map[string]float64{},
		Sources:               map[string]string{},
	}
}

// rigidityRank orders rigidity for precedence: higher rank wins.
func rigidityRank(r Rigidity) int {
	switch r {
	case RigidityMandatory:
		return 3
	case RigidityDesirable:
		return 2
	default:
		return 1
	}
}

// kindRank orders kinds for precedence: sector OPERATIONAL overrides global
// LABOR/SYSTEM on matching keys.
func kindRank(k Kind) int {
	if k.IsGlobal() {
		return 1
	}
	return 2
}

// Reduce folds an active rule set into effective constraints. Rules are
// applied weakest first so stronger ones overwrite: global before sector,
// lower rigidity before higher, higher priority number before lower
// (priority 1 is the strongest).
func Reduce(rules []*Rule) Constraints {
	ordered := append([]*Rule(nil), rules...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if kindRank(a.Kind()) != kindRank(b.Kind()) {
			return kindRank(a.Kind()) < kindRank(b.Kind())
		}
		if rigidityRank(a.Rigidity()) != rigidityRank(b.Rigidity()) {
			return rigidityRank(a.Rigidity()) < rigidityRank(b.Rigidity())
		}
		return a.Priority() > b.Priority()
	})

	constraints := DefaultConstraints()
	for _, rule := range ordered {
		for key, value := range rule.Metadata() {
			constraints.apply(key, value, rule.Code())
		}
		for flag, on := range rule.Flags() {
			switch flag {
			case FlagIntermittentMode, FlagBlockFixed:
				constraints.IntermittentMode = on
				constraints.Sources[FlagIntermittentMode] = rule.Code()
			}
		}
	}
	return constraints
}

func (c *Constraints) apply(key string, value float64, code string) {
	switch key {
	case KeyMaxWeeklyHours:
		c.MaxWeeklyHours = value
	case KeyMaxDailyHours:
		c.MaxDailyHours = value
	case KeyMinRestHours:
		c.MinRestHours = value
	case KeyAdvanceNoticeHours:
		c.AdvanceNoticeHours = value
	case KeyMaxConsecutiveDays:
		c.MaxConsecutiveDays = int(value)
	case KeyBufferPct:
		v := value
		c.BufferPct = &v
	case KeyUtilizationTargetPct:
		v := value
		c.UtilizationTargetPct = &v
	case KeyResponseDeadlineHours:
		c.ResponseDeadlineHours = value
	case KeyLunchMinutes:
		c.LunchMinutes = int(value)
	default:
		if name, ok := strings.CutPrefix(key, KeyShiftFactorPrefix); ok {
			c.ShiftFactors[name] = value
		} else {
			return
		}
	}
	c.Sources[key] = code
}
