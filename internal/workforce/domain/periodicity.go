package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var ErrInvalidPeriodicity = errors.New("invalid periodicity")

// PeriodicityKind names the recurrence cadence.
type PeriodicityKind string

const (
	PeriodicityDaily       PeriodicityKind = "DAILY"
	PeriodicityWeekly      PeriodicityKind = "WEEKLY"
	PeriodicityFortnightly PeriodicityKind = "FORTNIGHTLY"
	PeriodicityMonthly     PeriodicityKind = "MONTHLY"
	PeriodicityQuarterly   PeriodicityKind = "QUARTERLY"
	PeriodicityYearly      PeriodicityKind = "YEARLY"
	PeriodicityCustom      PeriodicityKind = "CUSTOM"
)

// PeriodicityUnit is the unit of a CUSTOM cadence.
type PeriodicityUnit string

const (
	UnitDays   PeriodicityUnit = "DAYS"
	UnitMonths PeriodicityUnit = "MONTHS"
	UnitYears  PeriodicityUnit = "YEARS"
)

// AnchorPolicy decides what happens when a monthly/yearly anchor day does not
// exist in the target month (e.g. the 31st).
type AnchorPolicy string

const (
	AnchorSameDay          AnchorPolicy = "SAME_DAY"
	AnchorLastDayIfMissing AnchorPolicy = "LAST_DAY_IF_MISSING"
)

// ActivityPeriodicity is a named recurrence used by governance activities.
type ActivityPeriodicity struct {
	sharedDomain.BaseEntity
	name       string
	kind       PeriodicityKind
	unit       PeriodicityUnit
	value      int
	anchor     AnchorPolicy
	approxDays int
}

// NewActivityPeriodicity creates a periodicity. For CUSTOM kinds the (unit,
// value) pair is required; stock kinds derive it.
func NewActivityPeriodicity(name string, kind PeriodicityKind, unit PeriodicityUnit, value int, anchor AnchorPolicy) (*ActivityPeriodicity, error) {
	if kind == PeriodicityCustom && value <= 0 {
		return nil, ErrInvalidPeriodicity
	}
	if anchor == "" {
		anchor = AnchorSameDay
	}
	p := &ActivityPeriodicity{
		BaseEntity: sharedDomain.NewBaseEntity(),
		name:       name,
		kind:       kind,
		unit:       unit,
		value:      value,
		anchor:     anchor,
	}
	p.approxDays = approximateDays(kind, unit, value)
	if p.approxDays <= 0 {
		return nil, ErrInvalidPeriodicity
	}
	return p, nil
}

// RehydrateActivityPeriodicity recreates a periodicity from persisted state.
func RehydrateActivityPeriodicity(id uuid.UUID, name string, kind PeriodicityKind, unit PeriodicityUnit, value int, anchor AnchorPolicy, approxDays int, createdAt, updatedAt time.Time) *ActivityPeriodicity {
	return &ActivityPeriodicity{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		name:       name,
		kind:       kind,
		unit:       unit,
		value:      value,
		anchor:     anchor,
		approxDays: approxDays,
	}
}

func (p *ActivityPeriodicity) Name() string          { return p.name }
func (p *ActivityPeriodicity) Kind() PeriodicityKind { return p.kind }
func (p *ActivityPeriodicity) Unit() PeriodicityUnit { return p.unit }
func (p *ActivityPeriodicity) Value() int            { return p.value }
func (p *ActivityPeriodicity) Anchor() AnchorPolicy  { return p.anchor }

// ApproxDays is the cached approximate interval length in days.
func (p *ActivityPeriodicity) ApproxDays() int { return p.approxDays }

func approximateDays(kind PeriodicityKind, unit PeriodicityUnit, value int) int {
	switch kind {
	case PeriodicityDaily:
		return 1
	case PeriodicityWeekly:
		return 7
	case PeriodicityFortnightly:
		return 14
	case PeriodicityMonthly:
		return 30
	case PeriodicityQuarterly:
		return 91
	case PeriodicityYearly:
		return 365
	case PeriodicityCustom:
		switch unit {
		case UnitDays:
			return value
		case UnitMonths:
			return value * 30
		case UnitYears:
			return value * 365
		}
	}
	return 0
}

// IsDueOn reports whether an activity anchored at firstExecution falls due on
// the given date, with a symmetric tolerance window in days. DAILY cadences
// are always due.
func (p *ActivityPeriodicity) IsDueOn(date, firstExecution time.Time, toleranceDays int) bool {
	if p.kind == PeriodicityDaily {
		return true
	}

	date = NormalizeDate(date)
	first := NormalizeDate(firstExecution)
	if date.Before(first) {
		return false
	}

	windowStart := date.AddDate(0, 0, -toleranceDays)
	windowEnd := date.AddDate(0, 0, toleranceDays)

	rule, err := p.recurrence(first)
	if err != nil {
		// Cadence not expressible as a recurrence rule: fall back to the
		// approximate-days modulo the legacy planner used.
		days := int(date.Sub(first).Hours() / 24)
		mod := days % p.approxDays
		return mod <= toleranceDays || p.approxDays-mod <= toleranceDays
	}

	for _, occ := range rule.Between(windowStart, windowEnd, true) {
		occ = NormalizeDate(occ)
		if !occ.Before(windowStart) && !occ.After(windowEnd) {
			return true
		}
	}

	if p.anchor == AnchorLastDayIfMissing && p.monthBased() {
		// rrule drops occurrences whose anchor day is missing in the target
		// month; treat the last day of that month as the occurrence instead.
		if due := p.lastDayFallback(first, windowStart, windowEnd); due {
			return true
		}
	}
	return false
}

func (p *ActivityPeriodicity) monthBased() bool {
	switch p.kind {
	case PeriodicityMonthly, PeriodicityQuarterly, PeriodicityYearly:
		return true
	case PeriodicityCustom:
		return p.unit == UnitMonths || p.unit == UnitYears
	}
	return false
}

func (p *ActivityPeriodicity) recurrence(first time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{Dtstart: first, Interval: 1}
	switch p.kind {
	case PeriodicityWeekly:
		opt.Freq = rrule.WEEKLY
	case PeriodicityFortnightly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case PeriodicityMonthly:
		opt.Freq = rrule.MONTHLY
	case PeriodicityQuarterly:
		opt.Freq = rrule.MONTHLY
		opt.Interval = 3
	case PeriodicityYearly:
		opt.Freq = rrule.YEARLY
	case PeriodicityCustom:
		switch p.unit {
		case UnitDays:
			opt.Freq = rrule.DAILY
			opt.Interval = p.value
		case UnitMonths:
			opt.Freq = rrule.MONTHLY
			opt.Interval = p.value
		case UnitYears:
			opt.Freq = rrule.YEARLY
			opt.Interval = p.value
		default:
			return nil, ErrInvalidPeriodicity
		}
	default:
		return nil, ErrInvalidPeriodicity
	}
	return rrule.NewRRule(opt)
}

// lastDayFallback checks whether a skipped anchor day lands, clamped to the
// end of its month, inside the due window.
func (p *ActivityPeriodicity) lastDayFallback(first, windowStart, windowEnd time.Time) bool {
	if first.Day() < 29 {
		return false
	}
	stepMonths := 0
	switch p.kind {
	case PeriodicityMonthly:
		stepMonths = 1
	case PeriodicityQuarterly:
		stepMonths = 3
	case PeriodicityYearly:
		stepMonths = 12
	case PeriodicityCustom:
		if p.unit == UnitMonths {
			stepMonths = p.value
		} else {
			stepMonths = p.value * 12
		}
	}
	if stepMonths == 0 {
		return false
	}

	for anchor := first; !anchor.After(windowEnd); {
		year, month, _ := anchor.Date()
		lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
		if lastDay.Day() < first.Day() {
			if !lastDay.Before(windowStart) && !lastDay.After(windowEnd) {
				return true
			}
		}
		anchor = time.Date(year, month+time.Month(stepMonths), first.Day(), 0, 0, 0, 0, time.UTC)
		if anchor.Day() != first.Day() {
			// Overflowed into the next month; renormalize to the anchor day.
			anchor = time.Date(year, month+time.Month(stepMonths)+1, 0, 0, 0, 0, 0, time.UTC)
		}
	}
	return false
}
