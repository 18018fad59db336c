package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var (
	ErrSectorNameRequired = errors.New("sector name is required")
	ErrNoRooms            = errors.New("sector must have at least one room")
)

// ShiftTemplate is one worker-sized presence window offered by a sector.
type ShiftTemplate struct {
	Name  string    `json:"name"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	// Tag marks specialization requirements ("deep_clean", "laundry", ...).
	Tag string `json:"tag,omitempty"`
}

// Hours returns the template length in hours.
func (t ShiftTemplate) Hours() float64 {
	return float64(t.End.Minutes()-t.Start.Minutes()) / 60.0
}

// WeekdayShiftOverride pins a template's start and end for one weekday.
// Mandatory overrides replace generated slot times in place; advisory ones
// are ignored by the generator.
type WeekdayShiftOverride struct {
	Weekday      Weekday   `json:"weekday"`
	TemplateName string    `json:"template_name"`
	Start        TimeOfDay `json:"start"`
	End          TimeOfDay `json:"end"`
	Mandatory    bool      `json:"mandatory"`
}

// LunchPolicy configures lunch-window placement inside a shift.
type LunchPolicy struct {
	MinHoursBeforeLunch int       `json:"min_hours_before_lunch"`
	WindowStart         TimeOfDay `json:"window_start"`
	WindowEnd           TimeOfDay `json:"window_end"`
	DurationMinutes     int       `json:"duration_minutes"`
}

// DefaultShiftTemplates are the two stock housekeeping shifts.
func DefaultShiftTemplates() []ShiftTemplate {
	return []ShiftTemplate{
		{Name: "morning", Start: MustTimeOfDay(7, 0), End: MustTimeOfDay(15, 0)},
		{Name: "afternoon", Start: MustTimeOfDay(14, 0), End: MustTimeOfDay(22, 0)},
	}
}

// DefaultLunchPolicy places lunch at least 3h into the shift,
// inside 11:00-14:30, for one hour.
func DefaultLunchPolicy() LunchPolicy {
	return LunchPolicy{
		MinHoursBeforeLunch: 3,
		WindowStart:         MustTimeOfDay(11, 0),
		WindowEnd:           MustTimeOfDay(14, 30),
		DurationMinutes:     60,
	}
}

// DefaultTurnoverRates is the per-weekday checkout-rate fallback used when
// neither real events nor learned statistics exist (Sunday..Saturday).
var DefaultTurnoverRates = [7]float64{0.55, 0.35, 0.25, 0.25, 0.30, 0.35, 0.45}

// DefaultArrivalRates is the analogous check-in fallback.
var DefaultArrivalRates = [7]float64{0.30, 0.40, 0.30, 0.25, 0.35, 0.50, 0.55}

// SectorParameters holds the operational numbers a sector plans with.
type SectorParameters struct {
	TotalRooms           int                    `json:"total_rooms"`
	TimeVacantDirtyMin   float64                `json:"time_vacant_dirty_min"`
	TimeStayoverMin      float64                `json:"time_stayover_min"`
	BufferPct            float64                `json:"buffer_pct"`
	UtilizationTargetPct float64                `json:"utilization_target_pct"`
	AvgShiftHours        float64                `json:"avg_shift_hours"`
	SafetyPP             map[Weekday]float64    `json:"safety_pp"`
	TurnoverRates        map[Weekday]float64    `json:"turnover_rates,omitempty"`
	ArrivalRates         map[Weekday]float64    `json:"arrival_rates,omitempty"`
	ShiftTemplates       []ShiftTemplate        `json:"shift_templates"`
	ShiftOverrides       []WeekdayShiftOverride `json:"shift_overrides,omitempty"`
	Lunch                LunchPolicy            `json:"lunch"`
}

// DefaultSectorParameters returns the stock housekeeping parameter set.
func DefaultSectorParameters(totalRooms int) SectorParameters {
	return SectorParameters{
		TotalRooms:           totalRooms,
		TimeVacantDirtyMin:   25,
		TimeStayoverMin:      10,
		BufferPct:            10,
		UtilizationTargetPct: 85,
		AvgShiftHours:        8,
		SafetyPP:             map[Weekday]float64{},
		ShiftTemplates:       DefaultShiftTemplates(),
		Lunch:                DefaultLunchPolicy(),
	}
}

// SafetyFor returns the safety percentage points configured for a weekday.
func (p SectorParameters) SafetyFor(w Weekday) float64 {
	return p.SafetyPP[w]
}

// TurnoverRateFor returns the configured checkout rate for a weekday,
// falling back to the stock table.
func (p SectorParameters) TurnoverRateFor(w Weekday) float64 {
	if rate, ok := p.TurnoverRates[w]; ok {
		return rate
	}
	return DefaultTurnoverRates[w]
}

// ArrivalRateFor returns the configured check-in rate for a weekday,
// falling back to the stock table.
func (p SectorParameters) ArrivalRateFor(w Weekday) float64 {
	if rate, ok := p.ArrivalRates[w]; ok {
		return rate
	}
	return DefaultArrivalRates[w]
}

// Sector is an organizational unit owning rules, activities, and employees.
type Sector struct {
	sharedDomain.BaseAggregateRoot
	name   string
	params SectorParameters
}

// NewSector creates a new sector.
func NewSector(name string, params SectorParameters) (*Sector, error) {
	if name == "" {
		return nil, ErrSectorNameRequired
	}
	if params.TotalRooms <= 0 {
		return nil, ErrNoRooms
	}
	return &Sector{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		name:              name,
		params:            params,
	}, nil
}

// RehydrateSector recreates a sector from persisted state.
func RehydrateSector(id uuid.UUID, name string, params SectorParameters, createdAt, updatedAt time.Time) *Sector {
	return &Sector{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		name:   name,
		params: params,
	}
}

func (s *Sector) Name() string                 { return s.name }
func (s *Sector) Parameters() SectorParameters { return s.params }

// UpdateParameters replaces the operational parameter set.
func (s *Sector) UpdateParameters(params SectorParameters) error {
	if params.TotalRooms <= 0 {
		return ErrNoRooms
	}
	s.params = params
	s.Touch()
	return nil
}
