package domain

import (
	"time"

	"github.com/google/uuid"

	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// CountSource records which fallback tier produced a per-day count.
type CountSource string

const (
	SourceReal     CountSource = "REAL"
	SourceStats    CountSource = "TURNOVER_STATS"
	SourceFallback CountSource = "DEFAULT_FALLBACK"
)

// DemandDaily is the staffing requirement for one horizon day of a run,
// together with the full calculation memory that produced it.
type DemandDaily struct {
	ID                 uuid.UUID
	RunID              uuid.UUID
	TargetDate         time.Time
	OccupiedRooms      int
	DeparturesCount    int
	DeparturesSource   CountSource
	ArrivalsCount      int
	ArrivalsSource     CountSource
	StayoversEstimated int
	MinutesVariable    float64
	MinutesConstant    float64
	MinutesRaw         float64
	MinutesBuffered    float64
	MinutesFinal       float64
	HoursProductive    float64
	HoursTotal         float64
	HeadcountRequired  float64
	HeadcountRounded   int
	Breakdown          Breakdown
	CreatedAt          time.Time
}

// NewDemandDaily creates a demand row for a run day.
func NewDemandDaily(runID uuid.UUID, targetDate time.Time) *DemandDaily {
	return &DemandDaily{
		ID:         uuid.New(),
		RunID:      runID,
		TargetDate: workforce.NormalizeDate(targetDate),
		CreatedAt:  time.Now().UTC(),
	}
}

// Breakdown is the per-day explanation document. The field names are the
// report contract and must stay stable.
type Breakdown struct {
	Formula            string             `json:"formula"`
	MethodVersion      string             `json:"method_version"`
	Inputs             map[string]float64 `json:"inputs"`
	CalendarFactors    map[string]any     `json:"calendar_factors"`
	ConstantActivities []ConstantActivity `json:"constant_activities"`
	AppliedRules       []AppliedRule      `json:"regras_aplicadas"`
	Calculations       map[string]float64 `json:"calculations"`
}

// ConstantActivity is one CONSTANT-driver item contributing fixed minutes.
type ConstantActivity struct {
	ActivityID uuid.UUID `json:"activity_id"`
	Name       string    `json:"name"`
	Minutes    float64   `json:"minutes"`
}

// AppliedRule records one calculation rule that fired, with the minutes
// before and after.
type AppliedRule struct {
	RuleID        uuid.UUID `json:"rule_id"`
	Scope         string    `json:"scope"`
	Condition     string    `json:"condition,omitempty"`
	Action        string    `json:"action"`
	MinutesBefore float64   `json:"minutes_before"`
	MinutesAfter  float64   `json:"minutes_after"`
}
