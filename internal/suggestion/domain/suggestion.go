package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// ReplanType tells which signal tripped a replan suggestion.
type ReplanType string

const (
	ReplanHeadcountDelta ReplanType = "HEADCOUNT_DELTA"
	ReplanOccupancyDelta ReplanType = "OCCUPANCY_DELTA"
)

// ReplanPriority orders replan suggestions for review.
type ReplanPriority string

const (
	PriorityLow    ReplanPriority = "LOW"
	PriorityMedium ReplanPriority = "MEDIUM"
	PriorityHigh   ReplanPriority = "HIGH"
)

// ReplanSuggestion proposes revisiting a locked baseline for one day.
// Accepting or rejecting it never touches the plan; applying is a separate
// downstream action.
type ReplanSuggestion struct {
	sharedDomain.BaseAggregateRoot
	sectorID       uuid.UUID
	baselineRunID  uuid.UUID
	liveRunID      uuid.UUID
	targetDate     time.Time
	replanType     ReplanType
	originalValue  float64
	suggestedValue float64
	delta          float64
	reason         string
	justification  map[string]any
	priority       ReplanPriority
	isAccepted     *bool
	decidedAt      *time.Time
}

// NewReplanSuggestion opens an undecided suggestion.
func NewReplanSuggestion(
	sectorID, baselineRunID, liveRunID uuid.UUID,
	targetDate time.Time,
	replanType ReplanType,
	originalValue, suggestedValue float64,
	reason string,
	justification map[string]any,
	priority ReplanPriority,
) *ReplanSuggestion {
	return &ReplanSuggestion{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		baselineRunID:     baselineRunID,
		liveRunID:         liveRunID,
		targetDate:        workforce.NormalizeDate(targetDate),
		replanType:        replanType,
		originalValue:     originalValue,
		suggestedValue:    suggestedValue,
		delta:             suggestedValue - originalValue,
		reason:            reason,
		justification:     justification,
		priority:          priority,
	}
}

// RehydrateReplanSuggestion recreates a suggestion from persisted state.
func RehydrateReplanSuggestion(
	id, sectorID, baselineRunID, liveRunID uuid.UUID,
	targetDate time.Time,
	replanType ReplanType,
	originalValue, suggestedValue, delta float64,
	reason string,
	justification map[string]any,
	priority ReplanPriority,
	isAccepted *bool,
	decidedAt *time.Time,
	createdAt, updatedAt time.Time,
) *ReplanSuggestion {
	return &ReplanSuggestion{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:       sectorID,
		baselineRunID:  baselineRunID,
		liveRunID:      liveRunID,
		targetDate:     targetDate,
		replanType:     replanType,
		originalValue:  originalValue,
		suggestedValue: suggestedValue,
		delta:          delta,
		reason:         reason,
		justification:  justification,
		priority:       priority,
		isAccepted:     isAccepted,
		decidedAt:      decidedAt,
	}
}

func (s *ReplanSuggestion) SectorID() uuid.UUID           { return s.sectorID }
func (s *ReplanSuggestion) BaselineRunID() uuid.UUID      { return s.baselineRunID }
func (s *ReplanSuggestion) LiveRunID() uuid.UUID          { return s.liveRunID }
func (s *ReplanSuggestion) TargetDate() time.Time         { return s.targetDate }
func (s *ReplanSuggestion) Type() ReplanType              { return s.replanType }
func (s *ReplanSuggestion) OriginalValue() float64        { return s.originalValue }
func (s *ReplanSuggestion) SuggestedValue() float64       { return s.suggestedValue }
func (s *ReplanSuggestion) Delta() float64                { return s.delta }
func (s *ReplanSuggestion) Reason() string                { return s.reason }
func (s *ReplanSuggestion) Justification() map[string]any { return s.justification }
func (s *ReplanSuggestion) Priority() ReplanPriority      { return s.priority }
func (s *ReplanSuggestion) IsAccepted() *bool             { return s.isAccepted }
func (s *ReplanSuggestion) DecidedAt() *time.Time         { return s.decidedAt }

// Decide records acceptance or rejection once.
func (s *ReplanSuggestion) Decide(accepted bool, now time.Time) error {
	if s.isAccepted != nil {
		return &sharedDomain.ConflictError{Entity: "replan suggestion", Reason: "already decided"}
	}
	s.isAccepted = &accepted
	s.decidedAt = &now
	s.Touch()
	return nil
}

// DailyKind is the user-level recommendation a daily suggestion carries.
type DailyKind string

const (
	KindReinforce  DailyKind = "REINFORCE_TEAM"
	KindReduce     DailyKind = "REDUCE_HOURS"
	KindAnticipate DailyKind = "ANTICIPATE_SHIFT"
	KindPostpone   DailyKind = "POSTPONE_SHIFT"
	KindSubstitute DailyKind = "PREVENTIVE_SUBSTITUTION"
)

// DailyCategory groups daily suggestions for triage.
type DailyCategory string

const (
	CategoryFinancial   DailyCategory = "FINANCIAL"
	CategoryOperational DailyCategory = "OPERATIONAL"
	CategoryLegal       DailyCategory = "LEGAL"
)

// DailyStatus is the daily suggestion lifecycle. Transitions out of OPEN are
// final.
type DailyStatus string

const (
	DailyOpen    DailyStatus = "OPEN"
	DailyApplied DailyStatus = "APPLIED"
	DailyIgnored DailyStatus = "IGNORED"
)

// DailySuggestion is a user-facing recommendation for one day.
type DailySuggestion struct {
	sharedDomain.BaseAggregateRoot
	sectorID   uuid.UUID
	targetDate time.Time
	kind       DailyKind
	category   DailyCategory
	message    string
	status     DailyStatus
	resolvedAt *time.Time
}

// NewDailySuggestion opens an OPEN suggestion.
func NewDailySuggestion(sectorID uuid.UUID, targetDate time.Time, kind DailyKind, category DailyCategory, message string) *DailySuggestion {
	return &DailySuggestion{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		targetDate:        workforce.NormalizeDate(targetDate),
		kind:              kind,
		category:          category,
		message:           message,
		status:            DailyOpen,
	}
}

// RehydrateDailySuggestion recreates a daily suggestion from persisted state.
func RehydrateDailySuggestion(
	id, sectorID uuid.UUID,
	targetDate time.Time,
	kind DailyKind,
	category DailyCategory,
	message string,
	status DailyStatus,
	resolvedAt *time.Time,
	createdAt, updatedAt time.Time,
) *DailySuggestion {
	return &DailySuggestion{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:   sectorID,
		targetDate: targetDate,
		kind:       kind,
		category:   category,
		message:    message,
		status:     status,
		resolvedAt: resolvedAt,
	}
}

func (d *DailySuggestion) SectorID() uuid.UUID     { return d.sectorID }
func (d *DailySuggestion) TargetDate() time.Time   { return d.targetDate }
func (d *DailySuggestion) Kind() DailyKind         { return d.kind }
func (d *DailySuggestion) Category() DailyCategory { return d.category }
func (d *DailySuggestion) Message() string         { return d.message }
func (d *DailySuggestion) Status() DailyStatus     { return d.status }
func (d *DailySuggestion) ResolvedAt() *time.Time  { return d.resolvedAt }

// Apply resolves an OPEN suggestion as acted on.
func (d *DailySuggestion) Apply(now time.Time) error {
	return d.resolve(DailyApplied, now)
}

// Ignore resolves an OPEN suggestion as dismissed.
func (d *DailySuggestion) Ignore(now time.Time) error {
	return d.resolve(DailyIgnored, now)
}

func (d *DailySuggestion) resolve(status DailyStatus, now time.Time) error {
	if d.status != DailyOpen {
		return &sharedDomain.ConflictError{Entity: "daily suggestion", Reason: "already " + string(d.status)}
	}
	d.status = status
	d.resolvedAt = &now
	d.Touch()
	return nil
}
