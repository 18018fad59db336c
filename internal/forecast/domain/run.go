package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	rulesDomain "github.com/hotelops/roster/internal/rules/domain"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var (
	ErrNotBaseline   = errors.New("only BASELINE runs can be locked")
	ErrAlreadyLocked = errors.New("run is already locked")
	ErrNotCompleted  = errors.New("run is not completed")
)

// RunType distinguishes the authoritative weekly baseline from the daily
// refreshes compared against it.
type RunType string

const (
	RunBaseline    RunType = "BASELINE"
	RunDailyUpdate RunType = "DAILY_UPDATE"
	RunManual      RunType = "MANUAL"
)

// RunStatus is the run lifecycle.
type RunStatus string

const (
	RunPending   RunStatus = "PENDING"
	RunCompleted RunStatus = "COMPLETED"
	RunFailed    RunStatus = "FAILED"
)

// SourceTag records where a day's raw occupancy came from.
type SourceTag string

const (
	SourceSnapshot SourceTag = "occupancy_snapshot"
	SourceLatest   SourceTag = "occupancy_latest"
)

// SectorSnapshot freezes the constraints and parameters a run was computed
// under, so later comparisons see the inputs as they were.
type SectorSnapshot struct {
	SectorName  string                     `json:"sector_name"`
	Constraints rulesDomain.Constraints    `json:"constraints"`
	Parameters  workforce.SectorParameters `json:"parameters"`
}

// ForecastRun is one versioned forecast over a 7-day horizon. At most one
// locked non-superseded BASELINE exists per (sector, horizon_start); locking a
// newer baseline supersedes the prior one.
type ForecastRun struct {
	sharedDomain.BaseAggregateRoot
	sectorID     uuid.UUID
	runType      RunType
	status       RunStatus
	horizonStart time.Time
	horizonEnd   time.Time
	asOf         time.Time
	isLocked     bool
	lockedAt     *time.Time
	supersededBy *uuid.UUID
	biasMethod   string
	biasAlpha    float64
	snapshot     SectorSnapshot
}

// NewForecastRun opens a run over [weekStart, weekStart+6].
func NewForecastRun(sectorID uuid.UUID, runType RunType, weekStart, asOf time.Time, biasMethod string, biasAlpha float64, snapshot SectorSnapshot) *ForecastRun {
	weekStart = workforce.NormalizeDate(weekStart)
	return &ForecastRun{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		runType:           runType,
		status:            RunPending,
		horizonStart:      weekStart,
		horizonEnd:        weekStart.AddDate(0, 0, 6),
		asOf:              asOf.UTC(),
		biasMethod:        biasMethod,
		biasAlpha:         biasAlpha,
		snapshot:          snapshot,
	}
}

// RehydrateForecastRun recreates a run from persisted state.
func RehydrateForecastRun(id, sectorID uuid.UUID, runType RunType, status RunStatus, horizonStart, horizonEnd, asOf time.Time, isLocked bool, lockedAt *time.Time, supersededBy *uuid.UUID, biasMethod string, biasAlpha float64, snapshot SectorSnapshot, createdAt, updatedAt time.Time) *ForecastRun {
	return &ForecastRun{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:     sectorID,
		runType:      runType,
		status:       status,
		horizonStart: horizonStart,
		horizonEnd:   horizonEnd,
		asOf:         asOf,
		isLocked:     isLocked,
		lockedAt:     lockedAt,
		supersededBy: supersededBy,
		biasMethod:   biasMethod,
		biasAlpha:    biasAlpha,
		snapshot:     snapshot,
	}
}

func (r *ForecastRun) SectorID() uuid.UUID      { return r.sectorID }
func (r *ForecastRun) RunType() RunType         { return r.runType }
func (r *ForecastRun) Status() RunStatus        { return r.status }
func (r *ForecastRun) HorizonStart() time.Time  { return r.horizonStart }
func (r *ForecastRun) HorizonEnd() time.Time    { return r.horizonEnd }
func (r *ForecastRun) AsOf() time.Time          { return r.asOf }
func (r *ForecastRun) IsLocked() bool           { return r.isLocked }
func (r *ForecastRun) LockedAt() *time.Time     { return r.lockedAt }
func (r *ForecastRun) SupersededBy() *uuid.UUID { return r.supersededBy }
func (r *ForecastRun) BiasMethod() string       { return r.biasMethod }
func (r *ForecastRun) BiasAlpha() float64       { return r.biasAlpha }
func (r *ForecastRun) Snapshot() SectorSnapshot { return r.snapshot }

// TargetDates lists the 7 horizon dates in order.
func (r *ForecastRun) TargetDates() []time.Time {
	dates := make([]time.Time, 7)
	for i := range dates {
		dates[i] = r.horizonStart.AddDate(0, 0, i)
	}
	return dates
}

// Complete marks the run COMPLETED.
func (r *ForecastRun) Complete() {
	r.status = RunCompleted
	r.Touch()
}

// Fail marks the run FAILED.
func (r *ForecastRun) Fail() {
	r.status = RunFailed
	r.Touch()
}

// Lock makes this baseline the authoritative forecast for its week.
func (r *ForecastRun) Lock(now time.Time) error {
	if r.runType != RunBaseline {
		return ErrNotBaseline
	}
	if r.isLocked {
		return ErrAlreadyLocked
	}
	if r.status != RunCompleted {
		return ErrNotCompleted
	}
	now = now.UTC()
	r.isLocked = true
	r.lockedAt = &now
	r.Touch()
	r.AddDomainEvent(NewRunLockedEvent(r.ID(), r.sectorID, r.horizonStart))
	return nil
}

// SupersedeBy points this locked baseline at its replacement.
func (r *ForecastRun) SupersedeBy(successor uuid.UUID) {
	r.supersededBy = &successor
	r.Touch()
}

// Clamp bounds an occupancy percentage to [0, 100].
func Clamp(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ForecastDaily is one horizon day of a run.
type ForecastDaily struct {
	ID          uuid.UUID
	RunID       uuid.UUID
	TargetDate  time.Time
	OccRaw      float64
	BiasPP      float64
	SafetyPP    float64
	OccAdj      float64
	HasBiasData bool
	Source      SourceTag
	SourceRef   string
	CreatedAt   time.Time
}

// NewForecastDaily derives the adjusted occupancy from its components.
func NewForecastDaily(runID uuid.UUID, targetDate time.Time, occRaw, biasPP, safetyPP float64, hasBiasData bool, source SourceTag, sourceRef string) *ForecastDaily {
	return &ForecastDaily{
		ID:          uuid.New(),
		RunID:       runID,
		TargetDate:  workforce.NormalizeDate(targetDate),
		OccRaw:      occRaw,
		BiasPP:      biasPP,
		SafetyPP:    safetyPP,
		OccAdj:      Clamp(occRaw + biasPP + safetyPP),
		HasBiasData: hasBiasData,
		Source:      source,
		SourceRef:   sourceRef,
		CreatedAt:   time.Now().UTC(),
	}
}
