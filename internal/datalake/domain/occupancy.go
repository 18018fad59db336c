package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"

	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

var ErrInvalidOccupancy = errors.New("occupancy_pct must be between 0 and 100")

// OccupancySnapshot is one immutable observation of occupancy for a target
// date, as produced by an ingested report.
type OccupancySnapshot struct {
	ID             uuid.UUID
	TargetDate     time.Time
	GeneratedAt    time.Time // UTC
	PeriodStart    *time.Time
	PeriodEnd      *time.Time
	OccupancyPct   float64
	IsReal         bool
	IsForecast     bool
	SourceUploadID uuid.UUID
	CreatedAt      time.Time
}

// NewOccupancySnapshot validates and normalizes a snapshot record.
// All timestamps are converted to UTC at this boundary.
func NewOccupancySnapshot(targetDate, generatedAt time.Time, occupancyPct float64, isReal bool, sourceUploadID uuid.UUID) (*OccupancySnapshot, error) {
	if occupancyPct < 0 || occupancyPct > 100 {
		return nil, ErrInvalidOccupancy
	}
	return &OccupancySnapshot{
		ID:             uuid.New(),
		TargetDate:     workforce.NormalizeDate(targetDate),
		GeneratedAt:    generatedAt.UTC(),
		OccupancyPct:   occupancyPct,
		IsReal:         isReal,
		IsForecast:     !isReal,
		SourceUploadID: sourceUploadID,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

// OccupancyLatest is the per-date projection holding the most recent real and
// most recent forecast observations separately, plus the resolved value.
type OccupancyLatest struct {
	TargetDate                time.Time
	LatestRealPct             *float64
	LatestRealGeneratedAt     *time.Time
	LatestForecastPct         *float64
	LatestForecastGeneratedAt *time.Time
	OccupancyPct              *float64
	IsReal                    bool
	UpdatedAt                 time.Time
}

// Apply folds a snapshot into the projection: newest real and newest forecast
// win independently, and the resolved value prefers real when present.
func (l *OccupancyLatest) Apply(s *OccupancySnapshot) bool {
	changed := false
	if s.IsReal {
		if l.LatestRealGeneratedAt == nil || s.GeneratedAt.After(*l.LatestRealGeneratedAt) {
			pct, at := s.OccupancyPct, s.GeneratedAt
			l.LatestRealPct, l.LatestRealGeneratedAt = &pct, &at
			changed = true
		}
	} else {
		if l.LatestForecastGeneratedAt == nil || s.GeneratedAt.After(*l.LatestForecastGeneratedAt) {
			pct, at := s.OccupancyPct, s.GeneratedAt
			l.LatestForecastPct, l.LatestForecastGeneratedAt = &pct, &at
			changed = true
		}
	}
	if changed {
		l.resolve()
		l.UpdatedAt = time.Now().UTC()
	}
	return changed
}

func (l *OccupancyLatest) resolve() {
	if l.LatestRealPct != nil {
		pct := *l.LatestRealPct
		l.OccupancyPct = &pct
		l.IsReal = true
		return
	}
	if l.LatestForecastPct != nil {
		pct := *l.LatestForecastPct
		l.OccupancyPct = &pct
	}
	l.IsReal = false
}
