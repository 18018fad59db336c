package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	"github.com/hotelops/roster/internal/workforce/domain"
)

// ActivityRepository implements domain.ActivityRepository.
type ActivityRepository struct {
	conn database.Connection
}

// NewActivityRepository creates an activity repository.
func NewActivityRepository(conn database.Connection) *ActivityRepository {
	return &ActivityRepository{conn: conn}
}

// Save upserts a governance activity.
func (r *ActivityRepository) Save(ctx context.Context, activity *domain.GovernanceActivity) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var periodicityID any
	if pid := activity.PeriodicityID(); pid != nil {
		periodicityID = pid.String()
	}
	var firstExecution any
	if fe := activity.FirstExecution(); fe != nil {
		firstExecution = *fe
	}

	query := `
		INSERT INTO governance_activities (
			id, sector_id, name, code, average_minutes, driver, classification,
			periodicity_id, tolerance_days, first_execution, difficulty, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			code = EXCLUDED.code,
			average_minutes = EXCLUDED.average_minutes,
			driver = EXCLUDED.driver,
			classification = EXCLUDED.classification,
			periodicity_id = EXCLUDED.periodicity_id,
			tolerance_days = EXCLUDED.tolerance_days,
			first_execution = EXCLUDED.first_execution,
			difficulty = EXCLUDED.difficulty,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		activity.ID().String(),
		activity.SectorID().String(),
		activity.Name(),
		activity.Code(),
		activity.AverageMinutes(),
		string(activity.Driver()),
		string(activity.Classification()),
		periodicityID,
		activity.ToleranceDays(),
		firstExecution,
		activity.Difficulty(),
		activity.IsActive(),
		activity.CreatedAt(),
		activity.UpdatedAt(),
	)
	return err
}

const activitySelect = `
	SELECT id, sector_id, name, code, average_minutes, driver, classification,
	       periodicity_id, tolerance_days, first_execution, difficulty, active,
	       created_at, updated_at
	FROM governance_activities
`

// FindByID retrieves an activity by id.
func (r *ActivityRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.GovernanceActivity, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, activitySelect+` WHERE id = $1`, id.String())
	activity, err := scanActivity(row)
	if err != nil && database.IsNoRows(err) {
		return nil, &sharedDomain.NotFoundError{Entity: "activity", Ref: id.String()}
	}
	return activity, err
}

// FindActiveBySector lists active activities of a sector ordered by difficulty
// descending, then name.
func (r *ActivityRepository) FindActiveBySector(ctx context.Context, sectorID uuid.UUID) ([]*domain.GovernanceActivity, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx,
		activitySelect+` WHERE sector_id = $1 AND active = $2 ORDER BY difficulty DESC, name`,
		sectorID.String(), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*domain.GovernanceActivity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func scanActivity(row scannable) (*domain.GovernanceActivity, error) {
	var (
		idStr, sectorStr, name, code, driver, classification string
		periodicityStr                                       *string
		averageMinutes                                       float64
		toleranceDays, difficulty                            int
		firstExecution                                       *time.Time
		active                                               bool
		createdAt, updatedAt                                 time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &name, &code, &averageMinutes, &driver, &classification,
		&periodicityStr, &toleranceDays, &firstExecution, &difficulty, &active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	sectorID, err := uuid.Parse(sectorStr)
	if err != nil {
		return nil, err
	}
	var periodicityID *uuid.UUID
	if periodicityStr != nil {
		pid, err := uuid.Parse(*periodicityStr)
		if err != nil {
			return nil, err
		}
		periodicityID = &pid
	}

	return domain.RehydrateGovernanceActivity(
		id, sectorID, name, code, averageMinutes,
		domain.WorkloadDriver(driver),
		domain.ActivityClassification(classification),
		periodicityID, toleranceDays, firstExecution, difficulty, active,
		createdAt, updatedAt,
	), nil
}

// SavePeriodicity upserts a periodicity.
func (r *ActivityRepository) SavePeriodicity(ctx context.Context, periodicity *domain.ActivityPeriodicity) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO activity_periodicities (id, name, kind, unit, value, anchor, approx_days, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			kind = EXCLUDED.kind,
			unit = EXCLUDED.unit,
			value = EXCLUDED.value,
			anchor = EXCLUDED.anchor,
			approx_days = EXCLUDED.approx_days,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		periodicity.ID().String(),
		periodicity.Name(),
		string(periodicity.Kind()),
		string(periodicity.Unit()),
		periodicity.Value(),
		string(periodicity.Anchor()),
		periodicity.ApproxDays(),
		periodicity.CreatedAt(),
		periodicity.UpdatedAt(),
	)
	return err
}

// FindPeriodicityByID retrieves a periodicity by id.
func (r *ActivityRepository) FindPeriodicityByID(ctx context.Context, id uuid.UUID) (*domain.ActivityPeriodicity, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `
		SELECT id, name, kind, unit, value, anchor, approx_days, created_at, updated_at
		FROM activity_periodicities WHERE id = $1
	`, id.String())

	var (
		idStr, name, kind, unit, anchor string
		value, approxDays               int
		createdAt, updatedAt            time.Time
	)
	if err := row.Scan(&idStr, &name, &kind, &unit, &value, &anchor, &approxDays, &createdAt, &updatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, &sharedDomain.NotFoundError{Entity: "periodicity", Ref: id.String()}
		}
		return nil, err
	}
	parsed, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return domain.RehydrateActivityPeriodicity(
		parsed, name,
		domain.PeriodicityKind(kind),
		domain.PeriodicityUnit(unit),
		value,
		domain.AnchorPolicy(anchor),
		approxDays,
		createdAt, updatedAt,
	), nil
}
