package persistence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/convocation/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	workforce "github.com/hotelops/roster/internal/workforce/domain"
)

// Repository implements domain.Repository. The legal validation outcome
// travels as a JSON column.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a convocation repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

const convocationSelect = `
	SELECT id, employee_id, sector_id, plan_id, slot_id, target_date,
	       start_minutes, end_minutes, break_minutes, total_hours,
	       status, origin, sent_at, response_deadline, responded_at,
	       cancel_reason, replaced_convocation_id, replacement_convocation_id,
	       legal_validation, created_at, updated_at
	FROM convocations
`

// Save upserts a convocation.
func (r *Repository) Save(ctx context.Context, convocation *domain.Convocation) error {
	validation, err := json.Marshal(convocation.Validation())
	if err != nil {
		return err
	}
	var replacedStr, replacementStr *string
	if convocation.ReplacedID() != nil {
		s := convocation.ReplacedID().String()
		replacedStr = &s
	}
	if convocation.ReplacementID() != nil {
		s := convocation.ReplacementID().String()
		replacementStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO convocations (
			id, employee_id, sector_id, plan_id, slot_id, target_date,
			start_minutes, end_minutes, break_minutes, total_hours,
			status, origin, sent_at, response_deadline, responded_at,
			cancel_reason, replaced_convocation_id, replacement_convocation_id,
			legal_validation, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			responded_at = EXCLUDED.responded_at,
			cancel_reason = EXCLUDED.cancel_reason,
			replacement_convocation_id = EXCLUDED.replacement_convocation_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		convocation.ID().String(),
		convocation.EmployeeID().String(),
		convocation.SectorID().String(),
		convocation.PlanID().String(),
		convocation.SlotID().String(),
		convocation.TargetDate(),
		convocation.Start().Minutes(),
		convocation.End().Minutes(),
		convocation.BreakMinutes(),
		convocation.TotalHours(),
		string(convocation.Status()),
		string(convocation.Origin()),
		convocation.SentAt(),
		convocation.ResponseDeadline(),
		convocation.RespondedAt(),
		convocation.CancelReason(),
		replacedStr,
		replacementStr,
		string(validation),
		convocation.CreatedAt(),
		convocation.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a convocation. Nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Convocation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, convocationSelect+` WHERE id = $1`, id.String())
	convocation, err := scanConvocation(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return convocation, nil
}

// Find lists convocations matching the filter, newest first.
func (r *Repository) Find(ctx context.Context, filter domain.Filter) ([]*domain.Convocation, error) {
	query := convocationSelect + ` WHERE 1 = 1`
	var args []any
	if filter.SectorID != nil {
		args = append(args, filter.SectorID.String())
		query += ` AND sector_id = ` + placeholder(len(args))
	}
	if filter.EmployeeID != nil {
		args = append(args, filter.EmployeeID.String())
		query += ` AND employee_id = ` + placeholder(len(args))
	}
	if filter.PlanID != nil {
		args = append(args, filter.PlanID.String())
		query += ` AND plan_id = ` + placeholder(len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = ` + placeholder(len(args))
	}
	query += ` ORDER BY sent_at DESC, id`

	return r.list(ctx, query, args...)
}

// AcceptedForEmployee lists ACCEPTED convocations in a date range.
func (r *Repository) AcceptedForEmployee(ctx context.Context, employeeID uuid.UUID, from, to time.Time) ([]*domain.Convocation, error) {
	return r.list(ctx, convocationSelect+`
		WHERE employee_id = $1 AND status = $2 AND target_date >= $3 AND target_date <= $4
		ORDER BY target_date, start_minutes
	`, employeeID.String(), string(domain.StatusAccepted), from, to)
}

// PendingExpired lists PENDING convocations whose deadline passed.
func (r *Repository) PendingExpired(ctx context.Context, now time.Time) ([]*domain.Convocation, error) {
	return r.list(ctx, convocationSelect+`
		WHERE status = $1 AND response_deadline < $2
		ORDER BY response_deadline, id
	`, string(domain.StatusPending), now)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]*domain.Convocation, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convocations []*domain.Convocation
	for rows.Next() {
		convocation, err := scanConvocation(rows)
		if err != nil {
			return nil, err
		}
		convocations = append(convocations, convocation)
	}
	return convocations, rows.Err()
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanConvocation(row scannable) (*domain.Convocation, error) {
	var (
		idStr, employeeStr, sectorStr, planStr, slotStr string
		targetDate                                      time.Time
		startMinutes, endMinutes, breakMinutes          int
		totalHours                                      float64
		status, origin                                  string
		sentAt, responseDeadline                        time.Time
		respondedAt                                     *time.Time
		cancelReason                                    string
		replacedStr, replacementStr                     *string
		validationJSON                                  string
		createdAt, updatedAt                            time.Time
	)
	if err := row.Scan(&idStr, &employeeStr, &sectorStr, &planStr, &slotStr, &targetDate,
		&startMinutes, &endMinutes, &breakMinutes, &totalHours,
		&status, &origin, &sentAt, &responseDeadline, &respondedAt,
		&cancelReason, &replacedStr, &replacementStr,
		&validationJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	employeeID, err := uuid.Parse(employeeStr)
	if err != nil {
		return nil, err
	}
	sectorID, err := uuid.Parse(sectorStr)
	if err != nil {
		return nil, err
	}
	planID, err := uuid.Parse(planStr)
	if err != nil {
		return nil, err
	}
	slotID, err := uuid.Parse(slotStr)
	if err != nil {
		return nil, err
	}
	replacedID, err := parseOptionalUUID(replacedStr)
	if err != nil {
		return nil, err
	}
	replacementID, err := parseOptionalUUID(replacementStr)
	if err != nil {
		return nil, err
	}
	var validation domain.LegalValidation
	if validationJSON != "" {
		if err := json.Unmarshal([]byte(validationJSON), &validation); err != nil {
			return nil, err
		}
	}

	return domain.RehydrateConvocation(
		id, employeeID, sectorID, planID, slotID, targetDate,
		workforce.TimeOfDay(startMinutes), workforce.TimeOfDay(endMinutes),
		breakMinutes, totalHours,
		domain.ConvocationStatus(status), domain.ConvocationOrigin(origin),
		sentAt, responseDeadline, respondedAt, cancelReason,
		replacedID, replacementID, validation,
		createdAt, updatedAt,
	), nil
}

func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	parsed, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
