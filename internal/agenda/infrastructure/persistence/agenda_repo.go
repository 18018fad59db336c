package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/agenda/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

// Repository implements domain.Repository. Items travel with the agenda row
// as a JSON payload; agendas are regenerated wholesale, never item-patched.
type Repository struct {
	conn database.Connection
}

// NewRepository creates an agenda repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// SaveAgenda upserts an agenda with its items.
func (r *Repository) SaveAgenda(ctx context.Context, agenda *domain.EmployeeDailyAgenda) error {
	items, err := json.Marshal(agenda.Items())
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO employee_daily_agendas (
			id, plan_id, slot_id, employee_id, target_date,
			minutes_available, minutes_allocated, status, has_conflict,
			items, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			minutes_available = EXCLUDED.minutes_available,
			minutes_allocated = EXCLUDED.minutes_allocated,
			status = EXCLUDED.status,
			has_conflict = EXCLUDED.has_conflict,
			items = EXCLUDED.items,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		agenda.ID().String(),
		agenda.PlanID().String(),
		agenda.SlotID().String(),
		agenda.EmployeeID().String(),
		agenda.TargetDate(),
		agenda.MinutesAvailable(),
		agenda.MinutesAllocated(),
		string(agenda.Status()),
		agenda.HasConflict(),
		string(items),
		agenda.CreatedAt(),
		agenda.UpdatedAt(),
	)
	return err
}

// AgendasForPlan lists a plan's agendas ordered by (target_date, employee_id).
func (r *Repository) AgendasForPlan(ctx context.Context, planID uuid.UUID) ([]*domain.EmployeeDailyAgenda, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, plan_id, slot_id, employee_id, target_date,
		       minutes_available, minutes_allocated, status, has_conflict,
		       items, created_at, updated_at
		FROM employee_daily_agendas
		WHERE plan_id = $1
		ORDER BY target_date, employee_id
	`, planID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agendas []*domain.EmployeeDailyAgenda
	for rows.Next() {
		agenda, err := scanAgenda(rows)
		if err != nil {
			return nil, err
		}
		agendas = append(agendas, agenda)
	}
	return agendas, rows.Err()
}

// DeleteForPlan removes a plan's agendas before regeneration.
func (r *Repository) DeleteForPlan(ctx context.Context, planID uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `DELETE FROM employee_daily_agendas WHERE plan_id = $1`, planID.String())
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAgenda(row scannable) (*domain.EmployeeDailyAgenda, error) {
	var (
		idStr, planStr, slotStr, employeeStr, status string
		targetDate                                   time.Time
		minutesAvailable, minutesAllocated           int
		hasConflict                                  bool
		itemsJSON                                    string
		createdAt, updatedAt                         time.Time
	)
	if err := row.Scan(&idStr, &planStr, &slotStr, &employeeStr, &targetDate,
		&minutesAvailable, &minutesAllocated, &status, &hasConflict,
		&itemsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
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
	employeeID, err := uuid.Parse(employeeStr)
	if err != nil {
		return nil, err
	}
	var items []*domain.AgendaItem
	if itemsJSON != "" {
		if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
			return nil, err
		}
	}

	return domain.RehydrateEmployeeDailyAgenda(
		id, planID, slotID, employeeID, targetDate,
		minutesAvailable, minutesAllocated,
		domain.AgendaStatus(status), hasConflict, items,
		createdAt, updatedAt,
	), nil
}
