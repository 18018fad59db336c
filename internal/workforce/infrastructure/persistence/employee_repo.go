package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	"github.com/hotelops/roster/internal/workforce/domain"
)

// EmployeeRepository implements domain.EmployeeRepository.
type EmployeeRepository struct {
	conn database.Connection
}

// NewEmployeeRepository creates an employee repository.
func NewEmployeeRepository(conn database.Connection) *EmployeeRepository {
	return &EmployeeRepository{conn: conn}
}

type employeePayload struct {
	Speed           domain.CleaningSpeed `json:"speed"`
	Specializations []string             `json:"specializations,omitempty"`
	Unavailable     []string             `json:"unavailable,omitempty"`
	History         domain.WorkHistory   `json:"history"`
}

// Save upserts an employee.
func (r *EmployeeRepository) Save(ctx context.Context, employee *domain.Employee) error {
	unavailable := make([]string, 0)
	for _, d := range employee.UnavailableDates() {
		unavailable = append(unavailable, d.Format(time.DateOnly))
	}
	payload, err := json.Marshal(employeePayload{
		Speed:           employee.Speed(),
		Specializations: employee.Specializations(),
		Unavailable:     unavailable,
		History:         employee.History(),
	})
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO employees (id, sector_id, name, role, contract, weekly_hour_cap, active, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			sector_id = EXCLUDED.sector_id,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			contract = EXCLUDED.contract,
			weekly_hour_cap = EXCLUDED.weekly_hour_cap,
			active = EXCLUDED.active,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		employee.ID().String(),
		employee.SectorID().String(),
		employee.Name(),
		employee.Role(),
		string(employee.Contract()),
		employee.WeeklyHourCap(),
		employee.IsActive(),
		string(payload),
		employee.CreatedAt(),
		employee.UpdatedAt(),
	)
	return err
}

// FindByID retrieves an employee by id.
func (r *EmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Employee, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, employeeSelect+` WHERE id = $1`, id.String())
	return scanEmployee(row)
}

// FindActiveBySector lists active employees of a sector, ordered by id for
// deterministic tie-breaking downstream.
func (r *EmployeeRepository) FindActiveBySector(ctx context.Context, sectorID uuid.UUID) ([]*domain.Employee, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, employeeSelect+` WHERE sector_id = $1 AND active = $2 ORDER BY id`, sectorID.String(), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*domain.Employee
	for rows.Next() {
		e, err := scanEmployeeRow(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

const employeeSelect = `
	SELECT id, sector_id, name, role, contract, weekly_hour_cap, active, payload, created_at, updated_at
	FROM employees
`

type scannable interface {
	Scan(dest ...any) error
}

func scanEmployee(row database.Row) (*domain.Employee, error) {
	e, err := scanEmployeeRow(row)
	if err != nil && database.IsNoRows(err) {
		return nil, &sharedDomain.NotFoundError{Entity: "employee", Ref: "id"}
	}
	return e, err
}

func scanEmployeeRow(row scannable) (*domain.Employee, error) {
	var (
		idStr, sectorStr, name, role, contract, payloadJSON string
		weeklyHourCap                                       float64
		active                                              bool
		createdAt, updatedAt                                time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &name, &role, &contract, &weeklyHourCap, &active, &payloadJSON, &createdAt, &updatedAt); err != nil {
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
	var payload employeePayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, err
	}

	unavailable := make([]time.Time, 0, len(payload.Unavailable))
	for _, s := range payload.Unavailable {
		if d, err := time.ParseInLocation(time.DateOnly, s, time.UTC); err == nil {
			unavailable = append(unavailable, d)
		}
	}

	return domain.RehydrateEmployee(
		id, sectorID, name, role,
		domain.ContractVariant(contract),
		weeklyHourCap,
		payload.Speed,
		payload.Specializations,
		unavailable,
		payload.History,
		active,
		createdAt, updatedAt,
	), nil
}
