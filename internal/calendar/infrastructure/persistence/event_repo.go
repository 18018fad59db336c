package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/calendar/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

// Repository implements domain.Repository on the shared Executor.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a calendar event repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

// Save upserts a calendar event.
func (r *Repository) Save(ctx context.Context, event *domain.CalendarEvent) error {
	var sectorStr *string
	if event.SectorID() != nil {
		s := event.SectorID().String()
		sectorStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO calendar_events (
			id, scope, sector_id, name, start_date, end_date,
			productivity_factor, demand_factor, block_convocations, active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			productivity_factor = EXCLUDED.productivity_factor,
			demand_factor = EXCLUDED.demand_factor,
			block_convocations = EXCLUDED.block_convocations,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		event.ID().String(),
		string(event.Scope()),
		sectorStr,
		event.Name(),
		event.StartDate(),
		event.EndDate(),
		event.ProductivityFactor(),
		event.DemandFactor(),
		event.BlocksConvocations(),
		event.IsActive(),
		event.CreatedAt(),
		event.UpdatedAt(),
	)
	return err
}

const eventSelect = `
	SELECT id, scope, sector_id, name, start_date, end_date,
	       productivity_factor, demand_factor, block_convocations, active,
	       created_at, updated_at
	FROM calendar_events
`

// FindByID retrieves an event by id. Nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.CalendarEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, eventSelect+` WHERE id = $1`, id.String())
	event, err := scanEvent(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return event, nil
}

// FindInRange lists active global and sector events overlapping [start, end].
func (r *Repository) FindInRange(ctx context.Context, sectorID uuid.UUID, start, end time.Time) ([]*domain.CalendarEvent, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, eventSelect+`
		WHERE active = $1
		  AND (sector_id IS NULL OR sector_id = $2)
		  AND start_date <= $3 AND end_date >= $4
		ORDER BY scope, start_date, id
	`, true, sectorID.String(), end, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEvent(row scannable) (*domain.CalendarEvent, error) {
	var (
		idStr, scope, name               string
		sectorStr                        *string
		start, end, createdAt, updatedAt time.Time
		productivityFactor, demandFactor float64
		blockConvocations, active        bool
	)
	if err := row.Scan(&idStr, &scope, &sectorStr, &name, &start, &end,
		&productivityFactor, &demandFactor, &blockConvocations, &active,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	var sectorID *uuid.UUID
	if sectorStr != nil {
		parsed, err := uuid.Parse(*sectorStr)
		if err != nil {
			return nil, err
		}
		sectorID = &parsed
	}

	return domain.RehydrateCalendarEvent(
		id, domain.EventScope(scope), sectorID, name, start, end,
		productivityFactor, demandFactor, blockConvocations, active,
		createdAt, updatedAt,
	), nil
}
