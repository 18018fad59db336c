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

// SectorRepository implements domain.SectorRepository on the shared Executor.
type SectorRepository struct {
	conn database.Connection
}

// NewSectorRepository creates a sector repository.
func NewSectorRepository(conn database.Connection) *SectorRepository {
	return &SectorRepository{conn: conn}
}

// Save upserts a sector.
func (r *SectorRepository) Save(ctx context.Context, sector *domain.Sector) error {
	params, err := json.Marshal(sector.Parameters())
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO sectors (id, name, params, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			params = EXCLUDED.params,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		sector.ID().String(),
		sector.Name(),
		string(params),
		sector.CreatedAt(),
		sector.UpdatedAt(),
	)
	return err
}

// FindByID retrieves a sector by id.
func (r *SectorRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Sector, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `
		SELECT id, name, params, created_at, updated_at
		FROM sectors WHERE id = $1
	`, id.String())
	return scanSector(row, id.String())
}

// FindByName retrieves a sector by its unique name.
func (r *SectorRepository) FindByName(ctx context.Context, name string) (*domain.Sector, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, `
		SELECT id, name, params, created_at, updated_at
		FROM sectors WHERE name = $1
	`, name)
	return scanSector(row, name)
}

func scanSector(row database.Row, ref string) (*domain.Sector, error) {
	var (
		idStr, name, paramsJSON string
		createdAt, updatedAt    time.Time
	)
	if err := row.Scan(&idStr, &name, &paramsJSON, &createdAt, &updatedAt); err != nil {
		if database.IsNoRows(err) {
			return nil, &sharedDomain.NotFoundError{Entity: "sector", Ref: ref}
		}
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	var params domain.SectorParameters
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return nil, err
	}
	return domain.RehydrateSector(id, name, params, createdAt, updatedAt), nil
}
