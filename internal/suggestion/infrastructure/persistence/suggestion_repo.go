package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/shared/infrastructure/database"
	"github.com/hotelops/roster/internal/suggestion/domain"
)

// Repository implements domain.Repository over two tables.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a suggestion repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

const replanSelect = `
	SELECT id, sector_id, baseline_run_id, live_run_id, target_date,
	       replan_type, original_value, suggested_value, delta,
	       reason, justification, priority, is_accepted, decided_at,
	       created_at, updated_at
	FROM replan_suggestions
`

// SaveReplan upserts a replan suggestion.
func (r *Repository) SaveReplan(ctx context.Context, suggestion *domain.ReplanSuggestion) error {
	justification, err := json.Marshal(suggestion.Justification())
	if err != nil {
		return err
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO replan_suggestions (
			id, sector_id, baseline_run_id, live_run_id, target_date,
			replan_type, original_value, suggested_value, delta,
			reason, justification, priority, is_accepted, decided_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			is_accepted = EXCLUDED.is_accepted,
			decided_at = EXCLUDED.decided_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		suggestion.ID().String(),
		suggestion.SectorID().String(),
		suggestion.BaselineRunID().String(),
		suggestion.LiveRunID().String(),
		suggestion.TargetDate(),
		string(suggestion.Type()),
		suggestion.OriginalValue(),
		suggestion.SuggestedValue(),
		suggestion.Delta(),
		suggestion.Reason(),
		string(justification),
		string(suggestion.Priority()),
		suggestion.IsAccepted(),
		suggestion.DecidedAt(),
		suggestion.CreatedAt(),
		suggestion.UpdatedAt(),
	)
	return err
}

// FindReplan retrieves a replan suggestion. Nil when absent.
func (r *Repository) FindReplan(ctx context.Context, id uuid.UUID) (*domain.ReplanSuggestion, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, replanSelect+` WHERE id = $1`, id.String())
	suggestion, err := scanReplan(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return suggestion, nil
}

// ReplansForWeek lists a sector's replan suggestions for one week.
func (r *Repository) ReplansForWeek(ctx context.Context, sectorID uuid.UUID, weekStart time.Time) ([]*domain.ReplanSuggestion, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, replanSelect+`
		WHERE sector_id = $1 AND target_date >= $2 AND target_date <= $3
		ORDER BY target_date, created_at
	`, sectorID.String(), weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []*domain.ReplanSuggestion
	for rows.Next() {
		suggestion, err := scanReplan(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReplan(row scannable) (*domain.ReplanSuggestion, error) {
	var (
		idStr, sectorStr, baselineStr, liveStr string
		targetDate                             time.Time
		replanType                             string
		originalValue, suggestedValue, delta   float64
		reason, justificationJSON, priority    string
		isAccepted                             *bool
		decidedAt                              *time.Time
		createdAt, updatedAt                   time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &baselineStr, &liveStr, &targetDate,
		&replanType, &originalValue, &suggestedValue, &delta,
		&reason, &justificationJSON, &priority, &isAccepted, &decidedAt,
		&createdAt, &updatedAt); err != nil {
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
	baselineRunID, err := uuid.Parse(baselineStr)
	if err != nil {
		return nil, err
	}
	liveRunID, err := uuid.Parse(liveStr)
	if err != nil {
		return nil, err
	}
	var justification map[string]any
	if justificationJSON != "" {
		if err := json.Unmarshal([]byte(justificationJSON), &justification); err != nil {
			return nil, err
		}
	}

	return domain.RehydrateReplanSuggestion(
		id, sectorID, baselineRunID, liveRunID, targetDate,
		domain.ReplanType(replanType),
		originalValue, suggestedValue, delta,
		reason, justification, domain.ReplanPriority(priority),
		isAccepted, decidedAt,
		createdAt, updatedAt,
	), nil
}

const dailySelect = `
	SELECT id, sector_id, target_date, kind, category, message,
	       status, resolved_at, created_at, updated_at
	FROM daily_suggestions
`

// SaveDaily upserts a daily suggestion.
func (r *Repository) SaveDaily(ctx context.Context, suggestion *domain.DailySuggestion) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO daily_suggestions (
			id, sector_id, target_date, kind, category, message,
			status, resolved_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			resolved_at = EXCLUDED.resolved_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		suggestion.ID().String(),
		suggestion.SectorID().String(),
		suggestion.TargetDate(),
		string(suggestion.Kind()),
		string(suggestion.Category()),
		suggestion.Message(),
		string(suggestion.Status()),
		suggestion.ResolvedAt(),
		suggestion.CreatedAt(),
		suggestion.UpdatedAt(),
	)
	return err
}

// FindDaily retrieves a daily suggestion. Nil when absent.
func (r *Repository) FindDaily(ctx context.Context, id uuid.UUID) (*domain.DailySuggestion, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, dailySelect+` WHERE id = $1`, id.String())
	suggestion, err := scanDaily(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return suggestion, nil
}

// OpenDailies lists OPEN daily suggestions for a sector.
func (r *Repository) OpenDailies(ctx context.Context, sectorID uuid.UUID) ([]*domain.DailySuggestion, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, dailySelect+`
		WHERE sector_id = $1 AND status = $2
		ORDER BY target_date, created_at
	`, sectorID.String(), string(domain.DailyOpen))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []*domain.DailySuggestion
	for rows.Next() {
		suggestion, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions, rows.Err()
}

func scanDaily(row scannable) (*domain.DailySuggestion, error) {
	var (
		idStr, sectorStr                string
		targetDate                      time.Time
		kind, category, message, status string
		resolvedAt                      *time.Time
		createdAt, updatedAt            time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &targetDate, &kind, &category, &message,
		&status, &resolvedAt, &createdAt, &updatedAt); err != nil {
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

	return domain.RehydrateDailySuggestion(
		id, sectorID, targetDate,
		domain.DailyKind(kind), domain.DailyCategory(category), message,
		domain.DailyStatus(status), resolvedAt,
		createdAt, updatedAt,
	), nil
}
