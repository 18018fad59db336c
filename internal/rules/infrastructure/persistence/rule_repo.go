package persistence

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/rules/domain"
	"github.com/hotelops/roster/internal/shared/infrastructure/database"
)

// Repository implements domain.Repository. Metadata and flags live in a JSON
// payload column; the lattice coordinates are first-class columns so blocks
// can be fetched and renumbered with plain predicates.
type Repository struct {
	conn database.Connection
}

// NewRepository creates a rule repository.
func NewRepository(conn database.Connection) *Repository {
	return &Repository{conn: conn}
}

type rulePayload struct {
	Metadata map[string]float64 `json:"metadata,omitempty"`
	Flags    map[string]bool    `json:"flags,omitempty"`
}

// Save upserts a rule.
func (r *Repository) Save(ctx context.Context, rule *domain.Rule) error {
	payload, err := json.Marshal(rulePayload{Metadata: rule.Metadata(), Flags: rule.Flags()})
	if err != nil {
		return err
	}

	var sectorStr *string
	if rule.SectorID() != nil {
		s := rule.SectorID().String()
		sectorStr = &s
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO rules (
			id, sector_id, kind, rigidity, priority, active,
			validity_start, validity_end, title, question, answer, code,
			payload, deleted_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			validity_start = EXCLUDED.validity_start,
			validity_end = EXCLUDED.validity_end,
			title = EXCLUDED.title,
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			payload = EXCLUDED.payload,
			deleted_at = EXCLUDED.deleted_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = exec.Exec(ctx, query,
		rule.ID().String(),
		sectorStr,
		string(rule.Kind()),
		string(rule.Rigidity()),
		rule.Priority(),
		rule.IsActive(),
		rule.ValidityStart(),
		rule.ValidityEnd(),
		rule.Title(),
		rule.Question(),
		rule.Answer(),
		rule.Code(),
		string(payload),
		rule.DeletedAt(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	return err
}

const ruleSelect = `
	SELECT id, sector_id, kind, rigidity, priority, active,
	       validity_start, validity_end, title, question, answer, code,
	       payload, deleted_at, created_at, updated_at
	FROM rules
`

// FindByID retrieves a rule by id. Nil when absent.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Rule, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, ruleSelect+` WHERE id = $1`, id.String())
	rule, err := scanRule(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// FindByCode retrieves a rule by its derived code. Nil when absent.
func (r *Repository) FindByCode(ctx context.Context, code string) (*domain.Rule, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	row := exec.QueryRow(ctx, ruleSelect+` WHERE code = $1`, code)
	rule, err := scanRule(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// Find lists non-deleted active rules matching the filter. A sector filter
// includes the global rules; the date filter applies the validity window.
func (r *Repository) Find(ctx context.Context, filter domain.Filter) ([]*domain.Rule, error) {
	query := ruleSelect + ` WHERE deleted_at IS NULL AND active = $1`
	args := []any{true}

	if filter.SectorID != nil {
		args = append(args, filter.SectorID.String())
		query += ` AND (sector_id IS NULL OR sector_id = $2)`
	} else {
		query += ` AND sector_id IS NULL`
	}
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += ` AND kind = ` + placeholder(len(args))
	}
	if filter.Rigidity != "" {
		args = append(args, string(filter.Rigidity))
		query += ` AND rigidity = ` + placeholder(len(args))
	}
	query += ` ORDER BY kind, rigidity, priority, id`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		if filter.OnDate != nil && !rule.AppliesOn(time.Unix(*filter.OnDate, 0).UTC()) {
			continue
		}
		all = append(all, rule)
	}
	return all, rows.Err()
}

// Block lists one (scope, kind, rigidity) block in priority order.
func (r *Repository) Block(ctx context.Context, sectorID *uuid.UUID, kind domain.Kind, rigidity domain.Rigidity) ([]*domain.Rule, error) {
	query := ruleSelect + ` WHERE deleted_at IS NULL AND kind = $1 AND rigidity = $2`
	args := []any{string(kind), string(rigidity)}
	if sectorID != nil {
		args = append(args, sectorID.String())
		query += ` AND sector_id = $3`
	} else {
		query += ` AND sector_id IS NULL`
	}
	query += ` ORDER BY priority, id`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var block []*domain.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		block = append(block, rule)
	}
	return block, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRule(row scannable) (*domain.Rule, error) {
	var (
		idStr                         string
		sectorStr                     *string
		kind, rigidity                string
		priority                      int
		active                        bool
		validityStart, validityEnd    *time.Time
		title, question, answer, code string
		payloadJSON                   string
		deletedAt                     *time.Time
		createdAt, updatedAt          time.Time
	)
	if err := row.Scan(&idStr, &sectorStr, &kind, &rigidity, &priority, &active,
		&validityStart, &validityEnd, &title, &question, &answer, &code,
		&payloadJSON, &deletedAt, &createdAt, &updatedAt); err != nil {
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
	var payload rulePayload
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return nil, err
	}

	return domain.RehydrateRule(
		id, sectorID,
		domain.Kind(kind), domain.Rigidity(rigidity),
		priority, active,
		validityStart, validityEnd,
		title, question, answer, code,
		payload.Metadata, payload.Flags,
		deletedAt,
		createdAt, updatedAt,
	), nil
}

// SaveCalculationRule upserts a sector calculation rule.
func (r *Repository) SaveCalculationRule(ctx context.Context, rule *domain.SectorCalculationRule) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	query := `
		INSERT INTO sector_calculation_rules (
			id, sector_id, scope, priority, condition_expr, action_expr, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			scope = EXCLUDED.scope,
			priority = EXCLUDED.priority,
			condition_expr = EXCLUDED.condition_expr,
			action_expr = EXCLUDED.action_expr,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`
	_, err := exec.Exec(ctx, query,
		rule.ID().String(),
		rule.SectorID().String(),
		string(rule.Scope()),
		rule.Priority(),
		rule.Condition(),
		rule.Action(),
		rule.IsActive(),
		rule.CreatedAt(),
		rule.UpdatedAt(),
	)
	return err
}

// CalculationRules lists a sector's active calculation rules for one scope in
// priority order.
func (r *Repository) CalculationRules(ctx context.Context, sectorID uuid.UUID, scope domain.CalculationScope) ([]*domain.SectorCalculationRule, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, `
		SELECT id, sector_id, scope, priority, condition_expr, action_expr, active, created_at, updated_at
		FROM sector_calculation_rules
		WHERE sector_id = $1 AND scope = $2 AND active = $3
		ORDER BY priority, id
	`, sectorID.String(), string(scope), true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*domain.SectorCalculationRule
	for rows.Next() {
		var (
			idStr, sectorStr, scopeStr, condition, action string
			priority                                      int
			active                                        bool
			createdAt, updatedAt                          time.Time
		)
		if err := rows.Scan(&idStr, &sectorStr, &scopeStr, &priority, &condition, &action, &active, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		owner, err := uuid.Parse(sectorStr)
		if err != nil {
			return nil, err
		}
		all = append(all, domain.RehydrateSectorCalculationRule(
			id, owner, domain.CalculationScope(scopeStr), priority, condition, action, active, createdAt, updatedAt,
		))
	}
	return all, rows.Err()
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
