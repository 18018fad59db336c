package domain

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows a rule fetch. Zero values mean "any". SectorID selects the
// sector's own rules plus the global ones.
type Filter struct {
	SectorID *uuid.UUID
	Kind     Kind
	Rigidity Rigidity
	OnDate   *int64 // unix seconds; applies the validity window
}

// Repository persists rules and sector calculation rules.
type Repository interface {
	Save(ctx context.Context, rule *Rule) error
	FindByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	FindByCode(ctx context.Context, code string) (*Rule, error)
	// Find lists non-deleted rules matching the filter ordered by kind,
	// rigidity, priority.
	Find(ctx context.Context, filter Filter) ([]*Rule, error)
	// Block lists the active rules of one (scope, kind, rigidity) block
	// ordered by priority, for atomic renumbering.
	Block(ctx context.Context, sectorID *uuid.UUID, kind Kind, rigidity Rigidity) ([]*Rule, error)

	SaveCalculationRule(ctx context.Context, rule *SectorCalculationRule) error
	// CalculationRules lists a sector's active calculation rules for one
	// scope ordered by priority.
	CalculationRules(ctx context.Context, sectorID uuid.UUID, scope CalculationScope) ([]*SectorCalculationRule, error)
}
