package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var ErrBadExpression = errors.New("bad rule expression")

// CalculationScope tells which pipeline stage a calculation rule adjusts.
type CalculationScope string

const (
	ScopeDemand      CalculationScope = "DEMAND"
	ScopeProgramming CalculationScope = "PROGRAMMING"
	ScopeAdjustments CalculationScope = "ADJUSTMENTS"
)

// SectorCalculationRule carries a condition/action pair evaluated against the
// per-day demand computation. Conditions compare a named input with a number;
// actions mutate the running minutes value.
//
//	condition: "occ_adj > 80"  (empty = always)
//	action:    "minutes *= 1.15" | "minutes += 120" | "minutes = 480"
type SectorCalculationRule struct {
	sharedDomain.BaseEntity
	sectorID  uuid.UUID
	scope     CalculationScope
	priority  int
	condition string
	action    string
	active    bool
}

// NewSectorCalculationRule validates the expressions eagerly so malformed
// rules are rejected at ingest, not mid-pipeline.
func NewSectorCalculationRule(sectorID uuid.UUID, scope CalculationScope, priority int, condition, action string) (*SectorCalculationRule, error) {
	r := &SectorCalculationRule{
		BaseEntity: sharedDomain.NewBaseEntity(),
		sectorID:   sectorID,
		scope:      scope,
		priority:   priority,
		condition:  strings.TrimSpace(condition),
		action:     strings.TrimSpace(action),
		active:     true,
	}
	if _, err := r.Matches(map[string]float64{}); err != nil && r.condition != "" {
		return nil, err
	}
	if _, err := r.ApplyTo(0); err != nil {
		return nil, err
	}
	return r, nil
}

// RehydrateSectorCalculationRule recreates a rule from persisted state.
func RehydrateSectorCalculationRule(id, sectorID uuid.UUID, scope CalculationScope, priority int, condition, action string, active bool, createdAt, updatedAt time.Time) *SectorCalculationRule {
	return &SectorCalculationRule{
		BaseEntity: sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		sectorID:   sectorID,
		scope:      scope,
		priority:   priority,
		condition:  condition,
		action:     action,
		active:     active,
	}
}

func (r *SectorCalculationRule) SectorID() uuid.UUID     { return r.sectorID }
func (r *SectorCalculationRule) Scope() CalculationScope { return r.scope }
func (r *SectorCalculationRule) Priority() int           { return r.priority }
func (r *SectorCalculationRule) Condition() string       { return r.condition }
func (r *SectorCalculationRule) Action() string          { return r.action }
func (r *SectorCalculationRule) IsActive() bool          { return r.active }

// Matches evaluates the condition against named inputs. An empty condition
// always matches; an unknown variable never does.
func (r *SectorCalculationRule) Matches(inputs map[string]float64) (bool, error) {
	if r.condition == "" {
		return true, nil
	}

	fields := strings.Fields(r.condition)
	if len(fields) != 3 {
		return false, fmt.Errorf("%w: %q", ErrBadExpression, r.condition)
	}
	// Shape checks run before the variable lookup so a malformed condition is
	// caught at ingest, where validation probes with an empty input map.
	threshold, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrBadExpression, r.condition)
	}
	value, known := inputs[fields[0]]

	switch fields[1] {
	case ">":
		return known && value > threshold, nil
	case ">=":
		return known && value >= threshold, nil
	case "<":
		return known && value < threshold, nil
	case "<=":
		return known && value <= threshold, nil
	case "==":
		return known && value == threshold, nil
	case "!=":
		return known && value != threshold, nil
	default:
		return false, fmt.Errorf("%w: operator %q", ErrBadExpression, fields[1])
	}
}

// ApplyTo runs the action against a minutes value and returns the result.
func (r *SectorCalculationRule) ApplyTo(minutes float64) (float64, error) {
	if r.action == "" {
		return minutes, nil
	}
	fields := strings.Fields(r.action)
	if len(fields) != 3 || fields[0] != "minutes" {
		return minutes, fmt.Errorf("%w: %q", ErrBadExpression, r.action)
	}
	operand, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return minutes, fmt.Errorf("%w: %q", ErrBadExpression, r.action)
	}

	switch fields[1] {
	case "=":
		return operand, nil
	case "+=":
		return minutes + operand, nil
	case "-=":
		return minutes - operand, nil
	case "*=":
		return minutes * operand, nil
	case "/=":
		if operand == 0 {
			return minutes, fmt.Errorf("%w: division by zero", ErrBadExpression)
		}
		return minutes / operand, nil
	default:
		return minutes, fmt.Errorf("%w: operator %q", ErrBadExpression, fields[1])
	}
}
