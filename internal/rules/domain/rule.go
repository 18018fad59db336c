package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

var (
	ErrTitleRequired   = errors.New("rule title is required")
	ErrSectorKindOwner = errors.New("OPERATIONAL and CALCULATION rules must be owned by a sector")
	ErrGlobalKindOwner = errors.New("LABOR and SYSTEM rules are global and cannot be owned by a sector")
)

// Kind classifies a rule in the kind × rigidity × priority lattice.
type Kind string

const (
	KindLabor       Kind = "LABOR"
	KindSystem      Kind = "SYSTEM"
	KindOperational Kind = "OPERATIONAL"
	KindCalculation Kind = "CALCULATION"
)

// IsGlobal reports whether rules of this kind apply universally.
func (k Kind) IsGlobal() bool {
	return k == KindLabor || k == KindSystem
}

// Rigidity expresses how binding a rule is.
type Rigidity string

const (
	RigidityMandatory Rigidity = "MANDATORY"
	RigidityDesirable Rigidity = "DESIRABLE"
	RigidityFlexible  Rigidity = "FLEXIBLE"
)

// Rule is the unified rule row. Global rules (LABOR, SYSTEM) have a nil
// sector; sector rules (OPERATIONAL, CALCULATION) are owned. The
// natural-language question/answer pair is retained for audit; the runtime
// reads only the typed metadata extracted at ingest.
type Rule struct {
	sharedDomain.BaseAggregateRoot
	sectorID      *uuid.UUID
	kind          Kind
	rigidity      Rigidity
	priority      int
	active        bool
	validityStart *time.Time
	validityEnd   *time.Time
	title         string
	question      string
	answer        string
	code          string
	metadata      map[string]float64
	flags         map[string]bool
	deletedAt     *time.Time
}

// NewRule creates a rule, deriving its deterministic code and typed metadata.
func NewRule(sectorID *uuid.UUID, kind Kind, rigidity Rigidity, priority int, title, question, answer string) (*Rule, error) {
	if title == "" {
		return nil, ErrTitleRequired
	}
	if kind.IsGlobal() && sectorID != nil {
		return nil, ErrGlobalKindOwner
	}
	if !kind.IsGlobal() && sectorID == nil {
		return nil, ErrSectorKindOwner
	}

	metadata, flags := ExtractMetadata(title, answer)
	return &Rule{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		sectorID:          sectorID,
		kind:              kind,
		rigidity:          rigidity,
		priority:          priority,
		active:            true,
		title:             title,
		question:          question,
		answer:            answer,
		code:              RuleCode(title, kind, sectorID),
		metadata:          metadata,
		flags:             flags,
	}, nil
}

// RehydrateRule recreates a rule from persisted state.
func RehydrateRule(
	id uuid.UUID,
	sectorID *uuid.UUID,
	kind Kind,
	rigidity Rigidity,
	priority int,
	active bool,
	validityStart, validityEnd *time.Time,
	title, question, answer, code string,
	metadata map[string]float64,
	flags map[string]bool,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) *Rule {
	return &Rule{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(
			sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt), 0),
		sectorID:      sectorID,
		kind:          kind,
		rigidity:      rigidity,
		priority:      priority,
		active:        active,
		validityStart: validityStart,
		validityEnd:   validityEnd,
		title:         title,
		question:      question,
		answer:        answer,
		code:          code,
		metadata:      metadata,
		flags:         flags,
		deletedAt:     deletedAt,
	}
}

func (r *Rule) SectorID() *uuid.UUID         { return r.sectorID }
func (r *Rule) Kind() Kind                   { return r.kind }
func (r *Rule) Rigidity() Rigidity           { return r.rigidity }
func (r *Rule) Priority() int                { return r.priority }
func (r *Rule) IsActive() bool               { return r.active }
func (r *Rule) ValidityStart() *time.Time    { return r.validityStart }
func (r *Rule) ValidityEnd() *time.Time      { return r.validityEnd }
func (r *Rule) Title() string                { return r.title }
func (r *Rule) Question() string             { return r.question }
func (r *Rule) Answer() string               { return r.answer }
func (r *Rule) Code() string                 { return r.code }
func (r *Rule) Metadata() map[string]float64 { return r.metadata }
func (r *Rule) Flags() map[string]bool       { return r.flags }
func (r *Rule) DeletedAt() *time.Time        { return r.deletedAt }

// SetPriority renumbers the rule inside its (kind, rigidity) block.
func (r *Rule) SetPriority(priority int) {
	r.priority = priority
	r.Touch()
}

// SetValidity bounds the rule's applicability window (open on nil).
func (r *Rule) SetValidity(start, end *time.Time) {
	r.validityStart = start
	r.validityEnd = end
	r.Touch()
}

// Deactivate disables the rule without deleting it.
func (r *Rule) Deactivate() {
	r.active = false
	r.Touch()
}

// SoftDelete marks the rule deleted; deleted rules never match fetches.
func (r *Rule) SoftDelete(at time.Time) {
	at = at.UTC()
	r.deletedAt = &at
	r.Touch()
}

// AppliesOn reports whether the rule is in force on a date.
func (r *Rule) AppliesOn(date time.Time) bool {
	if !r.active || r.deletedAt != nil {
		return false
	}
	date = date.UTC()
	if r.validityStart != nil && date.Before(*r.validityStart) {
		return false
	}
	if r.validityEnd != nil && date.After(*r.validityEnd) {
		return false
	}
	return true
}

// RuleCode derives the deterministic code from title, kind, and scope:
// a slug of the title plus a short hash, unique within (scope, kind).
func RuleCode(title string, kind Kind, sectorID *uuid.UUID) string {
	scope := "global"
	if sectorID != nil {
		scope = sectorID.String()
	}
	sum := sha256.Sum256([]byte(title + "|" + string(kind) + "|" + scope))
	return slugify(title) + "-" + hex.EncodeToString(sum[:4])
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
