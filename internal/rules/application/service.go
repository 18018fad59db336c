package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/rules/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
	sharedDomain "github.com/hotelops/roster/internal/shared/domain"
)

// Service is the rule engine facade: fetching, reduction to constraints,
// candidate validation, and priority reordering.
type Service struct {
	repo   domain.Repository
	uow    sharedApplication.UnitOfWork
	logger *slog.Logger
}

// NewService creates a rule service.
func NewService(repo domain.Repository, uow sharedApplication.UnitOfWork, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, uow: uow, logger: logger}
}

// RuleGroup is one (kind, rigidity) block with its rules in priority order.
type RuleGroup struct {
	Kind     domain.Kind
	Rigidity domain.Rigidity
	Rules    []*domain.Rule
}

// groupOrder fixes the presentation order of the lattice.
var groupOrder = []struct {
	kind     domain.Kind
	rigidity domain.Rigidity
}{
	{domain.KindLabor, domain.RigidityMandatory},
	{domain.KindLabor, domain.RigidityDesirable},
	{domain.KindLabor, domain.RigidityFlexible},
	{domain.KindSystem, domain.RigidityMandatory},
	{domain.KindSystem, domain.RigidityDesirable},
	{domain.KindSystem, domain.RigidityFlexible},
	{domain.KindOperational, domain.RigidityMandatory},
	{domain.KindOperational, domain.RigidityDesirable},
	{domain.KindOperational, domain.RigidityFlexible},
	{domain.KindCalculation, domain.RigidityMandatory},
	{domain.KindCalculation, domain.RigidityDesirable},
	{domain.KindCalculation, domain.RigidityFlexible},
}

// FetchRules lists the rules in force for a sector on a date, grouped by
// (kind, rigidity) and ordered by priority within each group. Empty groups
// are omitted.
func (s *Service) FetchRules(ctx context.Context, sectorID *uuid.UUID, onDate time.Time) ([]RuleGroup, error) {
	unix := onDate.UTC().Unix()
	rules, err := s.repo.Find(ctx, domain.Filter{SectorID: sectorID, OnDate: &unix})
	if err != nil {
		return nil, err
	}

	byGroup := make(map[[2]string][]*domain.Rule)
	for _, rule := range rules {
		key := [2]string{string(rule.Kind()), string(rule.Rigidity())}
		byGroup[key] = append(byGroup[key], rule)
	}

	var groups []RuleGroup
	for _, g := range groupOrder {
		key := [2]string{string(g.kind), string(g.rigidity)}
		if block, ok := byGroup[key]; ok {
			groups = append(groups, RuleGroup{Kind: g.kind, Rigidity: g.rigidity, Rules: block})
		}
	}
	return groups, nil
}

// Constraints reduces the rules in force for a sector on a date into the
// effective constraint set.
func (s *Service) Constraints(ctx context.Context, sectorID uuid.UUID, onDate time.Time) (domain.Constraints, error) {
	unix := onDate.UTC().Unix()
	rules, err := s.repo.Find(ctx, domain.Filter{SectorID: &sectorID, OnDate: &unix})
	if err != nil {
		return domain.Constraints{}, err
	}
	return domain.Reduce(rules), nil
}

// Create persists a new rule after validating it against the rules already in
// force: a MANDATORY conflict on the same constraint key blocks creation.
func (s *Service) Create(ctx context.Context, sectorID *uuid.UUID, kind domain.Kind, rigidity domain.Rigidity, priority int, title, question, answer string) (*domain.Rule, []sharedDomain.Finding, error) {
	rule, err := domain.NewRule(sectorID, kind, rigidity, priority, title, question, answer)
	if err != nil {
		return nil, nil, err
	}

	findings, err := s.Validate(ctx, rule)
	if err != nil {
		return nil, nil, err
	}
	var blocking []sharedDomain.Finding
	for _, f := range findings {
		if f.Severity == sharedDomain.SeverityError {
			blocking = append(blocking, f)
		}
	}
	if len(blocking) > 0 {
		return nil, findings, &sharedDomain.ValidationError{Op: "rules.create", Blocking: blocking, Warnings: findings}
	}

	err = sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if existing, err := s.repo.FindByCode(txCtx, rule.Code()); err != nil {
			return err
		} else if existing != nil && existing.DeletedAt() == nil {
			return &sharedDomain.ConflictError{Entity: "rule", Reason: fmt.Sprintf("code %s already exists", rule.Code())}
		}
		return s.repo.Save(txCtx, rule)
	})
	if err != nil {
		return nil, findings, err
	}

	s.logger.InfoContext(ctx, "rule created", "code", rule.Code(), "kind", kind, "rigidity", rigidity)
	return rule, findings, nil
}

// Validate checks a candidate rule against the rules already in force.
// Conflicts with a MANDATORY rule on the same constraint key are errors;
// conflicts with softer rules are warnings.
func (s *Service) Validate(ctx context.Context, candidate *domain.Rule) ([]sharedDomain.Finding, error) {
	now := time.Now().UTC().Unix()
	existing, err := s.repo.Find(ctx, domain.Filter{SectorID: candidate.SectorID(), OnDate: &now})
	if err != nil {
		return nil, err
	}

	var findings []sharedDomain.Finding
	for _, rule := range existing {
		if rule.ID() == candidate.ID() {
			continue
		}
		for key, value := range candidate.Metadata() {
			prior, ok := rule.Metadata()[key]
			if !ok || prior == value {
				continue
			}
			severity := sharedDomain.SeverityWarning
			if rule.Rigidity() == domain.RigidityMandatory {
				severity = sharedDomain.SeverityError
			}
			findings = append(findings, sharedDomain.Finding{
				RuleCode: rule.Code(),
				Severity: severity,
				Subject:  key,
				Message:  fmt.Sprintf("%s conflicts with %s rule %q (%s=%.2f)", key, rule.Rigidity(), rule.Title(), key, prior),
			})
		}
	}
	return findings, nil
}

// Reorder atomically renumbers one (scope, kind, rigidity) block to the given
// id order. The id set must match the block exactly; priorities become 1..n.
func (s *Service) Reorder(ctx context.Context, sectorID *uuid.UUID, kind domain.Kind, rigidity domain.Rigidity, orderedIDs []uuid.UUID) error {
	return sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		block, err := s.repo.Block(txCtx, sectorID, kind, rigidity)
		if err != nil {
			return err
		}
		if len(block) != len(orderedIDs) {
			return &sharedDomain.ValidationError{Op: "rules.reorder", Blocking: []sharedDomain.Finding{{
				Severity: sharedDomain.SeverityError,
				Message:  fmt.Sprintf("expected %d rule ids, got %d", len(block), len(orderedIDs)),
			}}}
		}

		byID := make(map[uuid.UUID]*domain.Rule, len(block))
		for _, rule := range block {
			byID[rule.ID()] = rule
		}
		for position, id := range orderedIDs {
			rule, ok := byID[id]
			if !ok {
				return &sharedDomain.ValidationError{Op: "rules.reorder", Blocking: []sharedDomain.Finding{{
					Severity: sharedDomain.SeverityError,
					Subject:  id.String(),
					Message:  "rule id not in block",
				}}}
			}
			rule.SetPriority(position + 1)
			if err := s.repo.Save(txCtx, rule); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete soft-deletes a rule.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		rule, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if rule == nil {
			return &sharedDomain.NotFoundError{Entity: "rule", Ref: id.String()}
		}
		rule.SoftDelete(time.Now())
		return s.repo.Save(txCtx, rule)
	})
}
