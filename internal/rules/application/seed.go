package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hotelops/roster/internal/rules/domain"
	sharedApplication "github.com/hotelops/roster/internal/shared/application"
)

// seedEntry is one templated rule. The question/answer fields keep the
// Portuguese names the templates ship with.
type seedEntry struct {
	Title    string `json:"title"`
	Pergunta string `json:"pergunta"`
	Resposta string `json:"resposta"`
}

// seedTemplate is the on-disk layout:
//
//	{
//	  "global_rules":  {"LABOR": {"MANDATORY": [...], ...}, "SYSTEM": {...}},
//	  "sector_rules":  {"OPERATIONAL": {...}, "CALCULATION": {...}}
//	}
type seedTemplate struct {
	GlobalRules map[string]map[string][]seedEntry `json:"global_rules"`
	SectorRules map[string]map[string][]seedEntry `json:"sector_rules"`
}

// SeedResult summarizes one seeding pass.
type SeedResult struct {
	Created int
	Skipped int
}

// SeedFromJSON loads a rule template into the store. Seeding is idempotent on
// the derived rule code (title, kind, scope): existing rules are left
// untouched. Sector rules are instantiated for the given sector; pass a nil
// sector to seed only the global blocks.
func (s *Service) SeedFromJSON(ctx context.Context, data []byte, sectorID *uuid.UUID) (*SeedResult, error) {
	var template seedTemplate
	if err := json.Unmarshal(data, &template); err != nil {
		return nil, fmt.Errorf("parse rule template: %w", err)
	}

	result := &SeedResult{}
	err := sharedApplication.WithUnitOfWork(ctx, s.uow, func(txCtx context.Context) error {
		if err := s.seedBlocks(txCtx, template.GlobalRules, nil, result); err != nil {
			return err
		}
		if sectorID != nil {
			if err := s.seedBlocks(txCtx, template.SectorRules, sectorID, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "rules seeded", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

func (s *Service) seedBlocks(ctx context.Context, blocks map[string]map[string][]seedEntry, sectorID *uuid.UUID, result *SeedResult) error {
	for kindName, byRigidity := range blocks {
		kind := domain.Kind(strings.ToUpper(kindName))
		for rigidityName, entries := range byRigidity {
			rigidity := domain.Rigidity(strings.ToUpper(rigidityName))
			for i, entry := range entries {
				code := domain.RuleCode(entry.Title, kind, sectorID)
				existing, err := s.repo.FindByCode(ctx, code)
				if err != nil {
					return err
				}
				if existing != nil {
					result.Skipped++
					continue
				}

				rule, err := domain.NewRule(sectorID, kind, rigidity, i+1, entry.Title, entry.Pergunta, entry.Resposta)
				if err != nil {
					return fmt.Errorf("seed rule %q: %w", entry.Title, err)
				}
				if err := s.repo.Save(ctx, rule); err != nil {
					return err
				}
				result.Created++
			}
		}
	}
	return nil
}
