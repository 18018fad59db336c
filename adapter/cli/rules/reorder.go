package rules

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hotelops/roster/adapter/cli"
	"github.com/hotelops/roster/internal/rules/domain"
)

var (
	reorderSector   string
	reorderKind     string
	reorderRigidity string
)

var reorderCmd = &cobra.Command{
	Use:   "reorder <rule-id> [rule-id ...]",
	Short: "Set the priority order of one rule group",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil {
			return fmt.Errorf("application not initialized - database connection required")
		}

		kind, err := parseKind(reorderKind)
		if err != nil {
			return err
		}
		rigidity, err := parseRigidity(reorderRigidity)
		if err != nil {
			return err
		}
		scope, err := resolveScope(cmd, app, reorderSector)
		if err != nil {
			return err
		}

		orderedIDs := make([]uuid.UUID, 0, len(args))
		for _, arg := range args {
			id, err := uuid.Parse(arg)
			if err != nil {
				return fmt.Errorf("invalid rule id %q: %w", arg, err)
			}
			orderedIDs = append(orderedIDs, id)
		}

		if err := app.Rules.Reorder(cmd.Context(), scope, kind, rigidity, orderedIDs); err != nil {
			return fmt.Errorf("failed to reorder rules: %w", err)
		}

		fmt.Printf("Reordered %d rules in %s/%s\n", len(orderedIDs), kind, rigidity)
		return nil
	},
}

func parseKind(s string) (domain.Kind, error) {
	switch strings.ToUpper(s) {
	case "OPERATIONAL":
		return domain.KindOperational, nil
	case "CALCULATION":
		return domain.KindCalculation, nil
	default:
		return "", fmt.Errorf("unknown kind %q (operational, calculation)", s)
	}
}

func parseRigidity(s string) (domain.Rigidity, error) {
	switch strings.ToUpper(s) {
	case "MANDATORY":
		return domain.RigidityMandatory, nil
	case "DESIRABLE":
		return domain.RigidityDesirable, nil
	default:
		return "", fmt.Errorf("unknown rigidity %q (mandatory, desirable)", s)
	}
}

func init() {
	reorderCmd.Flags().StringVarP(&reorderSector, "sector", "s", "", "sector scope (default: global)")
	reorderCmd.Flags().StringVarP(&reorderKind, "kind", "k", "", "rule kind: operational or calculation (required)")
	reorderCmd.Flags().StringVarP(&reorderRigidity, "rigidity", "r", "", "rigidity: mandatory or desirable (required)")
	reorderCmd.MarkFlagRequired("kind")
	reorderCmd.MarkFlagRequired("rigidity")
}
