package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/service"
)

// YAMLRule represents a single care rule in the YAML input.
type YAMLRule struct {
	Plant       string `yaml:"plant"`
	Plot        string `yaml:"plot,omitempty"`
	Kind        string `yaml:"kind"`
	Anchor      string `yaml:"anchor"`
	EveryDays   *int   `yaml:"every_days,omitempty"`
	EveryMonths *int   `yaml:"every_months,omitempty"`
	Note        string `yaml:"note,omitempty"`
}

// YAMLInput represents the root structure of the YAML input.
type YAMLInput struct {
	Rules []YAMLRule `yaml:"rules"`
}

// RuleCreator stores one validated rule.
type RuleCreator interface {
	CreateRule(ctx context.Context, userID uint, input service.RuleInput) (*model.CareRule, error)
}

// Import parses YAML from r and creates the rules for userID in order.
// It stops at the first failing rule and returns how many were created.
func Import(ctx context.Context, rules RuleCreator, userID uint, r io.Reader) (int, error) {
	var input YAMLInput
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&input); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("no rules found in YAML")
		}
		return 0, fmt.Errorf("YAML parse error: %w", err)
	}

	if len(input.Rules) == 0 {
		return 0, fmt.Errorf("no rules found in YAML")
	}

	count := 0
	for i, yr := range input.Rules {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if err := importRule(ctx, rules, userID, yr); err != nil {
			return count, fmt.Errorf("rule %d (%s): %w", i+1, yr.Plant, err)
		}
		count++
	}
	return count, nil
}

func importRule(ctx context.Context, rules RuleCreator, userID uint, yr YAMLRule) error {
	if yr.Anchor == "" {
		return fmt.Errorf("anchor date is required")
	}
	anchor, err := time.Parse(recurrence.DateLayout, yr.Anchor)
	if err != nil {
		return fmt.Errorf("anchor %q: expected YYYY-MM-DD", yr.Anchor)
	}
	_, err = rules.CreateRule(ctx, userID, service.RuleInput{
		PlantName:   yr.Plant,
		Plot:        yr.Plot,
		Kind:        yr.Kind,
		AnchorDate:  anchor,
		EveryDays:   yr.EveryDays,
		EveryMonths: yr.EveryMonths,
		Note:        yr.Note,
	})
	return err
}
