package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-care/internal/model"
	"garden-care/internal/repository"
	"garden-care/internal/service"
)

func newRuleService(t *testing.T) (*service.RuleService, *model.User) {
	t.Helper()
	db, err := repository.NewDB(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	plants := repository.NewPlantRepository(db)
	tasks := repository.NewTaskRepository(db)
	svc := service.NewRuleService(repository.NewRuleRepository(db), plants, tasks)
	user, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), 1, "Ida", "", "")
	require.NoError(t, err)
	return svc, user
}

const gardenYAML = `
rules:
  - plant: Tomato
    plot: Bed A
    kind: water
    anchor: 2024-04-01
    every_days: 3
  - plant: Tomato
    plot: Bed A
    kind: fertilize
    anchor: 2024-04-01
    every_months: 1
    note: liquid feed
  - plant: Apple
    kind: prune
    anchor: 2024-02-15
`

func TestImport(t *testing.T) {
	svc, user := newRuleService(t)
	ctx := context.Background()

	n, err := Import(ctx, svc, user.ID, strings.NewReader(gardenYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rules, err := svc.ListRules(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, rules[0].PlantID, rules[1].PlantID)
	assert.Equal(t, "liquid feed", rules[1].Note)
	require.NotNil(t, rules[1].EveryMonths)
	assert.Equal(t, 1, *rules[1].EveryMonths)
	assert.False(t, rules[2].IsRecurring())
}

func TestImportStopsAtFirstBadRule(t *testing.T) {
	svc, user := newRuleService(t)
	ctx := context.Background()

	doc := `
rules:
  - plant: Pea
    kind: water
    anchor: 2024-04-01
    every_days: 2
  - plant: Bean
    kind: water
    anchor: 2024-04-01
    every_days: 2
    every_months: 1
  - plant: Corn
    kind: water
    anchor: 2024-04-01
`
	n, err := Import(ctx, svc, user.ID, strings.NewReader(doc))
	require.ErrorIs(t, err, service.ErrValidation)
	assert.Contains(t, err.Error(), "rule 2 (Bean)")
	assert.Equal(t, 1, n)
}

func TestImportRejectsMalformedInput(t *testing.T) {
	svc, user := newRuleService(t)

	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"empty", "", "no rules found"},
		{"no rules", "rules: []", "no rules found"},
		{"not yaml", "rules: [", "YAML parse error"},
		{"unknown field", "rules:\n  - plant: A\n    colour: red\n", "YAML parse error"},
		{"missing anchor", "rules:\n  - plant: A\n    kind: water\n", "anchor date is required"},
		{"bad anchor", "rules:\n  - plant: A\n    kind: water\n    anchor: 01/04/2024\n", "expected YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(context.Background(), svc, user.ID, strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
