package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"garden-care/internal/model"
)

func TestCreateRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rule, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName:  "  Rose ",
		Plot:       "Front",
		Kind:       "Prune",
		AnchorDate: date("2024-03-01"),
		EveryDays:  intPtr(14),
		Note:       " deadhead ",
	})
	require.NoError(t, err)
	assert.NotZero(t, rule.ID)
	assert.True(t, rule.Active)
	assert.Equal(t, model.KindPrune, rule.Kind)
	assert.Equal(t, "deadhead", rule.Note)
	require.NotNil(t, rule.Plant)
	assert.Equal(t, "Rose", rule.Plant.Name)

	second, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName:   "rose",
		Kind:        "fertilize",
		AnchorDate:  date("2024-03-01"),
		EveryMonths: intPtr(1),
	})
	require.NoError(t, err)
	assert.Equal(t, rule.PlantID, second.PlantID)

	rules, err := env.ruleSvc.ListRules(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestCreateRuleWithoutPeriodIsNonRecurring(t *testing.T) {
	env := newTestEnv(t)

	rule, err := env.ruleSvc.CreateRule(context.Background(), env.user.ID, RuleInput{
		PlantName:  "Fig",
		Kind:       "harvest",
		AnchorDate: date("2024-08-01"),
	})
	require.NoError(t, err)
	assert.False(t, rule.IsRecurring())

	_, ok, err := env.ruleSvc.NextDue(context.Background(), *rule)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateRuleValidation(t *testing.T) {
	env := newTestEnv(t)
	valid := func() RuleInput {
		return RuleInput{PlantName: "Mint", Kind: "water", AnchorDate: date("2024-01-01"), EveryDays: intPtr(2)}
	}

	tests := []struct {
		name   string
		mutate func(*RuleInput)
		msg    string
	}{
		{"missing plant", func(in *RuleInput) { in.PlantName = "   " }, "PlantName is required"},
		{"unknown kind", func(in *RuleInput) { in.Kind = "sing" }, `unknown kind "sing"`},
		{"missing anchor", func(in *RuleInput) { in.AnchorDate = date("0001-01-01") }, "AnchorDate is required"},
		{"both periods", func(in *RuleInput) { in.EveryMonths = intPtr(1) }, "not both"},
		{"zero days", func(in *RuleInput) { in.EveryDays = intPtr(0) }, "EveryDays"},
		{"negative months", func(in *RuleInput) { in.EveryDays = nil; in.EveryMonths = intPtr(-1) }, "EveryMonths"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := env.ruleSvc.CreateRule(context.Background(), env.user.ID, in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	rules, err := env.ruleSvc.ListRules(context.Background(), env.user.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestPauseResumeDeleteRule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rule, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName: "Basil", Kind: "water", AnchorDate: date("2024-01-01"), EveryDays: intPtr(1),
	})
	require.NoError(t, err)

	require.NoError(t, env.ruleSvc.PauseRule(ctx, env.user.ID, rule.ID))
	got, err := env.ruleSvc.GetRule(ctx, env.user.ID, rule.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	require.NoError(t, env.ruleSvc.ResumeRule(ctx, env.user.ID, rule.ID))
	got, err = env.ruleSvc.GetRule(ctx, env.user.ID, rule.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)

	require.ErrorIs(t, env.ruleSvc.PauseRule(ctx, env.user.ID+1, rule.ID), gorm.ErrRecordNotFound)

	require.NoError(t, env.ruleSvc.DeleteRule(ctx, env.user.ID, rule.ID))
	_, err = env.ruleSvc.GetRule(ctx, env.user.ID, rule.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRuleNextDueFollowsLatestInstance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rule, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName: "Lemon", Kind: "fertilize", AnchorDate: date("2024-01-31"), EveryMonths: intPtr(1),
	})
	require.NoError(t, err)

	due, ok, err := env.ruleSvc.NextDue(ctx, *rule)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "2024-02-29", due.Format("2006-01-02"))

	id := rule.ID
	require.NoError(t, env.tasks.CreateInstance(ctx, &model.TaskInstance{
		UserID: env.user.ID, PlantID: rule.PlantID, RuleID: &id, Kind: rule.Kind, Due: date("2024-02-29"),
	}))
	due, _, err = env.ruleSvc.NextDue(ctx, *rule)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-29", due.Format("2006-01-02"))
}
