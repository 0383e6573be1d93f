package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garden-care/internal/model"
)

func TestDigestBuild(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, due := range []string{"2024-01-05", "2024-01-10", "2024-01-15"} {
		_, err := env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{PlantName: "Carrot", Kind: "water", Due: date(due)})
		require.NoError(t, err)
	}
	finished, err := env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{PlantName: "Carrot", Kind: "prune", Due: date("2024-01-08")})
	require.NoError(t, err)
	_, err = env.taskSvc.Complete(ctx, env.user.ID, finished.ID)
	require.NoError(t, err)

	soon, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName: "Leek", Kind: "fertilize", AnchorDate: date("2024-01-09"), EveryDays: intPtr(3),
	})
	require.NoError(t, err)
	_, err = env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName: "Leek", Kind: "treat", AnchorDate: date("2024-01-09"), EveryMonths: intPtr(1),
	})
	require.NoError(t, err)
	paused, err := env.ruleSvc.CreateRule(ctx, env.user.ID, RuleInput{
		PlantName: "Leek", Kind: "water", AnchorDate: date("2024-01-09"), EveryDays: intPtr(2),
	})
	require.NoError(t, err)
	require.NoError(t, env.ruleSvc.PauseRule(ctx, env.user.ID, paused.ID))

	digest, err := env.digestSvc.Build(ctx, env.user.ID, date("2024-01-10"))
	require.NoError(t, err)

	require.Len(t, digest.Overdue, 1)
	assert.Equal(t, date("2024-01-05"), digest.Overdue[0].Due)
	require.Len(t, digest.DueToday, 1)
	require.Len(t, digest.Scheduled, 1)
	assert.Equal(t, date("2024-01-15"), digest.Scheduled[0].Due)
	require.Len(t, digest.Upcoming, 1)
	assert.Equal(t, soon.ID, digest.Upcoming[0].Rule.ID)
	assert.Equal(t, date("2024-01-12"), digest.Upcoming[0].Due)
	assert.False(t, digest.Empty())

	text := RenderDigest(digest)
	assert.Contains(t, text, "Overdue")
	assert.Contains(t, text, "5 days overdue")
	assert.Contains(t, text, "Coming up")
	assert.Contains(t, text, "Leek")
}

func TestDailySummaryWhenNothingIsDue(t *testing.T) {
	env := newTestEnv(t)

	text, err := env.digestSvc.DailySummary(context.Background(), *env.user, date("2024-06-01"))
	require.NoError(t, err)
	assert.Contains(t, text, "Nothing to do")
}

func TestFormatTaskEscapesHTML(t *testing.T) {
	task := model.TaskInstance{
		Kind:  model.KindOther,
		Title: "<b>stake</b>",
		Due:   date("2024-03-02"),
		Plant: &model.Plant{Name: "Beans & Peas", Plot: "North"},
	}
	line := FormatTask(task, date("2024-03-01"))
	assert.Contains(t, line, "Beans &amp; Peas (North)")
	assert.Contains(t, line, "&lt;b&gt;stake&lt;/b&gt;")
	assert.Contains(t, line, "tomorrow")
}

func TestFormatRule(t *testing.T) {
	rule := model.CareRule{
		Kind:        model.KindFertilize,
		AnchorDate:  date("2024-03-01"),
		EveryMonths: intPtr(2),
		Plant:       &model.Plant{Name: "Olive"},
	}
	assert.Contains(t, FormatRule(rule), "every 2m from 2024-03-01")
	assert.Contains(t, FormatRule(rule), "⏸")

	rule.Active = true
	rule.EveryMonths = nil
	assert.Contains(t, FormatRule(rule), "once")
	assert.NotContains(t, FormatRule(rule), "⏸")
}
