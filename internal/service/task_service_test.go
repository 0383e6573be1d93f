package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"garden-care/internal/model"
)

func TestCreateManualTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, err := env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{
		PlantName: "Apple",
		Kind:      "treat",
		Title:     " copper spray ",
		Due:       time.Date(2024, 4, 2, 17, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Nil(t, task.RuleID)
	assert.Equal(t, "copper spray", task.Title)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, date("2024-04-02"), task.Due)

	_, err = env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{PlantName: "Apple", Kind: "dance", Due: date("2024-04-02")})
	require.ErrorIs(t, err, ErrValidation)

	pending, err := env.taskSvc.ListPending(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Apple", pending[0].Plant.Name)
}

func TestTaskTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	env.taskSvc.now = func() time.Time { return now }

	newTask := func() *model.TaskInstance {
		task, err := env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{PlantName: "Pear", Kind: "water", Due: date("2024-05-01")})
		require.NoError(t, err)
		return task
	}

	done := newTask()
	got, err := env.taskSvc.Complete(ctx, env.user.ID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, got.Status)
	require.NotNil(t, got.ResolvedAt)
	assert.True(t, got.ResolvedAt.Equal(now))

	got, err = env.taskSvc.Snooze(ctx, env.user.ID, done.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, model.StatusDone, got.Status)

	snoozed := newTask()
	got, err = env.taskSvc.Snooze(ctx, env.user.ID, snoozed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSnoozed, got.Status)

	rejected := newTask()
	got, err = env.taskSvc.Reject(ctx, env.user.ID, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)

	_, err = env.taskSvc.Transition(ctx, env.user.ID, newTask().ID, model.StatusPending)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = env.taskSvc.Complete(ctx, env.user.ID+1, rejected.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	all, err := env.taskSvc.ListTasks(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	pending, err := env.taskSvc.ListPending(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task, err := env.taskSvc.CreateManualTask(ctx, env.user.ID, ManualTaskInput{PlantName: "Plum", Kind: "prune", Due: date("2024-02-01")})
	require.NoError(t, err)

	require.NoError(t, env.taskSvc.DeleteTask(ctx, env.user.ID, task.ID))
	_, err = env.taskSvc.GetTask(ctx, env.user.ID, task.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
