package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
)

type testEnv struct {
	users  *repository.UserRepository
	plants *repository.PlantRepository
	rules  *repository.RuleRepository
	tasks  *repository.TaskRepository

	ruleSvc   *RuleService
	taskSvc   *TaskService
	digestSvc *DigestService

	user *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	env := &testEnv{
		users:  repository.NewUserRepository(db),
		plants: repository.NewPlantRepository(db),
		rules:  repository.NewRuleRepository(db),
		tasks:  repository.NewTaskRepository(db),
	}
	env.ruleSvc = NewRuleService(env.rules, env.plants, env.tasks)
	env.taskSvc = NewTaskService(env.tasks, env.plants)
	env.digestSvc = NewDigestService(env.tasks, env.rules)

	env.user, err = env.users.UpsertFromTelegram(context.Background(), 7, "Grace", "", "grace")
	require.NoError(t, err)
	return env
}

func date(s string) time.Time {
	t, err := time.Parse(recurrence.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func intPtr(v int) *int { return &v }
