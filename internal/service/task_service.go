package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
)

// ManualTaskInput represents a one-off task created by the user.
type ManualTaskInput struct {
	PlantName string    `validate:"required,max=64"`
	Kind      string    `validate:"required,task_kind"`
	Title     string    `validate:"max=200"`
	Due       time.Time `validate:"required"`
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo  *repository.TaskRepository
	plantRepo *repository.PlantRepository
	validate  *validator.Validate
	now       func() time.Time
}

func NewTaskService(taskRepo *repository.TaskRepository, plantRepo *repository.PlantRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, plantRepo: plantRepo, validate: newValidator(), now: time.Now}
}

// CreateManualTask stores a task that does not come from a rule.
func (s *TaskService) CreateManualTask(ctx context.Context, userID uint, input ManualTaskInput) (*model.TaskInstance, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	kind, _ := model.ParseTaskKind(input.Kind)

	plant, err := s.plantRepo.GetOrCreate(ctx, userID, input.PlantName, "")
	if err != nil {
		return nil, err
	}

	task := model.TaskInstance{
		UserID:  userID,
		PlantID: plant.ID,
		Kind:    kind,
		Title:   input.Title,
		Due:     recurrence.Day(input.Due),
		Status:  model.StatusPending,
	}
	if err := s.taskRepo.CreateInstance(ctx, &task); err != nil {
		return nil, err
	}
	task.Plant = plant
	return &task, nil
}

func (s *TaskService) ListPending(ctx context.Context, userID uint) ([]model.TaskInstance, error) {
	return s.taskRepo.ListByUser(ctx, userID, model.StatusPending)
}

func (s *TaskService) ListTasks(ctx context.Context, userID uint, statuses ...model.TaskStatus) ([]model.TaskInstance, error) {
	return s.taskRepo.ListByUser(ctx, userID, statuses...)
}

func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint) (*model.TaskInstance, error) {
	return s.taskRepo.FindByID(ctx, userID, taskID)
}

func (s *TaskService) Complete(ctx context.Context, userID, taskID uint) (*model.TaskInstance, error) {
	return s.Transition(ctx, userID, taskID, model.StatusDone)
}

func (s *TaskService) Snooze(ctx context.Context, userID, taskID uint) (*model.TaskInstance, error) {
	return s.Transition(ctx, userID, taskID, model.StatusSnoozed)
}

func (s *TaskService) Reject(ctx context.Context, userID, taskID uint) (*model.TaskInstance, error) {
	return s.Transition(ctx, userID, taskID, model.StatusRejected)
}

// Transition moves a pending task to a final status. Tasks never leave a
// final status and are never re-dated.
func (s *TaskService) Transition(ctx context.Context, userID, taskID uint, to model.TaskStatus) (*model.TaskInstance, error) {
	if !to.Valid() || to == model.StatusPending {
		return nil, fmt.Errorf("%w: cannot move a task to %q", ErrInvalidTransition, to)
	}
	ok, err := s.taskRepo.Resolve(ctx, userID, taskID, to, s.now())
	if err != nil {
		return nil, err
	}
	task, err := s.taskRepo.FindByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return task, fmt.Errorf("%w: task %d is %s", ErrInvalidTransition, taskID, task.Status)
	}
	return task, nil
}

// DeleteTask removes a task completely.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return s.taskRepo.Delete(ctx, userID, taskID)
}
