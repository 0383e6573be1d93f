package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
)

// RuleInput represents data required to create a care rule.
type RuleInput struct {
	PlantName   string    `validate:"required,max=64"`
	Plot        string    `validate:"max=64"`
	Kind        string    `validate:"required,task_kind"`
	AnchorDate  time.Time `validate:"required"`
	EveryDays   *int      `validate:"omitempty,gt=0,lte=3650,excluded_with=EveryMonths"`
	EveryMonths *int      `validate:"omitempty,gt=0,lte=120"`
	Note        string    `validate:"max=200"`
}

// RuleService wraps care rule business logic.
type RuleService struct {
	ruleRepo  *repository.RuleRepository
	plantRepo *repository.PlantRepository
	taskRepo  *repository.TaskRepository
	validate  *validator.Validate
}

func NewRuleService(ruleRepo *repository.RuleRepository, plantRepo *repository.PlantRepository, taskRepo *repository.TaskRepository) *RuleService {
	return &RuleService{
		ruleRepo:  ruleRepo,
		plantRepo: plantRepo,
		taskRepo:  taskRepo,
		validate:  newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("task_kind", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseTaskKind(fl.Field().String())
		return ok
	})
	return v
}

// validationError turns validator output into a single ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "excluded_with":
			msgs = append(msgs, "set either EveryDays or EveryMonths, not both")
		case "task_kind":
			msgs = append(msgs, fmt.Sprintf("unknown kind %q", fe.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

// CreateRule validates input, resolves the plant and stores an active rule.
func (s *RuleService) CreateRule(ctx context.Context, userID uint, input RuleInput) (*model.CareRule, error) {
	input.PlantName = strings.TrimSpace(input.PlantName)
	input.Note = strings.TrimSpace(input.Note)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	kind, _ := model.ParseTaskKind(input.Kind)

	plant, err := s.plantRepo.GetOrCreate(ctx, userID, input.PlantName, input.Plot)
	if err != nil {
		return nil, err
	}

	rule := model.CareRule{
		UserID:      userID,
		PlantID:     plant.ID,
		Kind:        kind,
		AnchorDate:  recurrence.Day(input.AnchorDate),
		EveryDays:   input.EveryDays,
		EveryMonths: input.EveryMonths,
		Note:        input.Note,
		Active:      true,
	}
	if err := s.ruleRepo.Create(ctx, &rule); err != nil {
		return nil, err
	}
	rule.Plant = plant
	return &rule, nil
}

func (s *RuleService) ListRules(ctx context.Context, userID uint) ([]model.CareRule, error) {
	return s.ruleRepo.ListByUser(ctx, userID)
}

func (s *RuleService) GetRule(ctx context.Context, userID, ruleID uint) (*model.CareRule, error) {
	return s.ruleRepo.FindByID(ctx, userID, ruleID)
}

func (s *RuleService) PauseRule(ctx context.Context, userID, ruleID uint) error {
	return s.ruleRepo.SetActive(ctx, userID, ruleID, false)
}

func (s *RuleService) ResumeRule(ctx context.Context, userID, ruleID uint) error {
	return s.ruleRepo.SetActive(ctx, userID, ruleID, true)
}

// DeleteRule removes the rule and every task it generated.
func (s *RuleService) DeleteRule(ctx context.Context, userID, ruleID uint) error {
	return s.ruleRepo.Delete(ctx, userID, ruleID)
}

// NextDue projects when the rule will next produce a task.
func (s *RuleService) NextDue(ctx context.Context, rule model.CareRule) (time.Time, bool, error) {
	latest, err := s.taskRepo.LatestForRule(ctx, rule.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	return recurrence.NextDue(rule, latest)
}
