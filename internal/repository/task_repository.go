package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"garden-care/internal/model"
	"garden-care/internal/recurrence"
)

// ErrDuplicateInstance is returned when a rule already has a task on the same due date.
var ErrDuplicateInstance = recurrence.ErrDuplicateInstance

// TaskRepository handles task instances.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateInstance inserts a task. A unique (rule_id, due) violation is
// reported as ErrDuplicateInstance.
func (r *TaskRepository) CreateInstance(ctx context.Context, task *model.TaskInstance) error {
	if task.Status == "" {
		task.Status = model.StatusPending
	}
	if err := r.db.WithContext(ctx).Omit("Plant").Create(task).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("create task: %w", ErrDuplicateInstance)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// LatestForRule returns the generated task with the latest due date, or nil.
func (r *TaskRepository) LatestForRule(ctx context.Context, ruleID uint) (*model.TaskInstance, error) {
	var tasks []model.TaskInstance
	if err := r.db.WithContext(ctx).Where("rule_id = ?", ruleID).
		Order("due DESC").Limit(1).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("latest task for rule %d: %w", ruleID, err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.TaskInstance, error) {
	var task model.TaskInstance
	if err := r.db.WithContext(ctx).Preload("Plant").
		Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListByUser returns the user's tasks ordered by due date. With no statuses
// every task is returned.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint, statuses ...model.TaskStatus) ([]model.TaskInstance, error) {
	var tasks []model.TaskInstance
	q := r.db.WithContext(ctx).Preload("Plant").Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Order("due ASC, id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListByIDs loads tasks with their plants, keeping the requested order.
func (r *TaskRepository) ListByIDs(ctx context.Context, ids []uint) ([]model.TaskInstance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var tasks []model.TaskInstance
	if err := r.db.WithContext(ctx).Preload("Plant").Where("id IN ?", ids).Find(&tasks).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]model.TaskInstance, len(tasks))
	for _, t := range tasks {
		byID[t.ID] = t
	}
	out := make([]model.TaskInstance, 0, len(tasks))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// Resolve moves a pending task to status. It reports false when the task is
// missing or no longer pending.
func (r *TaskRepository) Resolve(ctx context.Context, userID, taskID uint, status model.TaskStatus, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Where("user_id = ? AND id = ? AND status = ?", userID, taskID, model.StatusPending).
		Updates(map[string]interface{}{"status": status, "resolved_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("resolve task: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a task for the given user.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.TaskInstance{})
	if res.Error != nil {
		return fmt.Errorf("delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountByStatus returns per-status task counts for a user.
func (r *TaskRepository) CountByStatus(ctx context.Context, userID uint) (map[model.TaskStatus]int64, error) {
	var rows []struct {
		Status model.TaskStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).Model(&model.TaskInstance{}).
		Select("status, count(*) AS count").Where("user_id = ?", userID).
		Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[model.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
