package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"garden-care/internal/model"
)

// RuleRepository handles CRUD for care rules and feeds the recurrence engine.
type RuleRepository struct {
	db *gorm.DB
}

func NewRuleRepository(db *gorm.DB) *RuleRepository {
	return &RuleRepository{db: db}
}

func (r *RuleRepository) Create(ctx context.Context, rule *model.CareRule) error {
	if err := r.db.WithContext(ctx).Omit("Plant").Create(rule).Error; err != nil {
		return fmt.Errorf("create rule: %w", err)
	}
	return nil
}

// Update stores the editable fields of a rule.
func (r *RuleRepository) Update(ctx context.Context, rule *model.CareRule) error {
	res := r.db.WithContext(ctx).Model(&model.CareRule{}).
		Where("user_id = ? AND id = ?", rule.UserID, rule.ID).
		Select("kind", "anchor_date", "every_days", "every_months", "note", "active").
		Updates(rule)
	if res.Error != nil {
		return fmt.Errorf("update rule: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *RuleRepository) FindByID(ctx context.Context, userID, ruleID uint) (*model.CareRule, error) {
	var rule model.CareRule
	if err := r.db.WithContext(ctx).Preload("Plant").
		Where("user_id = ? AND id = ?", userID, ruleID).First(&rule).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RuleRepository) ListByUser(ctx context.Context, userID uint) ([]model.CareRule, error) {
	var rules []model.CareRule
	if err := r.db.WithContext(ctx).Preload("Plant").
		Where("user_id = ?", userID).Order("active DESC, id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// SetActive pauses or resumes a rule. Paused rules are not listed to the engine.
func (r *RuleRepository) SetActive(ctx context.Context, userID, ruleID uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.CareRule{}).
		Where("user_id = ? AND id = ?", userID, ruleID).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("set rule active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a rule together with every task generated from it.
func (r *RuleRepository) Delete(ctx context.Context, userID, ruleID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, ruleID).Delete(&model.CareRule{})
		if res.Error != nil {
			return fmt.Errorf("delete rule: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("rule_id = ?", ruleID).Delete(&model.TaskInstance{}).Error; err != nil {
			return fmt.Errorf("delete rule tasks: %w", err)
		}
		return nil
	})
}

// EachActive streams active rules in id order, batchSize rows at a time.
func (r *RuleRepository) EachActive(ctx context.Context, batchSize int, fn func(model.CareRule) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var batch []model.CareRule
	res := r.db.WithContext(ctx).Where("active = ?", true).
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			for _, rule := range batch {
				if err := fn(rule); err != nil {
					return err
				}
			}
			return nil
		})
	return res.Error
}
