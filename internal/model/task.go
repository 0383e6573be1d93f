package model

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a task instance.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusDone     TaskStatus = "done"
	StatusSnoozed  TaskStatus = "snoozed"
	StatusRejected TaskStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusDone, StatusSnoozed, StatusRejected:
		return true
	}
	return false
}

// TaskInstance is one dated occurrence of a care action.
// RuleID is nil for tasks created manually.
type TaskInstance struct {
	ID         uint       `gorm:"primaryKey"`
	UserID     uint       `gorm:"index"`
	PlantID    uint       `gorm:"index"`
	RuleID     *uint      `gorm:"uniqueIndex:idx_rule_due"`
	Kind       TaskKind   `gorm:"type:varchar(16)"`
	Title      string
	Due        time.Time  `gorm:"uniqueIndex:idx_rule_due;index"`
	Status     TaskStatus `gorm:"type:varchar(16);default:pending;index"`
	ResolvedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Plant      *Plant `gorm:"foreignKey:PlantID"`
}

// AfterFind keeps due dates in UTC whatever zone the driver parsed them in.
func (t *TaskInstance) AfterFind(tx *gorm.DB) error {
	t.Due = t.Due.UTC()
	return nil
}
