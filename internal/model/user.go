package model

import "time"

// User stores Telegram user metadata. Plants, rules and tasks are scoped to a user.
type User struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	FirstName  string
	LastName   string
	Username   string
	Notify     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
