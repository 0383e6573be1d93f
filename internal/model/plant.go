package model

import "time"

// Plant is the subject care rules and tasks are attached to.
type Plant struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;index:idx_user_plant_name,unique"`
	Name      string `gorm:"index:idx_user_plant_name,unique"`
	Plot      string
	CreatedAt time.Time
	UpdatedAt time.Time
	Rules     []CareRule `gorm:"foreignKey:PlantID"`
}
