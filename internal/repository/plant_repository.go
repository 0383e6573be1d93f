package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"garden-care/internal/model"
)

// PlantRepository manages the plants rules are attached to.
type PlantRepository struct {
	db *gorm.DB
}

func NewPlantRepository(db *gorm.DB) *PlantRepository {
	return &PlantRepository{db: db}
}

// GetOrCreate finds a plant by name (case-insensitive) or creates it. A
// non-empty plot replaces the stored one.
func (r *PlantRepository) GetOrCreate(ctx context.Context, userID uint, name, plot string) (*model.Plant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("plant name is required")
	}

	var plant model.Plant
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND lower(name) = lower(?)", userID, name).First(&plant).Error
	switch {
	case err == nil:
		if plot != "" && plot != plant.Plot {
			if err := db.Model(&plant).Update("plot", plot).Error; err != nil {
				return nil, fmt.Errorf("update plant: %w", err)
			}
		}
		return &plant, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		plant = model.Plant{UserID: userID, Name: name, Plot: strings.TrimSpace(plot)}
		if err := db.Create(&plant).Error; err != nil {
			return nil, fmt.Errorf("create plant: %w", err)
		}
		return &plant, nil
	default:
		return nil, fmt.Errorf("find plant: %w", err)
	}
}

func (r *PlantRepository) ListByUser(ctx context.Context, userID uint) ([]model.Plant, error) {
	var plants []model.Plant
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("plot ASC, name ASC").Find(&plants).Error; err != nil {
		return nil, err
	}
	return plants, nil
}

func (r *PlantRepository) FindByID(ctx context.Context, userID, id uint) (*model.Plant, error) {
	var plant model.Plant
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&plant).Error; err != nil {
		return nil, err
	}
	return &plant, nil
}
