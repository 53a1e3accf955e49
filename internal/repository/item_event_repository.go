package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"taskbox/internal/model"
)

type ItemEventRepository struct {
	db *gorm.DB
}

func NewItemEventRepository(db *gorm.DB) *ItemEventRepository {
	return &ItemEventRepository{db: db}
}

func (r *ItemEventRepository) Create(ctx context.Context, event *model.ItemEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create item event failed: %w", err)
	}
	return nil
}

func (r *ItemEventRepository) ListByItemID(ctx context.Context, itemID uint, limit int) ([]model.ItemEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var events []model.ItemEvent
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("id ASC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list item events failed: %w", err)
	}
	return events, nil
}
