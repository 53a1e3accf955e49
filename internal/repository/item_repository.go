package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"taskbox/internal/model"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrEmptyPatch   = errors.New("item patch is empty")
)

// likeEscaper makes a search term match literally inside LIKE. '!' is used
// as the escape character because it means the same thing to SQLite and MySQL.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

type ListParams struct {
	Limit  int
	Offset int
	Query  string
}

type ListPage struct {
	Items   []model.Item
	HasMore bool
}

// ItemPatch carries only the columns to change; nil fields are left alone.
type ItemPatch struct {
	Title *string
	Done  *bool
}

func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Done == nil
}

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns one page, newest first. It reads Limit+1 rows so HasMore is
// exact without a COUNT query.
func (r *ItemRepository) List(ctx context.Context, params ListParams) (*ListPage, error) {
	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	q := r.db.WithContext(ctx).Model(&model.Item{})
	if params.Query != "" {
		q = q.Where("title LIKE ? ESCAPE '!'", "%"+likeEscaper.Replace(params.Query)+"%")
	}

	items := make([]model.Item, 0, params.Limit+1)
	if err := q.Order("id DESC").Limit(params.Limit + 1).Offset(params.Offset).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list items failed: %w", err)
	}

	page := &ListPage{Items: items}
	if len(items) > params.Limit {
		page.HasMore = true
		page.Items = items[:params.Limit]
	}
	return page, nil
}

func (r *ItemRepository) Create(ctx context.Context, title string) (*model.Item, error) {
	item := &model.Item{Title: title, Done: false}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("create item failed: %w", err)
	}
	return r.GetByID(ctx, item.ID)
}

func (r *ItemRepository) GetByID(ctx context.Context, id uint) (*model.Item, error) {
	var item model.Item
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("get item failed: %w", err)
	}
	return &item, nil
}

// Update applies patch in a single statement and returns the row as stored.
func (r *ItemRepository) Update(ctx context.Context, id uint, patch ItemPatch) (*model.Item, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}

	columns := make(map[string]interface{}, 2)
	if patch.Title != nil {
		columns["title"] = *patch.Title
	}
	if patch.Done != nil {
		columns["done"] = *patch.Done
	}

	if err := r.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Updates(columns).Error; err != nil {
		return nil, fmt.Errorf("update item failed: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Delete removes the row if present and reports whether it existed.
func (r *ItemRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Item{})
	if result.Error != nil {
		return false, fmt.Errorf("delete item failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
