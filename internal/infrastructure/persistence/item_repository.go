package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
	"gorm.io/gorm"
)

// GormItemRepository implements ItemRepository using GORM
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// FindByID finds an item by its ID
func (r *GormItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*allocation.InventoryItem, error) {
	var item allocation.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindByItemNo finds an item by its item number
func (r *GormItemRepository) FindByItemNo(ctx context.Context, itemNo string) (*allocation.InventoryItem, error) {
	var item allocation.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "item_no = ?", itemNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// FindAll lists items matching the filter
func (r *GormItemRepository) FindAll(ctx context.Context, filter shared.Filter) ([]allocation.InventoryItem, error) {
	var items []allocation.InventoryItem
	query := r.db.WithContext(ctx).Model(&allocation.InventoryItem{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(item_no) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	query = applyPagination(query.Order("item_no ASC"), filter)

	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates an item
func (r *GormItemRepository) Save(ctx context.Context, item *allocation.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete deletes an item
func (r *GormItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&allocation.InventoryItem{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts items matching the filter
func (r *GormItemRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&allocation.InventoryItem{})
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(item_no) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ExistsByItemNo checks whether an item number is already registered
func (r *GormItemRepository) ExistsByItemNo(ctx context.Context, itemNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&allocation.InventoryItem{}).
		Where("item_no = ?", itemNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// applyPagination applies page and page size to a query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		if filter.Page > 1 {
			query = query.Offset((filter.Page - 1) * filter.PageSize)
		}
	}
	return query
}

// Ensure GormItemRepository implements ItemRepository
var _ allocation.ItemRepository = (*GormItemRepository)(nil)
