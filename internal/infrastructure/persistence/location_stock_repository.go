package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLocationStockRepository implements LocationStockRepository using GORM.
// Claims are stored in their own table but always loaded and saved through
// the ledger aggregate.
type GormLocationStockRepository struct {
	db *gorm.DB
}

// NewGormLocationStockRepository creates a new GormLocationStockRepository
func NewGormLocationStockRepository(db *gorm.DB) *GormLocationStockRepository {
	return &GormLocationStockRepository{db: db}
}

// FindByID finds a ledger by its ID, claims included
func (r *GormLocationStockRepository) FindByID(ctx context.Context, id uuid.UUID) (*allocation.LocationStock, error) {
	var ls allocation.LocationStock
	if err := r.db.WithContext(ctx).Preload("Claims").First(&ls, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ls, nil
}

// FindByItemAndLocation finds the ledger for one (item, location) pair
func (r *GormLocationStockRepository) FindByItemAndLocation(ctx context.Context, itemID uuid.UUID, location string) (*allocation.LocationStock, error) {
	var ls allocation.LocationStock
	if err := r.db.WithContext(ctx).Preload("Claims").
		Where("item_id = ? AND location = ?", itemID, location).
		First(&ls).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ls, nil
}

// FindByItem finds all ledgers for an item, ordered by location
func (r *GormLocationStockRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]allocation.LocationStock, error) {
	var ledgers []allocation.LocationStock
	if err := r.db.WithContext(ctx).Preload("Claims").
		Where("item_id = ?", itemID).
		Order("location ASC").
		Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}

// FindByClaimID finds the ledger owning a claim
func (r *GormLocationStockRepository) FindByClaimID(ctx context.Context, claimID uuid.UUID) (*allocation.LocationStock, error) {
	var claim allocation.Claim
	if err := r.db.WithContext(ctx).First(&claim, "id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return r.FindByID(ctx, claim.LocationStockID)
}

// FindByProject finds all ledgers where the project holds an active claim
func (r *GormLocationStockRepository) FindByProject(ctx context.Context, itemID uuid.UUID, projectCode string) ([]allocation.LocationStock, error) {
	var ledgers []allocation.LocationStock
	subquery := r.db.Model(&allocation.Claim{}).
		Select("location_stock_id").
		Where("project_code = ?", projectCode)
	if err := r.db.WithContext(ctx).Preload("Claims").
		Where("item_id = ? AND id IN (?)", itemID, subquery).
		Order("location ASC").
		Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}

// Save creates or updates a ledger and its claims without a version check
func (r *GormLocationStockRepository) Save(ctx context.Context, ls *allocation.LocationStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Claims").Save(ls).Error; err != nil {
			return err
		}
		return r.syncClaims(tx, ls)
	})
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormLocationStockRepository) SaveWithLock(ctx context.Context, ls *allocation.LocationStock) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&allocation.LocationStock{}).
			Where("id = ? AND version = ?", ls.ID, ls.Version-1).
			Updates(map[string]interface{}{
				"total":      ls.Total,
				"allocated":  ls.Allocated,
				"version":    ls.Version,
				"updated_at": ls.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_FAILED", "Location stock was modified by another transaction")
		}
		return r.syncClaims(tx, ls)
	})
}

// syncClaims brings the claims table in line with the aggregate: claims the
// ledger no longer holds are deleted, the rest are upserted.
func (r *GormLocationStockRepository) syncClaims(tx *gorm.DB, ls *allocation.LocationStock) error {
	if len(ls.Claims) == 0 {
		return tx.Delete(&allocation.Claim{}, "location_stock_id = ?", ls.ID).Error
	}

	keep := make([]uuid.UUID, len(ls.Claims))
	for i, c := range ls.Claims {
		keep[i] = c.ID
	}
	if err := tx.Delete(&allocation.Claim{}, "location_stock_id = ? AND id NOT IN ?", ls.ID, keep).Error; err != nil {
		return err
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&ls.Claims).Error
}

// GetOrCreate gets the ledger for (item, location) or creates an empty one
func (r *GormLocationStockRepository) GetOrCreate(ctx context.Context, itemID uuid.UUID, location string) (*allocation.LocationStock, error) {
	ls, err := r.FindByItemAndLocation(ctx, itemID, location)
	if err == nil {
		return ls, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	created, err := allocation.NewLocationStock(itemID, location)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Omit("Claims").Create(created).Error; err != nil {
		return nil, err
	}
	return created, nil
}

// Ensure GormLocationStockRepository implements LocationStockRepository
var _ allocation.LocationStockRepository = (*GormLocationStockRepository)(nil)
