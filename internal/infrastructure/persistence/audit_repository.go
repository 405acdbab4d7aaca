package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/stockalloc/engine/internal/domain/allocation"
	"github.com/stockalloc/engine/internal/domain/shared"
	"gorm.io/gorm"
)

// GormAuditRepository implements AuditRepository using GORM. The audit trail
// is append-only: the repository exposes no update or delete path.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts audit entries
func (r *GormAuditRepository) Append(ctx context.Context, entries ...*allocation.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(entries).Error
}

// HistoryByItem lists an item's entries ordered by timestamp ascending
func (r *GormAuditRepository) HistoryByItem(ctx context.Context, itemID uuid.UUID, filter shared.Filter) ([]allocation.AuditEntry, error) {
	var entries []allocation.AuditEntry
	query := applyPagination(
		r.db.WithContext(ctx).Model(&allocation.AuditEntry{}).
			Where("item_id = ?", itemID).
			Order("created_at ASC"),
		filter,
	)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// HistoryByProject lists a project's entries ordered by timestamp ascending.
// Reallocations show up for both the source and the target project.
func (r *GormAuditRepository) HistoryByProject(ctx context.Context, projectCode string, filter shared.Filter) ([]allocation.AuditEntry, error) {
	var entries []allocation.AuditEntry
	query := applyPagination(
		r.db.WithContext(ctx).Model(&allocation.AuditEntry{}).
			Where("project_code = ? OR source_project = ?", projectCode, projectCode).
			Order("created_at ASC"),
		filter,
	)
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByItem counts an item's audit entries
func (r *GormAuditRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&allocation.AuditEntry{}).
		Where("item_id = ?", itemID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormAuditRepository implements AuditRepository
var _ allocation.AuditRepository = (*GormAuditRepository)(nil)
