package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poscore/backend/internal/domain/sales"
	"github.com/poscore/backend/internal/domain/shared"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	var sale sales.Sale
	if err := r.db.WithContext(ctx).First(&sale, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// FindAll lists sales, newest first
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&sales.Sale{})
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if counterpartyID, ok := filter.Filters["counterparty_id"]; ok {
		query = query.Where("counterparty_id = ?", counterpartyID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}

	var items []sales.Sale
	if err := query.Order(orderBy + " " + orderDir).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Save creates or updates a sale. Updates guard on the previous version:
// a cancel racing another writer fails with ErrConcurrentModification
// instead of overwriting.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	result := r.db.WithContext(ctx).
		Model(sale).
		Where("id = ? AND version = ?", sale.ID, sale.Version-1).
		Updates(map[string]interface{}{
			"status":        sale.Status,
			"canceled_at":   sale.CanceledAt,
			"cancel_reason": sale.CancelReason,
			"version":       sale.Version,
			"updated_at":    sale.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// No row matched: either the sale does not exist yet or the stored
	// version has moved on.
	var count int64
	if err := r.db.WithContext(ctx).Model(&sales.Sale{}).
		Where("id = ?", sale.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrentModification
	}
	return r.db.WithContext(ctx).Create(sale).Error
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
