package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/shared"
)

// fefoOrder is the storage-level FEFO ordering: earliest expiry first, ties
// broken by receipt time, then by ID for full determinism.
const fefoOrder = "expiry_date ASC, received_at ASC, id ASC"

// GormStockBatchRepository implements StockBatchRepository using GORM
type GormStockBatchRepository struct {
	db *gorm.DB
}

// NewGormStockBatchRepository creates a new GormStockBatchRepository
func NewGormStockBatchRepository(db *gorm.DB) *GormStockBatchRepository {
	return &GormStockBatchRepository{db: db}
}

// FindByID finds a stock batch by its ID
func (r *GormStockBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	var batch inventory.StockBatch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct finds all batches for a product, including drained ones.
// A nil product ID lists batches across all products.
func (r *GormStockBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]inventory.StockBatch, int64, error) {
	query := r.db.WithContext(ctx).Model(&inventory.StockBatch{})
	if productID != uuid.Nil {
		query = query.Where("product_id = ?", productID)
	}
	if avail, ok := filter.Filters["available_only"]; ok && avail == true {
		query = query.Where("archived = FALSE AND quantity_remaining > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var batches []inventory.StockBatch
	if err := r.applyFilter(query, filter).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// FindAvailable finds batches with remaining quantity in FEFO order
func (r *GormStockBatchRepository) FindAvailable(ctx context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	var batches []inventory.StockBatch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND archived = FALSE AND quantity_remaining > 0", productID).
		Order(fefoOrder).
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiring finds available batches expiring within the given number of days
func (r *GormStockBatchRepository) FindExpiring(ctx context.Context, withinDays int, filter shared.Filter) ([]inventory.StockBatch, int64, error) {
	now := time.Now()
	threshold := now.AddDate(0, 0, withinDays)

	query := r.db.WithContext(ctx).Model(&inventory.StockBatch{}).
		Where("archived = FALSE AND quantity_remaining > 0").
		Where("expiry_date <= ?", threshold)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var batches []inventory.StockBatch
	if err := r.applyFilter(query, filter).Find(&batches).Error; err != nil {
		return nil, 0, err
	}
	return batches, total, nil
}

// Save creates or updates a stock batch. Updates guard on the version the
// batch was loaded with, so a deduction racing another process fails with
// ErrConcurrentModification instead of overwriting its write.
func (r *GormStockBatchRepository) Save(ctx context.Context, batch *inventory.StockBatch) error {
	result := r.db.WithContext(ctx).
		Model(batch).
		Where("id = ? AND version = ?", batch.ID, batch.Version).
		Updates(map[string]interface{}{
			"quantity_remaining": batch.QuantityRemaining,
			"archived":           batch.Archived,
			"version":            batch.Version + 1,
			"updated_at":         batch.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		batch.Version++
		return nil
	}

	// No row matched: either the batch does not exist yet or the stored
	// version has moved on.
	var count int64
	if err := r.db.WithContext(ctx).Model(&inventory.StockBatch{}).
		Where("id = ?", batch.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrentModification
	}
	return r.db.WithContext(ctx).Create(batch).Error
}

// SaveAll saves multiple stock batches with the same version guard as Save
func (r *GormStockBatchRepository) SaveAll(ctx context.Context, batches []*inventory.StockBatch) error {
	for _, batch := range batches {
		if err := r.Save(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// applyFilter applies pagination and ordering to the query
func (r *GormStockBatchRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	switch filter.OrderBy {
	case "", "created_at":
		query = query.Order(fefoOrder)
	default:
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	}

	return query
}

var _ inventory.StockBatchRepository = (*GormStockBatchRepository)(nil)
