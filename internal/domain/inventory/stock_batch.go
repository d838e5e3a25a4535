package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// StockBatch represents a discrete receipt of stock for a product, tracked
// separately from other receipts with its own unit cost and expiry date.
// Batches are never deleted: a drained batch is archived so the cost lineage
// of historical sales stays intact.
type StockBatch struct {
	shared.BaseEntity
	ProductID         uuid.UUID
	QuantityReceived  decimal.Decimal
	QuantityRemaining decimal.Decimal
	UnitCost          decimal.Decimal
	ExpiryDate        time.Time
	ReceivedAt        time.Time
	Archived          bool
	// Version counts persisted saves, not in-memory mutations: a batch may
	// be deducted several times inside one unit of work but is written once.
	// The repository guards updates on it and advances it on success.
	Version int `gorm:"not null;default:1"`
}

// TableName returns the database table name for GORM
func (StockBatch) TableName() string {
	return "stock_batches"
}

// NewStockBatch creates a new stock batch from a receipt.
// expiryTolerance allows receipts dated slightly in the past (clock skew,
// back-dated intake); zero tolerance rejects any expiry before now.
func NewStockBatch(
	productID uuid.UUID,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	expiryDate time.Time,
	expiryTolerance time.Duration,
) (*StockBatch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Received quantity must be positive")
	}
	if unitCost.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unit cost must be positive")
	}
	if expiryDate.Before(time.Now().Add(-expiryTolerance)) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput,
			fmt.Sprintf("Expiry date %s is in the past", expiryDate.Format("2006-01-02")))
	}

	return &StockBatch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		QuantityReceived:  quantity,
		QuantityRemaining: quantity,
		UnitCost:          unitCost,
		ExpiryDate:        expiryDate,
		ReceivedAt:        time.Now(),
		Version:           1,
	}, nil
}

// IsExpired returns true if the batch has expired
func (b *StockBatch) IsExpired() bool {
	return b.ExpiryDate.Before(time.Now())
}

// WillExpireWithin returns true if the batch expires within the given duration
func (b *StockBatch) WillExpireWithin(d time.Duration) bool {
	return b.ExpiryDate.Before(time.Now().Add(d))
}

// HasStock returns true if the batch has remaining quantity
func (b *StockBatch) HasStock() bool {
	return b.QuantityRemaining.GreaterThan(decimal.Zero)
}

// TotalValue returns the value of the remaining quantity at batch cost
func (b *StockBatch) TotalValue() decimal.Decimal {
	return b.QuantityRemaining.Mul(b.UnitCost)
}

// Deduct removes quantity from the batch. Unlike a best-effort drain, the
// full requested quantity must be available: the allocator has already
// decided exactly how much to take from each batch.
func (b *StockBatch) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Deduction quantity must be positive")
	}
	if quantity.GreaterThan(b.QuantityRemaining) {
		return shared.NewDomainError(shared.CodeInsufficientBatchQuantity,
			fmt.Sprintf("Batch %s has %s remaining, cannot deduct %s",
				b.ID, b.QuantityRemaining.String(), quantity.String()))
	}

	b.QuantityRemaining = b.QuantityRemaining.Sub(quantity)
	if b.QuantityRemaining.IsZero() {
		b.Archived = true
	}
	b.UpdatedAt = time.Now()
	return nil
}

// Restore returns previously deducted quantity to the batch. Only a reversal
// of a prior allocation that drew from this exact batch may call this, so
// remaining can never exceed received.
func (b *StockBatch) Restore(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Restore quantity must be positive")
	}
	restored := b.QuantityRemaining.Add(quantity)
	if restored.GreaterThan(b.QuantityReceived) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Restoring %s would exceed received quantity %s for batch %s",
				quantity.String(), b.QuantityReceived.String(), b.ID))
	}

	b.QuantityRemaining = restored
	if b.Archived && b.QuantityRemaining.GreaterThan(decimal.Zero) {
		b.Archived = false
	}
	b.UpdatedAt = time.Now()
	return nil
}
