package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the inventory domain
const (
	EventTypeBatchReceived = "inventory.batch_received"
	EventTypeStockDeducted = "inventory.stock_deducted"
	EventTypeStockRestored = "inventory.stock_restored"
)

// BatchReceivedEvent is emitted when a new stock batch is created
type BatchReceivedEvent struct {
	shared.BaseDomainEvent
	ProductID  uuid.UUID       `json:"product_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// NewBatchReceivedEvent creates a BatchReceivedEvent for a batch
func NewBatchReceivedEvent(batch *StockBatch) *BatchReceivedEvent {
	return &BatchReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchReceived, batch.ID, "StockBatch"),
		ProductID:       batch.ProductID,
		Quantity:        batch.QuantityReceived,
		UnitCost:        batch.UnitCost,
		ExpiryDate:      batch.ExpiryDate,
	}
}

// StockDeductedEvent is emitted for each batch deduction committed by a sale
type StockDeductedEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewStockDeductedEvent creates a StockDeductedEvent for a batch deduction
func NewStockDeductedEvent(batch *StockBatch, saleID uuid.UUID, quantity decimal.Decimal) *StockDeductedEvent {
	return &StockDeductedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDeducted, batch.ID, "StockBatch"),
		ProductID:       batch.ProductID,
		SaleID:          saleID,
		Quantity:        quantity,
		Remaining:       batch.QuantityRemaining,
	}
}

// StockRestoredEvent is emitted for each batch restoration on sale reversal
type StockRestoredEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID       `json:"product_id"`
	SaleID    uuid.UUID       `json:"sale_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Remaining decimal.Decimal `json:"remaining"`
}

// NewStockRestoredEvent creates a StockRestoredEvent for a batch restoration
func NewStockRestoredEvent(batch *StockBatch, saleID uuid.UUID, quantity decimal.Decimal) *StockRestoredEvent {
	return &StockRestoredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockRestored, batch.ID, "StockBatch"),
		ProductID:       batch.ProductID,
		SaleID:          saleID,
		Quantity:        quantity,
		Remaining:       batch.QuantityRemaining,
	}
}
