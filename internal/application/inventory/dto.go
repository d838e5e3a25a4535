package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poscore/backend/internal/domain/inventory"
)

// ReceiveBatchRequest represents a stock receipt
type ReceiveBatchRequest struct {
	ProductID  uuid.UUID       `json:"product_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost   decimal.Decimal `json:"unit_cost" binding:"required"`
	ExpiryDate time.Time       `json:"expiry_date" binding:"required"`
}

// BatchResponse represents a stock batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityRemaining decimal.Decimal `json:"quantity_remaining"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	ExpiryDate        time.Time       `json:"expiry_date"`
	ReceivedAt        time.Time       `json:"received_at"`
	Archived          bool            `json:"archived"`
	Expired           bool            `json:"expired"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BatchListFilter represents filter options for batch listings
type BatchListFilter struct {
	ProductID     *uuid.UUID `form:"product_id"`
	AvailableOnly bool       `form:"available_only"`
	Page          int        `form:"page" binding:"omitempty,min=1"`
	PageSize      int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExpiringBatchFilter represents filter options for the expiring-stock report
type ExpiringBatchFilter struct {
	WithinDays int `form:"within_days" binding:"omitempty,min=1,max=365"`
	Page       int `form:"page" binding:"omitempty,min=1"`
	PageSize   int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StockAvailabilityResponse reports total available quantity for a product
type StockAvailabilityResponse struct {
	ProductID         uuid.UUID       `json:"product_id"`
	AvailableQuantity decimal.Decimal `json:"available_quantity"`
	BatchCount        int             `json:"batch_count"`
}

// ToBatchResponse converts a domain batch to a response DTO
func ToBatchResponse(batch *inventory.StockBatch) BatchResponse {
	return BatchResponse{
		ID:                batch.ID,
		ProductID:         batch.ProductID,
		QuantityReceived:  batch.QuantityReceived,
		QuantityRemaining: batch.QuantityRemaining,
		UnitCost:          batch.UnitCost,
		TotalValue:        batch.TotalValue(),
		ExpiryDate:        batch.ExpiryDate,
		ReceivedAt:        batch.ReceivedAt,
		Archived:          batch.Archived,
		Expired:           batch.IsExpired(),
		CreatedAt:         batch.CreatedAt,
		UpdatedAt:         batch.UpdatedAt,
	}
}

// ToBatchResponses converts a slice of domain batches
func ToBatchResponses(batches []inventory.StockBatch) []BatchResponse {
	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses
}
