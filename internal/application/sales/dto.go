package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
)

// SaleLineRequest is one requested line of a sale
type SaleLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CommitSaleRequest represents a sale to commit
type CommitSaleRequest struct {
	Lines          []SaleLineRequest `json:"lines" binding:"required,min=1,dive"`
	PaymentMode    string            `json:"payment_mode" binding:"required,oneof=CASH CREDIT"`
	CounterpartyID *uuid.UUID        `json:"counterparty_id"`
}

// CancelSaleRequest represents a sale cancellation
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// AllocationResponse is one batch allocation within a sale line
type AllocationResponse struct {
	BatchID  uuid.UUID       `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// SaleLineResponse is one line of a sale in API responses
type SaleLineResponse struct {
	ProductID   uuid.UUID            `json:"product_id"`
	Quantity    decimal.Decimal      `json:"quantity"`
	UnitPrice   decimal.Decimal      `json:"unit_price"`
	LineTotal   decimal.Decimal      `json:"line_total"`
	CostOfGoods decimal.Decimal      `json:"cost_of_goods"`
	Allocations []AllocationResponse `json:"allocations"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID             uuid.UUID          `json:"id"`
	Status         string             `json:"status"`
	PaymentMode    string             `json:"payment_mode"`
	CounterpartyID *uuid.UUID         `json:"counterparty_id,omitempty"`
	Lines          []SaleLineResponse `json:"lines"`
	Total          decimal.Decimal    `json:"total"`
	TotalCost      decimal.Decimal    `json:"total_cost"`
	CanceledAt     *time.Time         `json:"canceled_at,omitempty"`
	CancelReason   string             `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	Version        int                `json:"version"`
}

// SaleListFilter represents filter options for sale listings
type SaleListFilter struct {
	Status         string     `form:"status" binding:"omitempty,oneof=COMPLETED CANCELED"`
	CounterpartyID *uuid.UUID `form:"counterparty_id"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

func toAllocationResponses(allocations []inventory.BatchAllocation) []AllocationResponse {
	out := make([]AllocationResponse, len(allocations))
	for i, a := range allocations {
		out[i] = AllocationResponse{
			BatchID:  a.BatchID,
			Quantity: a.Quantity,
			UnitCost: a.UnitCost,
		}
	}
	return out
}

// ToSaleResponse converts a domain sale to a response DTO
func ToSaleResponse(sale *sales.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(sale.Lines))
	for i, line := range sale.Lines {
		lines[i] = SaleLineResponse{
			ProductID:   line.ProductID,
			Quantity:    line.QuantityRequested,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal(),
			CostOfGoods: line.CostOfGoods(),
			Allocations: toAllocationResponses(line.Allocations),
		}
	}

	return SaleResponse{
		ID:             sale.ID,
		Status:         sale.Status.String(),
		PaymentMode:    sale.PaymentMode.String(),
		CounterpartyID: sale.CounterpartyID,
		Lines:          lines,
		Total:          sale.Total(),
		TotalCost:      sale.TotalCost(),
		CanceledAt:     sale.CanceledAt,
		CancelReason:   sale.CancelReason,
		CreatedAt:      sale.CreatedAt,
		UpdatedAt:      sale.UpdatedAt,
		Version:        sale.Version,
	}
}

// ToSaleResponses converts a slice of domain sales
func ToSaleResponses(items []sales.Sale) []SaleResponse {
	responses := make([]SaleResponse, len(items))
	for i := range items {
		responses[i] = ToSaleResponse(&items[i])
	}
	return responses
}
